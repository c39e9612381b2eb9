package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"caddiff/internal/cad"
	"caddiff/internal/config"
	"caddiff/internal/logging"
	"caddiff/internal/tui"
	"caddiff/internal/watch"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: caddiff [options] [NEW_DIR OLD_DIR]\n\n")
		fmt.Fprintf(os.Stderr, "caddiff compares two snapshots of a PCB CAD export and reports which\n")
		fmt.Fprintf(os.Stderr, "test points (Nails.asc) and parts (Parts.asc) were shifted, deleted or added.\n")
		fmt.Fprintf(os.Stderr, "The old directory is the base version.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  caddiff ./rev_b ./rev_a              # Write Diff_Nails_report.txt and Diff_Parts_report.txt\n")
		fmt.Fprintf(os.Stderr, "  caddiff -k parts --parts-threshold 5 ./rev_b ./rev_a\n")
		fmt.Fprintf(os.Stderr, "  caddiff --format json ./rev_b ./rev_a # Print the classification as JSON\n")
		fmt.Fprintf(os.Stderr, "  caddiff --tui ./rev_b ./rev_a        # Browse the differences interactively\n")
		fmt.Fprintf(os.Stderr, "  caddiff --watch ./rev_b ./rev_a      # Re-run whenever an export changes\n")
	}

	config.RegisterFlags(pflag.CommandLine)
	tuiFlag := pflag.BoolP("tui", "t", false, "Browse the differences in an interactive terminal UI")
	watchFlag := pflag.BoolP("watch", "w", false, "Re-run the diff whenever a snapshot export changes")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("caddiff version %s\n", Version)
		return
	}

	cfg, err := config.Load(viper.New(), pflag.CommandLine)
	if err == nil {
		err = cfg.RequireSnapshots()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, config.ErrNoSnapshots) {
			fmt.Fprintf(os.Stderr, "Run 'caddiff --help' for usage.\n")
		}
		os.Exit(1)
	}

	logCfg := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File}
	var logger *zap.Logger
	if *tuiFlag {
		logger, err = logging.ForTUI(logCfg)
	} else {
		logger, err = logging.New(logCfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	runner, err := cad.NewRunner(afero.NewOsFs(), cfg.RunnerOptions(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *tuiFlag:
		err = runTuiMode(runner, cfg)
	case *watchFlag:
		err = runWatchMode(runner, cfg, logger)
	case cfg.Format != cad.FormatText:
		err = runExportMode(runner, cfg)
	default:
		err = runReportMode(runner, cfg)
	}
	if err != nil {
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runReportMode runs every selected kind. Kinds are independent: a failure in
// one does not stop the next.
func runReportMode(runner *cad.Runner, cfg config.Config) error {
	var errs []error
	for _, kind := range cfg.SelectedKinds() {
		out, err := runner.Run(kind, cfg.NewDir, cfg.OldDir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c := out.Counts()
		fmt.Printf("%s: Shift = %d, Del = %d, Add = %d, Unchanged = %d\n",
			kind.Title(), c.Shifted, c.Deleted, c.Added, c.Unchanged)
		fmt.Printf("Report saved to %s\n", out.ReportPath)
	}
	return errors.Join(errs...)
}

func runExportMode(runner *cad.Runner, cfg config.Config) error {
	outcomes, err := diffAll(runner, cfg)
	if err != nil {
		return err
	}
	return cad.Export(os.Stdout, cfg.Format, outcomes)
}

func diffAll(runner *cad.Runner, cfg config.Config) ([]*cad.Outcome, error) {
	var outcomes []*cad.Outcome
	for _, kind := range cfg.SelectedKinds() {
		out, err := runner.Diff(kind, cfg.NewDir, cfg.OldDir)
		if err != nil {
			return nil, fmt.Errorf("%s diff: %w", kind, err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func runTuiMode(runner *cad.Runner, cfg config.Config) error {
	m := tui.InitialModel(runner.Source(), func() ([]*cad.Outcome, error) {
		return diffAll(runner, cfg)
	})
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// runWatchMode writes the reports once, then again for each kind whose
// export changes, until interrupted.
func runWatchMode(runner *cad.Runner, cfg config.Config, logger *zap.Logger) error {
	if err := runReportMode(runner, cfg); err != nil {
		logger.Error("initial run failed", zap.Error(err))
	}

	w, err := watch.New([]string{cfg.NewDir, cfg.OldDir}, cfg.RunnerOptions(), cfg.SelectedKinds(), logger)
	if err != nil {
		return err
	}
	w.Start()
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %s and %s (Ctrl+C to stop)\n", cfg.NewDir, cfg.OldDir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-w.Changes:
			if !ok {
				return nil
			}
			logger.Info("snapshot changed, re-running", zap.String("kind", string(change.Kind)), zap.String("file", change.File))
			out, err := runner.Run(change.Kind, cfg.NewDir, cfg.OldDir)
			if err != nil {
				logger.Error("re-run failed", zap.String("kind", string(change.Kind)), zap.Error(err))
				continue
			}
			fmt.Printf("Report saved to %s\n", out.ReportPath)
		}
	}
}
