package cad

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"caddiff/internal/model"
)

// Default labels and file names.
const (
	DefaultNewLabel    = "CAD_new"
	DefaultOldLabel    = "CAD_old"
	DefaultNailsInput  = "Nails.asc"
	DefaultPartsInput  = "Parts.asc"
	DefaultNailsReport = "Diff_Nails_report.txt"
	DefaultPartsReport = "Diff_Parts_report.txt"
)

// KindOptions configures one kind's orchestration.
type KindOptions struct {
	Input        string  // export file name inside each snapshot directory
	Output       string  // report file, relative to Options.OutputDir unless absolute
	ThresholdMil float64 // shift tolerance in mil
}

// Options configures a Runner.
type Options struct {
	NewLabel        string
	OldLabel        string
	Nails           KindOptions
	Parts           KindOptions
	RotationEpsilon float64
	OutputDir       string
	Encoding        string
}

// DefaultOptions returns the stock labels, file names and thresholds.
func DefaultOptions() Options {
	return Options{
		NewLabel:        DefaultNewLabel,
		OldLabel:        DefaultOldLabel,
		Nails:           KindOptions{Input: DefaultNailsInput, Output: DefaultNailsReport, ThresholdMil: DefaultThresholdMil},
		Parts:           KindOptions{Input: DefaultPartsInput, Output: DefaultPartsReport, ThresholdMil: DefaultThresholdMil},
		RotationEpsilon: DefaultRotationEpsilon,
		OutputDir:       ".",
		Encoding:        DefaultEncoding,
	}
}

// ForKind returns the options for kind.
func (o Options) ForKind(kind Kind) (KindOptions, error) {
	switch kind {
	case Nails:
		return o.Nails, nil
	case Parts:
		return o.Parts, nil
	}
	return KindOptions{}, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
}

// Runner drives parse, diff and render for one kind at a time. Runs share no
// state, so nails and parts may be run in either order.
type Runner struct {
	fs   afero.Fs
	src  *Source
	opts Options
	log  *zap.Logger
	now  func() time.Time
}

// NewRunner returns a Runner that reads snapshots from and writes reports to fsys.
func NewRunner(fsys afero.Fs, opts Options, logger *zap.Logger) (*Runner, error) {
	src, err := NewSource(fsys, opts.Encoding)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		fs:   fsys,
		src:  src,
		opts: opts,
		log:  logger,
		now:  time.Now,
	}, nil
}

// Source returns the decoding reader the Runner parses snapshots with.
func (r *Runner) Source() *Source {
	return r.src
}

// ReportPath returns where Run writes the report for kind.
func (r *Runner) ReportPath(kind Kind) (string, error) {
	ko, err := r.opts.ForKind(kind)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(ko.Output) || r.opts.OutputDir == "" {
		return ko.Output, nil
	}
	return filepath.Join(r.opts.OutputDir, ko.Output), nil
}

// Diff parses the kind's export in both snapshot directories and classifies
// newDir against oldDir. Nothing is written.
func (r *Runner) Diff(kind Kind, newDir, oldDir string) (*Outcome, error) {
	ko, err := r.opts.ForKind(kind)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Info: ReportInfo{
			Kind:            kind,
			NewLabel:        r.opts.NewLabel,
			OldLabel:        r.opts.OldLabel,
			NewDir:          newDir,
			OldDir:          oldDir,
			ThresholdMil:    ko.ThresholdMil,
			RotationEpsilon: r.opts.RotationEpsilon,
			GeneratedAt:     r.now(),
		},
		NewFile: r.src.Path(newDir, ko.Input),
		OldFile: r.src.Path(oldDir, ko.Input),
	}

	switch kind {
	case Nails:
		newRecs, oldRecs, err := parsePair(r, out, ko.Input, ParseNails)
		if err != nil {
			return nil, err
		}
		res := NewNailDiffer().Diff(newRecs, oldRecs)
		out.Nails = &res
	case Parts:
		newRecs, oldRecs, err := parsePair(r, out, ko.Input, ParseParts)
		if err != nil {
			return nil, err
		}
		res := NewPartDiffer(ko.ThresholdMil, r.opts.RotationEpsilon).Diff(newRecs, oldRecs)
		out.Parts = &res
	}

	c := out.Counts()
	r.log.Info("classified snapshots",
		zap.String("kind", string(kind)),
		zap.Int("shifted", c.Shifted),
		zap.Int("deleted", c.Deleted),
		zap.Int("added", c.Added),
		zap.Int("unchanged", c.Unchanged),
	)
	return out, nil
}

// Run diffs kind and writes the text report, replacing any previous file.
// The report is rendered in full before the file is touched, so a failed
// parse never leaves a report behind that looks like "no differences".
func (r *Runner) Run(kind Kind, newDir, oldDir string) (*Outcome, error) {
	out, err := r.Diff(kind, newDir, oldDir)
	if err != nil {
		return nil, fmt.Errorf("%s diff: %w", kind, err)
	}

	path, err := r.ReportPath(kind)
	if err != nil {
		return nil, err
	}
	report := out.Render()
	if dir := filepath.Dir(path); dir != "." {
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create report directory %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(r.fs, path, []byte(report), 0o644); err != nil {
		return nil, fmt.Errorf("write %s report: %w", kind, err)
	}
	out.ReportPath = path

	r.log.Info("report written",
		zap.String("kind", string(kind)),
		zap.String("path", path),
		zap.Int("bytes", len(report)),
	)
	return out, nil
}

// parsePair parses the new then the old export; both must succeed before
// the caller diffs them.
func parsePair[R model.Record](r *Runner, out *Outcome, name string, parse func(io.Reader) ([]R, ParseStats, error)) (newRecs, oldRecs []R, err error) {
	newRecs, out.NewStats, err = parseSnapshot(r, out.Info.NewDir, name, parse)
	if err != nil {
		return nil, nil, err
	}
	oldRecs, out.OldStats, err = parseSnapshot(r, out.Info.OldDir, name, parse)
	if err != nil {
		return nil, nil, err
	}
	return newRecs, oldRecs, nil
}

func parseSnapshot[R model.Record](r *Runner, dir, name string, parse func(io.Reader) ([]R, ParseStats, error)) ([]R, ParseStats, error) {
	path := r.src.Path(dir, name)
	f, err := r.src.Open(dir, name)
	if err != nil {
		return nil, ParseStats{}, err
	}
	defer f.Close()

	recs, stats, err := parse(f)
	if err != nil {
		return nil, stats, fmt.Errorf("read %s: %w", path, err)
	}

	r.log.Debug("parsed snapshot",
		zap.String("path", path),
		zap.String("encoding", r.src.Encoding()),
		zap.Int("records", stats.Records),
		zap.Int("skipped", stats.Skipped),
	)
	if stats.Duplicates > 0 {
		r.log.Warn("duplicate keys in snapshot, later records replace earlier ones",
			zap.String("path", path),
			zap.Int("duplicates", stats.Duplicates),
		)
	}
	return recs, stats, nil
}
