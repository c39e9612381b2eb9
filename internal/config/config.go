package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"caddiff/internal/cad"
	"caddiff/internal/model"
)

// ErrNoSnapshots means the new or old snapshot directory was not given.
var ErrNoSnapshots = errors.New("new and old snapshot directories are required")

// EnvPrefix prefixes every environment override, e.g. CADDIFF_NAILS_THRESHOLD_MIL.
const EnvPrefix = "CADDIFF"

// KindConfig holds per-kind file names and tolerance.
type KindConfig struct {
	Input        string  `mapstructure:"input"`
	Output       string  `mapstructure:"output"`
	ThresholdMil float64 `mapstructure:"threshold_mil"`
}

// PartsConfig adds the rotation tolerance parts are compared with.
type PartsConfig struct {
	KindConfig      `mapstructure:",squash"`
	RotationEpsilon float64 `mapstructure:"rotation_epsilon"`
}

// LogConfig selects logger level, encoding and destination.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Config holds all runtime configuration for a caddiff run.
// Values are populated from .caddiff.{toml,yaml}, CADDIFF_* env vars, and CLI flags.
type Config struct {
	NewDir    string      `mapstructure:"new_dir"`
	OldDir    string      `mapstructure:"old_dir"`
	NewLabel  string      `mapstructure:"new_label"`
	OldLabel  string      `mapstructure:"old_label"`
	Kinds     []string    `mapstructure:"kinds"`
	Nails     KindConfig  `mapstructure:"nails"`
	Parts     PartsConfig `mapstructure:"parts"`
	OutputDir string      `mapstructure:"output_dir"`
	Encoding  string      `mapstructure:"encoding"`
	Format    string      `mapstructure:"format"`
	Log       LogConfig   `mapstructure:"log"`
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"new":             "new_dir",
	"old":             "old_dir",
	"new-label":       "new_label",
	"old-label":       "old_label",
	"kind":            "kinds",
	"nails-threshold": "nails.threshold_mil",
	"parts-threshold": "parts.threshold_mil",
	"nails-output":    "nails.output",
	"parts-output":    "parts.output",
	"output-dir":      "output_dir",
	"encoding":        "encoding",
	"format":          "format",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"log-file":        "log.file",
}

// RegisterFlags declares the configuration flags on fs. Flag defaults match
// SetDefaults; only flags the user changed override file and env values.
func RegisterFlags(fs *pflag.FlagSet) {
	def := cad.DefaultOptions()
	fs.StringP("new", "n", "", "Directory holding the new CAD export")
	fs.StringP("old", "b", "", "Directory holding the old (base) CAD export")
	fs.String("new-label", def.NewLabel, "Label printed for the new version")
	fs.String("old-label", def.OldLabel, "Label printed for the old version")
	fs.StringSliceP("kind", "k", []string{string(cad.Nails), string(cad.Parts)}, "Kinds to diff: nails, parts or all")
	fs.Float64("nails-threshold", def.Nails.ThresholdMil, "Nails distance marker threshold in mil")
	fs.Float64("parts-threshold", def.Parts.ThresholdMil, "Parts shift threshold in mil")
	fs.String("nails-output", def.Nails.Output, "Nails report file name")
	fs.String("parts-output", def.Parts.Output, "Parts report file name")
	fs.StringP("output-dir", "o", def.OutputDir, "Directory reports are written to")
	fs.StringP("encoding", "e", def.Encoding, "Character encoding of the export files (e.g. utf-8, big5)")
	fs.StringP("format", "f", cad.FormatText, "Output format: text, json or toml")
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.String("log-format", "console", "Log encoding: console or json")
	fs.String("log-file", "", "Write logs to this file instead of stderr")
	fs.StringP("config", "c", "", "Config file (default .caddiff.{toml,yaml} in . or $HOME)")
}

// SetDefaults registers built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	def := cad.DefaultOptions()
	v.SetDefault("new_dir", "")
	v.SetDefault("old_dir", "")
	v.SetDefault("new_label", def.NewLabel)
	v.SetDefault("old_label", def.OldLabel)
	v.SetDefault("kinds", []string{string(cad.Nails), string(cad.Parts)})
	v.SetDefault("nails.input", def.Nails.Input)
	v.SetDefault("nails.output", def.Nails.Output)
	v.SetDefault("nails.threshold_mil", def.Nails.ThresholdMil)
	v.SetDefault("parts.input", def.Parts.Input)
	v.SetDefault("parts.output", def.Parts.Output)
	v.SetDefault("parts.threshold_mil", def.Parts.ThresholdMil)
	v.SetDefault("parts.rotation_epsilon", def.RotationEpsilon)
	v.SetDefault("output_dir", def.OutputDir)
	v.SetDefault("encoding", def.Encoding)
	v.SetDefault("format", cad.FormatText)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
}

// Load reads configuration into v, layering defaults, the config file,
// CADDIFF_* env vars and the flags in fs (when non-nil). Positional
// arguments left in fs fill new_dir and old_dir when those are unset.
func Load(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfgFile string
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if fs.Lookup("config") != nil {
			name, err := fs.GetString("config")
			if err != nil {
				return Config{}, fmt.Errorf("config flag: %w", err)
			}
			cfgFile = name
		}
	}

	if err := readConfigFile(v, cfgFile); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if fs != nil {
		args := fs.Args()
		if cfg.NewDir == "" && len(args) > 0 {
			cfg.NewDir = args[0]
		}
		if cfg.OldDir == "" && len(args) > 1 {
			cfg.OldDir = args[1]
		}
	}
	cfg.NewDir = model.ExpandTilde(cfg.NewDir)
	cfg.OldDir = model.ExpandTilde(cfg.OldDir)
	cfg.OutputDir = model.ExpandTilde(cfg.OutputDir)
	cfg.Format = strings.ToLower(cfg.Format)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(model.ExpandTilde(cfgFile))
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	v.SetConfigName(".caddiff")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	// It's fine if no config file is found; we use defaults.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Validate checks values that do not depend on the snapshot directories.
func (c Config) Validate() error {
	if c.NewLabel == "" || c.OldLabel == "" {
		return errors.New("version labels must not be empty")
	}
	if c.Nails.ThresholdMil < 0 || c.Parts.ThresholdMil < 0 {
		return errors.New("thresholds must not be negative")
	}
	if c.Parts.RotationEpsilon < 0 {
		return errors.New("rotation epsilon must not be negative")
	}
	if _, err := cad.ParseKinds(c.Kinds); err != nil {
		return err
	}
	switch c.Format {
	case cad.FormatText, cad.FormatJSON, cad.FormatTOML:
	default:
		return fmt.Errorf("unsupported format %q (want text, json or toml)", c.Format)
	}
	return nil
}

// RequireSnapshots reports ErrNoSnapshots unless both directories are set.
func (c Config) RequireSnapshots() error {
	if c.NewDir == "" || c.OldDir == "" {
		return ErrNoSnapshots
	}
	return nil
}

// SelectedKinds resolves Kinds; Validate has already accepted them.
func (c Config) SelectedKinds() []cad.Kind {
	kinds, _ := cad.ParseKinds(c.Kinds)
	return kinds
}

// RunnerOptions converts the config into options for cad.NewRunner.
func (c Config) RunnerOptions() cad.Options {
	return cad.Options{
		NewLabel: c.NewLabel,
		OldLabel: c.OldLabel,
		Nails: cad.KindOptions{
			Input:        c.Nails.Input,
			Output:       c.Nails.Output,
			ThresholdMil: c.Nails.ThresholdMil,
		},
		Parts: cad.KindOptions{
			Input:        c.Parts.Input,
			Output:       c.Parts.Output,
			ThresholdMil: c.Parts.ThresholdMil,
		},
		RotationEpsilon: c.Parts.RotationEpsilon,
		OutputDir:       c.OutputDir,
		Encoding:        c.Encoding,
	}
}
