package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caddiff/internal/cad"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("caddiff", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), newFlags(t, "/cad/new", "/cad/old"))
	require.NoError(t, err)

	assert.Equal(t, "/cad/new", cfg.NewDir)
	assert.Equal(t, "/cad/old", cfg.OldDir)
	assert.Equal(t, cad.DefaultNewLabel, cfg.NewLabel)
	assert.Equal(t, cad.DefaultOldLabel, cfg.OldLabel)
	assert.Equal(t, []cad.Kind{cad.Nails, cad.Parts}, cfg.SelectedKinds())
	assert.Equal(t, 3.0, cfg.Nails.ThresholdMil)
	assert.Equal(t, 3.0, cfg.Parts.ThresholdMil)
	assert.Equal(t, cad.DefaultRotationEpsilon, cfg.Parts.RotationEpsilon)
	assert.Equal(t, "Nails.asc", cfg.Nails.Input)
	assert.Equal(t, "Diff_Parts_report.txt", cfg.Parts.Output)
	assert.Equal(t, "utf-8", cfg.Encoding)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.RequireSnapshots())
}

func TestLoad_RunnerOptionsMatchDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, cad.DefaultOptions(), cfg.RunnerOptions())
	assert.ErrorIs(t, cfg.RequireSnapshots(), ErrNoSnapshots)
}

func TestLoad_FlagsOverride(t *testing.T) {
	fs := newFlags(t,
		"--new", "/a", "--old", "/b",
		"--new-label", "REV_B", "--old-label", "REV_A",
		"--kind", "parts",
		"--parts-threshold", "1.5",
		"--output-dir", "/reports",
		"--format", "json",
	)
	cfg, err := Load(viper.New(), fs)
	require.NoError(t, err)

	assert.Equal(t, "/a", cfg.NewDir)
	assert.Equal(t, "/b", cfg.OldDir)
	assert.Equal(t, "REV_B", cfg.NewLabel)
	assert.Equal(t, []cad.Kind{cad.Parts}, cfg.SelectedKinds())
	assert.Equal(t, 1.5, cfg.Parts.ThresholdMil)
	assert.Equal(t, 3.0, cfg.Nails.ThresholdMil)
	assert.Equal(t, "/reports", cfg.OutputDir)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoad_ConfigFileAndEnv(t *testing.T) {
	path := writeConfig(t, "caddiff.toml", `
new_label = "FILE_NEW"
encoding = "big5"

[nails]
threshold_mil = 5.0

[parts]
rotation_epsilon = 0.5
output = "parts.txt"
`)
	t.Setenv("CADDIFF_NEW_LABEL", "ENV_NEW")
	t.Setenv("CADDIFF_PARTS_THRESHOLD_MIL", "7")

	cfg, err := Load(viper.New(), newFlags(t, "--config", path, "/n", "/o"))
	require.NoError(t, err)

	assert.Equal(t, "ENV_NEW", cfg.NewLabel, "env beats config file")
	assert.Equal(t, "big5", cfg.Encoding)
	assert.Equal(t, 5.0, cfg.Nails.ThresholdMil)
	assert.Equal(t, 7.0, cfg.Parts.ThresholdMil)
	assert.Equal(t, 0.5, cfg.Parts.RotationEpsilon)
	assert.Equal(t, "parts.txt", cfg.Parts.Output)
	assert.Equal(t, "Parts.asc", cfg.Parts.Input)

	opts := cfg.RunnerOptions()
	assert.Equal(t, 0.5, opts.RotationEpsilon)
	assert.Equal(t, 7.0, opts.Parts.ThresholdMil)
}

func TestLoad_FlagBeatsEnv(t *testing.T) {
	t.Setenv("CADDIFF_OLD_LABEL", "ENV_OLD")
	cfg, err := Load(viper.New(), newFlags(t, "--old-label", "FLAG_OLD"))
	require.NoError(t, err)
	assert.Equal(t, "FLAG_OLD", cfg.OldLabel)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown kind", []string{"--kind", "vias"}},
		{"unknown format", []string{"--format", "xml"}},
		{"negative threshold", []string{"--nails-threshold", "-1"}},
		{"empty label", []string{"--new-label", ""}},
		{"missing config file", []string{"--config", "/does/not/exist.toml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(viper.New(), newFlags(t, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestLoad_KindAll(t *testing.T) {
	cfg, err := Load(viper.New(), newFlags(t, "-k", "all"))
	require.NoError(t, err)
	assert.Equal(t, cad.AllKinds, cfg.SelectedKinds())
}

func TestLoad_ConfigFlag(t *testing.T) {
	t.Run("flag set without config flag", func(t *testing.T) {
		fs := pflag.NewFlagSet("embedded", pflag.ContinueOnError)
		fs.String("new", "", "")
		require.NoError(t, fs.Parse([]string{"--new", "/cad/new"}))

		cfg, err := Load(viper.New(), fs)
		require.NoError(t, err)
		assert.Equal(t, "/cad/new", cfg.NewDir)
	})

	t.Run("config flag of the wrong type", func(t *testing.T) {
		fs := pflag.NewFlagSet("embedded", pflag.ContinueOnError)
		fs.Int("config", 0, "")
		require.NoError(t, fs.Parse(nil))

		_, err := Load(viper.New(), fs)
		assert.ErrorContains(t, err, "config flag")
	})
}
