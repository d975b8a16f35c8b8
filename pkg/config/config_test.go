package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/csvavg/pkg/errors"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "input.csv", cfg.Input.Path)
	assert.Equal(t, "output.csv", cfg.Output.Path)
	assert.Equal(t, "score", cfg.Transform.Column)
	assert.Equal(t, "average", cfg.Transform.Field)
	assert.Equal(t, -1, cfg.Output.Precision)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"empty input path", func(c *Config) { c.Input.Path = "" }},
		{"empty column", func(c *Config) { c.Transform.Column = "" }},
		{"multi-char delimiter", func(c *Config) { c.Input.Delimiter = ";;" }},
		{"quote delimiter", func(c *Config) { c.Output.Delimiter = `"` }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad compression", func(c *Config) { c.Output.Compression = "brotli" }},
		{"precision too large", func(c *Config) { c.Output.Precision = 30 }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"field equals column", func(c *Config) { c.Transform.Field = "score" }},
		{"comment equals delimiter", func(c *Config) { c.Input.Comment = "," }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		})
	}
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileWithEnvSubstitution(t *testing.T) {
	t.Setenv("CSVAVG_TEST_DIR", "/data")
	path := filepath.Join(t.TempDir(), "csvavg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input:
  path: ${CSVAVG_TEST_DIR}/scores.csv
  delimiter: "\t"
transform:
  column: points
timeout: 30s
`), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "/data/scores.csv", cfg.Input.Path)
	assert.Equal(t, "\t", cfg.Input.Delimiter)
	assert.Equal(t, "points", cfg.Transform.Column)
	assert.Equal(t, "average", cfg.Transform.Field)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csvavg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"transform": {"column": "points"}}`), 0o644))
	t.Setenv("CSVAVG_TRANSFORM_COLUMN", "grade")
	t.Setenv("CSVAVG_OUTPUT_PRECISION", "2")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "grade", cfg.Transform.Column)
	assert.Equal(t, 2, cfg.Output.Precision)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("CSVAVG_TRANSFORM_COLUMN", "grade")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("column", DefaultColumn, "")
	flags.String("delimiter", DefaultDelimiter, "")
	require.NoError(t, flags.Parse([]string{"--column", "points", "--delimiter", `\t`}))

	v := viper.New()
	require.NoError(t, BindFlags(v, flags))

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "points", cfg.Transform.Column)
	assert.Equal(t, "\t", cfg.Input.Delimiter)
	assert.Equal(t, "\t", cfg.Output.Delimiter)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("CSVAVG_LOGGING_LEVEL", "chatty")
	_, err := Load(viper.New(), "")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := Default()
	cfg.Input.Path = "in.csv.gz"
	cfg.Output.Precision = 3
	cfg.Report.Path = "report.json"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestRune(t *testing.T) {
	assert.Equal(t, ',', Rune(","))
	assert.Equal(t, '\t', Rune("\t"))
	assert.Equal(t, rune(0), Rune(""))
}
