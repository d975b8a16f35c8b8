package config

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/ajitpratap0/csvavg/pkg/errors"
)

// Default values for the reference workflow.
const (
	DefaultInputPath    = "input.csv"
	DefaultOutputPath   = "output.csv"
	DefaultColumn       = "score"
	DefaultAverageField = "average"
	DefaultDelimiter    = ","
	DefaultTimeout      = 5 * time.Minute
)

// Config is the single configuration structure for a csvavg run.
type Config struct {
	// Input controls how the source file is read
	Input InputConfig `yaml:"input" json:"input" mapstructure:"input"`

	// Output controls how the destination file is written
	Output OutputConfig `yaml:"output" json:"output" mapstructure:"output"`

	// Transform selects the column to average and the field to add
	Transform TransformConfig `yaml:"transform" json:"transform" mapstructure:"transform"`

	// Logging configures the zap logger
	Logging LoggingConfig `yaml:"logging" json:"logging" mapstructure:"logging"`

	// Observability configures metrics export and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`

	// Report configures the JSON run summary
	Report ReportConfig `yaml:"report" json:"report" mapstructure:"report"`

	// Timeout bounds the whole run
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout" validate:"gt=0"`
}

// InputConfig describes the source CSV file and its dialect.
type InputConfig struct {
	Path             string `yaml:"path" json:"path" mapstructure:"path" validate:"required"`
	Delimiter        string `yaml:"delimiter" json:"delimiter" mapstructure:"delimiter" validate:"len=1"`
	Comment          string `yaml:"comment" json:"comment" mapstructure:"comment" validate:"omitempty,len=1"`
	TrimLeadingSpace bool   `yaml:"trim_leading_space" json:"trim_leading_space" mapstructure:"trim_leading_space"`
	LazyQuotes       bool   `yaml:"lazy_quotes" json:"lazy_quotes" mapstructure:"lazy_quotes"`
	// Compression is one of auto, none, gzip, zstd, lz4, snappy
	Compression string `yaml:"compression" json:"compression" mapstructure:"compression" validate:"oneof=auto none gzip zstd lz4 snappy"`
}

// OutputConfig describes the destination CSV file.
type OutputConfig struct {
	Path      string `yaml:"path" json:"path" mapstructure:"path" validate:"required"`
	Delimiter string `yaml:"delimiter" json:"delimiter" mapstructure:"delimiter" validate:"len=1"`
	// Precision fixes the number of decimals for float values; -1 keeps the
	// shortest round-trip form
	Precision        int    `yaml:"precision" json:"precision" mapstructure:"precision" validate:"gte=-1,lte=17"`
	UseCRLF          bool   `yaml:"use_crlf" json:"use_crlf" mapstructure:"use_crlf"`
	Compression      string `yaml:"compression" json:"compression" mapstructure:"compression" validate:"oneof=auto none gzip zstd lz4 snappy"`
	CompressionLevel int    `yaml:"compression_level" json:"compression_level" mapstructure:"compression_level" validate:"gte=1,lte=9"`
}

// TransformConfig selects the averaged column and the added field.
type TransformConfig struct {
	Column string `yaml:"column" json:"column" mapstructure:"column" validate:"required"`
	Field  string `yaml:"field" json:"field" mapstructure:"field" validate:"required"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string   `yaml:"level" json:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format      string   `yaml:"format" json:"format" mapstructure:"format" validate:"oneof=json console"`
	Development bool     `yaml:"development" json:"development" mapstructure:"development"`
	OutputPaths []string `yaml:"output_paths" json:"output_paths" mapstructure:"output_paths"`
}

// ObservabilityConfig configures metrics export and tracing.
type ObservabilityConfig struct {
	// MetricsFile receives the Prometheus text exposition after the run
	MetricsFile string `yaml:"metrics_file" json:"metrics_file" mapstructure:"metrics_file"`
	// EnableTracing exports pipeline spans
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	// TraceFile receives spans as JSON lines; stderr when empty
	TraceFile string `yaml:"trace_file" json:"trace_file" mapstructure:"trace_file"`
}

// ReportConfig configures the JSON run summary.
type ReportConfig struct {
	Path string `yaml:"path" json:"path" mapstructure:"path"`
}

// Default returns the configuration used when nothing overrides it:
// average the score column of input.csv into output.csv.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path:        DefaultInputPath,
			Delimiter:   DefaultDelimiter,
			Compression: "auto",
		},
		Output: OutputConfig{
			Path:             DefaultOutputPath,
			Delimiter:        DefaultDelimiter,
			Precision:        -1,
			Compression:      "auto",
			CompressionLevel: 5,
		},
		Transform: TransformConfig{
			Column: DefaultColumn,
			Field:  DefaultAverageField,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Timeout: DefaultTimeout,
	}
}

// Validate checks the configuration with struct tags plus the rules tags
// cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "invalid configuration")
	}

	for name, d := range map[string]string{
		"input.delimiter":  c.Input.Delimiter,
		"output.delimiter": c.Output.Delimiter,
	} {
		if !validDelimiter(d) {
			return errors.New(errors.ErrorTypeValidation, fmt.Sprintf("%s %q is not a valid CSV delimiter", name, d)).
				WithDetail("key", name)
		}
	}

	if c.Input.Comment != "" && c.Input.Comment == c.Input.Delimiter {
		return errors.New(errors.ErrorTypeValidation, "input.comment must differ from input.delimiter")
	}

	if c.Transform.Field == c.Transform.Column {
		return errors.New(errors.ErrorTypeValidation, "transform.field must differ from transform.column").
			WithDetail("column", c.Transform.Column)
	}

	return nil
}

// Rune returns the single rune of a validated delimiter or comment string,
// or 0 for the empty string.
func Rune(s string) rune {
	if s == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// ValidateDelimiter reports whether d can separate CSV fields.
func ValidateDelimiter(d string) error {
	if utf8.RuneCountInString(d) != 1 || !validDelimiter(d) {
		return errors.New(errors.ErrorTypeValidation, fmt.Sprintf("%q is not a valid CSV delimiter", d))
	}
	return nil
}

func validDelimiter(s string) bool {
	r := Rune(s)
	return r != 0 && r != '"' && r != '\r' && r != '\n' && r != utf8.RuneError
}
