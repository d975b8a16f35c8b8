package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/csvavg/pkg/errors"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CSVAVG"

// flagKeys maps CLI flag names onto configuration keys. A flag may feed
// more than one key.
var flagKeys = map[string][]string{
	"input":        {"input.path"},
	"output":       {"output.path"},
	"column":       {"transform.column"},
	"field":        {"transform.field"},
	"delimiter":    {"input.delimiter", "output.delimiter"},
	"precision":    {"output.precision"},
	"compression":  {"output.compression"},
	"log-level":    {"logging.level"},
	"log-format":   {"logging.format"},
	"metrics-file": {"observability.metrics_file"},
	"trace":        {"observability.enable_tracing"},
	"trace-file":   {"observability.trace_file"},
	"report":       {"report.path"},
	"timeout":      {"timeout"},
}

// BindFlags binds the known flags present in flags to their configuration keys.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, keys := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		for _, key := range keys {
			if err := v.BindPFlag(key, f); err != nil {
				return errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to bind flag %s", name))
			}
		}
	}
	return nil
}

// Load builds a Config from defaults, the optional file at path, the
// environment and any flags already bound to v, then validates it.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
		if err != nil {
			return nil, errors.Wrap(errors.FromFileError(err, "read", path), errors.ErrorTypeConfig, "failed to read config file")
		}

		v.SetConfigType(configType(path))
		if err := v.ReadConfig(strings.NewReader(substituteEnvVars(string(data)))); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse config file").
				WithDetail("path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to decode configuration")
	}

	cfg.Input.Delimiter = NormalizeDelimiter(cfg.Input.Delimiter)
	cfg.Output.Delimiter = NormalizeDelimiter(cfg.Output.Delimiter)
	if len(cfg.Logging.OutputPaths) == 0 {
		cfg.Logging.OutputPaths = nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a configuration to a YAML file
func Save(filePath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return errors.FromFileError(err, "write", filePath)
	}

	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("input.path", d.Input.Path)
	v.SetDefault("input.delimiter", d.Input.Delimiter)
	v.SetDefault("input.comment", d.Input.Comment)
	v.SetDefault("input.trim_leading_space", d.Input.TrimLeadingSpace)
	v.SetDefault("input.lazy_quotes", d.Input.LazyQuotes)
	v.SetDefault("input.compression", d.Input.Compression)

	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("output.delimiter", d.Output.Delimiter)
	v.SetDefault("output.precision", d.Output.Precision)
	v.SetDefault("output.use_crlf", d.Output.UseCRLF)
	v.SetDefault("output.compression", d.Output.Compression)
	v.SetDefault("output.compression_level", d.Output.CompressionLevel)

	v.SetDefault("transform.column", d.Transform.Column)
	v.SetDefault("transform.field", d.Transform.Field)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("logging.output_paths", []string{})

	v.SetDefault("observability.metrics_file", d.Observability.MetricsFile)
	v.SetDefault("observability.enable_tracing", d.Observability.EnableTracing)
	v.SetDefault("observability.trace_file", d.Observability.TraceFile)

	v.SetDefault("report.path", d.Report.Path)
	v.SetDefault("timeout", d.Timeout)
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}

// NormalizeDelimiter maps the shell-friendly spellings of a tab to a tab.
func NormalizeDelimiter(d string) string {
	switch d {
	case `\t`, "tab", "TAB":
		return "\t"
	default:
		return d
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
