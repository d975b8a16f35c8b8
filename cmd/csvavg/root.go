package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajitpratap0/csvavg/pkg/compression"
	"github.com/ajitpratap0/csvavg/pkg/config"
	csvsource "github.com/ajitpratap0/csvavg/pkg/connector/sources/csv"
	"github.com/ajitpratap0/csvavg/pkg/errors"
	"github.com/ajitpratap0/csvavg/pkg/logger"
)

// newRootCmd builds the command tree writing to the given streams.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "csvavg",
		Short: "Add the average of a CSV column to every row",
		Long: `csvavg reads a CSV file, computes the arithmetic mean of one numeric
column and writes the rows back out with the mean appended as a new field.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(newRunCmd(), newInspectCmd(), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute the column average and write the augmented file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return runAverage(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	d := config.Default()
	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "", "", "Path to a YAML or JSON configuration file")
	flags.StringP("input", "i", d.Input.Path, "Input CSV file")
	flags.StringP("output", "o", d.Output.Path, "Output CSV file")
	flags.StringP("column", "c", d.Transform.Column, "Numeric column to average")
	flags.String("field", d.Transform.Field, "Name of the field holding the average")
	flags.String("delimiter", d.Input.Delimiter, `Field delimiter for input and output ("\t" for tab)`)
	flags.Int("precision", d.Output.Precision, "Decimal places for the average (-1 for shortest form)")
	flags.String("compression", d.Output.Compression, "Output compression (auto, none, gzip, zstd, lz4, snappy)")
	flags.String("log-level", d.Logging.Level, "Log level (debug, info, warn, error)")
	flags.String("log-format", d.Logging.Format, "Log format (json, console)")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file after the run")
	flags.Bool("trace", false, "Export pipeline spans")
	flags.String("trace-file", "", "File receiving exported spans (default stderr)")
	flags.String("report", "", "Write a JSON run report to this file")
	flags.Duration("timeout", d.Timeout, "Abort the run after this long")

	return cmd
}

func newInspectCmd() *cobra.Command {
	var delimiter string

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the header and inferred column types of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delimiter = config.NormalizeDelimiter(delimiter)
			if err := config.ValidateDelimiter(delimiter); err != nil {
				return err
			}
			src := csvsource.NewCSVSource(csvsource.Options{
				Path:        args[0],
				Delimiter:   config.Rune(delimiter),
				Compression: compression.Auto,
			}, logger.OrNop(nil))

			schema, err := src.DiscoverSchema(cmd.Context())
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode schema")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	cmd.Flags().StringVar(&delimiter, "delimiter", config.DefaultDelimiter, "Field delimiter")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "csvavg v%s\n", version)
			_, _ = fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			_, _ = fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
