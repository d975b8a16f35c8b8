package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvavg/internal/pipeline"
	"github.com/ajitpratap0/csvavg/pkg/config"
	csvdest "github.com/ajitpratap0/csvavg/pkg/connector/destinations/csv"
	csvsource "github.com/ajitpratap0/csvavg/pkg/connector/sources/csv"
	"github.com/ajitpratap0/csvavg/pkg/logger"
	"github.com/ajitpratap0/csvavg/pkg/metrics"
	"github.com/ajitpratap0/csvavg/pkg/observability"
	"github.com/ajitpratap0/csvavg/pkg/report"
	"github.com/ajitpratap0/csvavg/pkg/transform"
)

// runAverage executes one pipeline run for cfg. Side outputs (metrics,
// report, spans) are written whether or not the run succeeds.
func runAverage(parent context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}

	log, err := logger.New(loggerConfig(cfg.Logging))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	rep := report.New("")
	rep.Input = cfg.Input.Path
	rep.Output = cfg.Output.Path
	rep.Column = cfg.Transform.Column
	rep.Field = cfg.Transform.Field

	ctx, cancel := context.WithTimeout(parent, cfg.Timeout)
	defer cancel()
	ctx = logger.ContextWithRunID(ctx, rep.RunID)

	traceWriter := stderr
	if cfg.Observability.EnableTracing && cfg.Observability.TraceFile != "" {
		f, err := observability.OpenTraceFile(cfg.Observability.TraceFile)
		if err != nil {
			return err
		}
		defer f.Close()
		traceWriter = f
	}
	tp, shutdown, err := observability.NewTracerProvider(ctx, observability.TracingConfig{
		Enabled:        cfg.Observability.EnableTracing,
		ServiceName:    "csvavg",
		ServiceVersion: version,
		Writer:         traceWriter,
	})
	if err != nil {
		return err
	}
	defer func() {
		// the run context may already be expired
		if err := shutdown(context.Background()); err != nil {
			log.Warn("failed to flush spans", zap.Error(err))
		}
	}()

	srcOpts, err := csvsource.OptionsFromConfig(cfg.Input)
	if err != nil {
		return err
	}
	dstOpts, err := csvdest.OptionsFromConfig(cfg.Output)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	p := pipeline.New(
		csvsource.NewCSVSource(srcOpts, log),
		transform.NewTransformer(cfg.Transform.Column, cfg.Transform.Field, log),
		csvdest.NewCSVDestination(dstOpts, log),
		pipeline.Options{
			Logger:  log,
			Metrics: collector,
			Tracer:  observability.NewStageTracer(tp),
		},
	)

	log.Info("starting run",
		zap.String("input", cfg.Input.Path),
		zap.String("output", cfg.Output.Path),
		zap.String("column", cfg.Transform.Column),
		zap.String("tracing", observability.Describe(tp)))

	result, runErr := p.Run(ctx)
	if result != nil {
		rep.RowsRead = result.RowsRead
		rep.RowsWritten = result.RowsWritten
		if result.HasAverage {
			rep.SetAverage(result.Average)
		}
	}
	rep.Finish(runErr)

	if path := cfg.Report.Path; path != "" {
		if err := rep.Write(path); err != nil {
			log.Warn("failed to write run report", zap.String("path", path), zap.Error(err))
		}
	}
	if path := cfg.Observability.MetricsFile; path != "" {
		if err := collector.WriteTextfile(path); err != nil {
			log.Warn("failed to write metrics file", zap.String("path", path), zap.Error(err))
		}
	}

	if runErr != nil {
		log.Error("run failed", zap.Error(runErr))
		return runErr
	}

	_, err = fmt.Fprintf(stdout, "Data written successfully to %s\n", cfg.Output.Path)
	return err
}

// loggerConfig overlays the logging section onto the logger defaults.
func loggerConfig(c config.LoggingConfig) logger.Config {
	lc := logger.DefaultConfig()
	if c.Level != "" {
		lc.Level = c.Level
	}
	if c.Format != "" {
		lc.Encoding = c.Format
	}
	lc.Development = c.Development
	lc.OutputPaths = c.OutputPaths
	return lc
}
