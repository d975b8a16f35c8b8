// Package pipeline runs the three stages of a csvavg job: read the input
// file, add the average field, write the output file. The stages run in
// order and the first failure stops the run, so nothing is written after a
// read or transform error.
//
// # Basic Usage
//
//	p := pipeline.New(source, transformer, destination, pipeline.Options{
//	    Logger:  logger,
//	    Metrics: collector,
//	    Tracer:  observability.NewStageTracer(tp),
//	})
//	result, err := p.Run(ctx)
package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/csvavg/pkg/logger"
	"github.com/ajitpratap0/csvavg/pkg/metrics"
	"github.com/ajitpratap0/csvavg/pkg/models"
	"github.com/ajitpratap0/csvavg/pkg/observability"
)

// Stage names used for spans, metrics and logs.
const (
	StageRead      = "read"
	StageTransform = "transform"
	StageWrite     = "write"
)

// Source loads the input dataset.
type Source interface {
	Read(ctx context.Context) (*models.Dataset, error)
}

// Transformer derives the output dataset from the input one.
type Transformer interface {
	Apply(ctx context.Context, ds *models.Dataset) (*models.Dataset, error)
}

// Destination persists the output dataset.
type Destination interface {
	Write(ctx context.Context, ds *models.Dataset) error
}

// meanReporter is implemented by transformers that compute an average.
type meanReporter interface {
	Mean() float64
}

// Options carries the optional collaborators of a Pipeline.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Collector
	Tracer  *observability.StageTracer
}

// Result describes a successful run.
type Result struct {
	RowsRead    int
	RowsWritten int
	Average     float64
	HasAverage  bool
	Duration    time.Duration
	Stages      map[string]time.Duration
}

// Pipeline wires a source, a transformer and a destination.
type Pipeline struct {
	source      Source
	transformer Transformer
	destination Destination

	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  *observability.StageTracer
}

// New creates a pipeline. Missing options fall back to no-op logging and
// tracing and a private metrics collector.
func New(source Source, transformer Transformer, destination Destination, opts Options) *Pipeline {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}
	if opts.Tracer == nil {
		opts.Tracer = observability.NewStageTracer(nil)
	}
	return &Pipeline{
		source:      source,
		transformer: transformer,
		destination: destination,
		logger:      logger.OrNop(opts.Logger),
		metrics:     opts.Metrics,
		tracer:      opts.Tracer,
	}
}

// Metrics returns the collector the pipeline records into.
func (p *Pipeline) Metrics() *metrics.Collector {
	return p.metrics
}

// Run executes read, transform and write. On failure the returned Result is
// nil and the error is the failing stage's error, unchanged.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := logger.WithContext(logger.ContextWithComponent(ctx, "pipeline"), p.logger)

	ctx, span := p.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	result, err := p.run(ctx, log)
	observability.RecordResult(span, err)
	p.metrics.RecordRun(err)
	if err != nil {
		log.Debug("pipeline failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}

	result.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("rows.read", result.RowsRead),
		attribute.Int("rows.written", result.RowsWritten),
	)
	log.Info("pipeline completed",
		zap.Int("rows_read", result.RowsRead),
		zap.Int("rows_written", result.RowsWritten),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger) (*Result, error) {
	result := &Result{Stages: make(map[string]time.Duration, 3)}

	var input *models.Dataset
	err := p.stage(ctx, log, result, StageRead, func(ctx context.Context) error {
		ds, err := p.source.Read(ctx)
		input = ds
		return err
	})
	if err != nil {
		return nil, err
	}
	result.RowsRead = input.Len()
	p.metrics.AddRowsRead(result.RowsRead)

	var output *models.Dataset
	err = p.stage(ctx, log, result, StageTransform, func(ctx context.Context) error {
		ds, err := p.transformer.Apply(ctx, input)
		output = ds
		return err
	})
	if err != nil {
		return nil, err
	}
	if mr, ok := p.transformer.(meanReporter); ok {
		result.Average = mr.Mean()
		result.HasAverage = true
		p.metrics.SetAverage(result.Average)
	}

	err = p.stage(ctx, log, result, StageWrite, func(ctx context.Context) error {
		return p.destination.Write(ctx, output)
	})
	if err != nil {
		return nil, err
	}
	result.RowsWritten = output.Len()
	p.metrics.AddRowsWritten(result.RowsWritten)

	return result, nil
}

func (p *Pipeline) stage(ctx context.Context, log *zap.Logger, result *Result, name string, fn func(context.Context) error) error {
	timer := metrics.NewTimer(name)
	log.Debug("stage started", zap.String("stage", name))

	err := p.tracer.Trace(ctx, name, fn)

	elapsed := timer.Stop()
	result.Stages[name] = elapsed
	p.metrics.ObserveStage(name, elapsed)
	if err != nil {
		log.Debug("stage failed", zap.String("stage", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return err
	}
	log.Debug("stage finished", zap.String("stage", name), zap.Duration("elapsed", elapsed))
	return nil
}
