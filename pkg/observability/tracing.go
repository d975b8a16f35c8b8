// Package observability wires OpenTelemetry tracing for a pipeline run.
// Spans are exported as JSON lines to a writer; when tracing is disabled a
// no-op provider is returned so callers never branch on it.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ajitpratap0/csvavg/pkg/errors"
)

// TracerName identifies spans produced by this module.
const TracerName = "github.com/ajitpratap0/csvavg"

// TracingConfig contains tracing configuration
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	// Writer receives exported spans; defaults to stderr
	Writer io.Writer
}

// ShutdownFunc flushes and stops a tracer provider.
type ShutdownFunc func(context.Context) error

// NewTracerProvider builds a provider for cfg. The returned ShutdownFunc must
// be called to flush buffered spans.
func NewTracerProvider(ctx context.Context, cfg TracingConfig) (trace.TracerProvider, ShutdownFunc, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create stdout exporter")
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
	)
	return tp, tp.Shutdown, nil
}

// StageTracer records one span per pipeline stage.
type StageTracer struct {
	tracer trace.Tracer
}

// NewStageTracer creates a stage tracer; a nil provider yields no-op spans.
func NewStageTracer(tp trace.TracerProvider) *StageTracer {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &StageTracer{tracer: tp.Tracer(TracerName)}
}

// Start opens a span named stage. Callers must End it.
func (st *StageTracer) Start(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := st.tracer.Start(ctx, stage)
	span.SetAttributes(attribute.String("pipeline.stage", stage))
	span.SetAttributes(attrs...)
	return ctx, span
}

// Trace runs fn inside a span for stage and records its outcome.
func (st *StageTracer) Trace(ctx context.Context, stage string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := st.Start(ctx, stage, attrs...)
	defer span.End()

	err := fn(ctx)
	RecordResult(span, err)
	return err
}

// RecordResult marks span as failed with the error type, or as Ok.
func RecordResult(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", string(errors.TypeOf(err))))
	span.SetStatus(codes.Error, err.Error())
}

// OpenTraceFile opens path for appending exported spans.
func OpenTraceFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // operator-provided path
	if err != nil {
		return nil, errors.FromFileError(err, "open", path)
	}
	return f, nil
}

// Describe formats a provider for logs.
func Describe(tp trace.TracerProvider) string {
	switch tp.(type) {
	case *sdktrace.TracerProvider:
		return "stdout"
	default:
		return fmt.Sprintf("%T", tp)
	}
}
