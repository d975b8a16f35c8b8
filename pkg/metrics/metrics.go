// Package metrics records pipeline counters and stage latencies with
// Prometheus. Each Collector owns a private registry so that runs and tests
// never share state; the registry can be dumped in the textfile format for
// node_exporter's textfile collector.
//
// # Basic Usage
//
//	collector := metrics.NewCollector()
//	timer := metrics.NewTimer("read")
//	ds, err := src.Read(ctx)
//	collector.ObserveStage(timer.Name(), timer.Stop())
//	collector.AddRowsRead(ds.Len())
//	_ = collector.WriteTextfile("/var/lib/node_exporter/csvavg.prom")
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/csvavg/pkg/errors"
)

const namespace = "csvavg"

// Run status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Collector holds the metrics of one process.
type Collector struct {
	registry *prometheus.Registry

	rowsRead      prometheus.Counter
	rowsWritten   prometheus.Counter
	stageDuration *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastAverage   prometheus.Gauge
}

// NewCollector creates a collector registered on its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		rowsRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total number of data rows read from input files",
		}),
		rowsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Total number of data rows written to output files",
		}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"stage"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of failed runs by error type",
		}, []string{"error_type"}),
		lastAverage: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_average",
			Help:      "Average computed by the most recent successful run",
		}),
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// AddRowsRead counts rows read.
func (c *Collector) AddRowsRead(n int) {
	c.rowsRead.Add(float64(n))
}

// AddRowsWritten counts rows written.
func (c *Collector) AddRowsWritten(n int) {
	c.rowsWritten.Add(float64(n))
}

// ObserveStage records how long stage took.
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun counts a finished run. A non-nil err marks it failed and is
// counted under its error type.
func (c *Collector) RecordRun(err error) {
	if err != nil {
		c.runs.WithLabelValues(StatusFailure).Inc()
		c.errorsTotal.WithLabelValues(string(errors.TypeOf(err))).Inc()
		return
	}
	c.runs.WithLabelValues(StatusSuccess).Inc()
}

// SetAverage publishes the last computed average.
func (c *Collector) SetAverage(v float64) {
	c.lastAverage.Set(v)
}

// WriteTextfile dumps every metric in the Prometheus text format to path.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.FromFileError(err, "write", path)
	}
	return nil
}

// Timer measures the duration of a named stage.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the stage name given to NewTimer.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed time since creation. It can be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
