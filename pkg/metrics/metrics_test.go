package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/csvavg/pkg/errors"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()
	c.AddRowsRead(3)
	c.AddRowsRead(2)
	c.AddRowsWritten(5)
	c.SetAverage(15)

	assert.Equal(t, 5.0, testutil.ToFloat64(c.rowsRead))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.rowsWritten))
	assert.Equal(t, 15.0, testutil.ToFloat64(c.lastAverage))
}

func TestCollector_RecordRun(t *testing.T) {
	c := NewCollector()
	c.RecordRun(nil)
	c.RecordRun(errors.New(errors.ErrorTypeInvalidValue, "bad"))
	c.RecordRun(errors.New(errors.ErrorTypeInvalidValue, "bad again"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.runs.WithLabelValues(StatusFailure)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.errorsTotal.WithLabelValues("invalid_value")))
}

func TestCollector_Isolated(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	a.AddRowsRead(1)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.rowsRead))
}

func TestCollector_ObserveStage(t *testing.T) {
	c := NewCollector()
	c.ObserveStage("read", 20*time.Millisecond)
	c.ObserveStage("write", time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(c.stageDuration))
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := NewCollector()
	c.AddRowsRead(2)
	c.RecordRun(nil)

	path := filepath.Join(t.TempDir(), "csvavg.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "csvavg_rows_read_total 2")
	assert.Contains(t, string(data), `csvavg_pipeline_runs_total{status="success"} 1`)

	err = c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "csvavg.prom"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestTimer(t *testing.T) {
	timer := NewTimer("transform")
	time.Sleep(time.Millisecond)
	assert.Equal(t, "transform", timer.Name())
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
}
