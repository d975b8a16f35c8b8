// Package report produces the JSON summary of one pipeline run.
package report

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/ajitpratap0/csvavg/pkg/errors"
)

// Run status values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Report summarises a run.
type Report struct {
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	Input       string    `json:"input"`
	Output      string    `json:"output"`
	Column      string    `json:"column"`
	Field       string    `json:"field"`
	RowsRead    int       `json:"rows_read"`
	RowsWritten int       `json:"rows_written"`
	Average     *float64  `json:"average,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	DurationMS  int64     `json:"duration_ms"`
	Error       *Failure  `json:"error,omitempty"`
}

// Failure describes why a run failed.
type Failure struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// New starts a report with a fresh run ID. An empty runID generates one.
func New(runID string) *Report {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Report{
		RunID:     runID,
		Status:    StatusSuccess,
		StartedAt: time.Now().UTC(),
	}
}

// SetAverage records the computed mean.
func (r *Report) SetAverage(v float64) {
	r.Average = &v
}

// Finish stamps the duration and, when err is non-nil, the failure.
func (r *Report) Finish(err error) {
	r.DurationMS = time.Since(r.StartedAt).Milliseconds()
	if err == nil {
		r.Status = StatusSuccess
		r.Error = nil
		return
	}
	r.Status = StatusFailure

	msg := err.Error()
	var e *errors.Error
	if stderrors.As(err, &e) {
		msg = e.Message
	}
	r.Error = &Failure{Type: string(errors.TypeOf(err)), Message: msg}
}

// Marshal renders the report as indented JSON.
func (r *Report) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode run report")
	}
	return append(data, '\n'), nil
}

// Write stores the report at path, creating parent directories.
func (r *Report) Write(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.FromFileError(err, "mkdir", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // operator-provided path
		return errors.FromFileError(err, "write", path)
	}
	return nil
}

// Read loads a report written by Write.
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided path
	if err != nil {
		return nil, errors.FromFileError(err, "read", path)
	}
	r := &Report{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to decode run report").WithDetail("path", path)
	}
	return r, nil
}
