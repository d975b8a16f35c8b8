package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/csvavg/pkg/config"
	"github.com/ajitpratap0/csvavg/pkg/errors"
	"github.com/ajitpratap0/csvavg/pkg/logger"
	"github.com/ajitpratap0/csvavg/pkg/report"
	"github.com/ajitpratap0/csvavg/pkg/testutil"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRun_Success(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "input.csv", "name,score\na,10\nb,20\n")
	output := filepath.Join(dir, "output.csv")
	metricsFile := filepath.Join(dir, "csvavg.prom")
	reportFile := filepath.Join(dir, "report.json")

	stdout, _, err := execute(t, "run",
		"-i", input, "-o", output,
		"--log-level", "error",
		"--metrics-file", metricsFile,
		"--report", reportFile)
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("Data written successfully to %s\n", output), stdout)
	assert.Equal(t, [][]string{
		{"name", "score", "average"},
		{"a", "10", "15.0"},
		{"b", "20", "15.0"},
	}, testutil.ReadCSV(t, output))

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "csvavg_rows_written_total 2")

	rep, err := report.Read(reportFile)
	require.NoError(t, err)
	assert.Equal(t, report.StatusSuccess, rep.Status)
	require.NotNil(t, rep.Average)
	assert.Equal(t, 15.0, *rep.Average)
	assert.Equal(t, 2, rep.RowsRead)
}

func TestRun_ConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "input.tsv", "name\tpoints\na\t1\nb\t2\n")
	output := filepath.Join(dir, "output.tsv")
	cfgFile := testutil.WriteFile(t, dir, "csvavg.yaml", strings.Join([]string{
		"input:",
		"  path: " + input,
		"  delimiter: tab",
		"output:",
		"  path: " + output,
		"  delimiter: tab",
		"transform:",
		"  column: points",
		"logging:",
		"  level: error",
	}, "\n")+"\n")

	_, _, err := execute(t, "run", "--config", cfgFile, "--field", "mean", "--precision", "2")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "name\tpoints\tmean\na\t1\t1.50\nb\t2\t1.50\n", string(data))
}

func TestRun_Tracing(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "input.csv", "score\n4\n")
	traceFile := filepath.Join(dir, "spans.jsonl")

	_, _, err := execute(t, "run", "-i", input, "-o", filepath.Join(dir, "out.csv"),
		"--log-level", "error", "--trace", "--trace-file", traceFile)
	require.NoError(t, err)

	spans, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(spans), `"Name":"pipeline.run"`)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		args    []string
		errType errors.ErrorType
		message string
	}{
		{
			name:    "missing input",
			args:    []string{"-i", "does-not-exist.csv"},
			errType: errors.ErrorTypeNotFound,
			message: "Error: the file at does-not-exist.csv was not found\n",
		},
		{
			name:    "missing column",
			content: "name,score\na,10\n",
			args:    []string{"-c", "missing_col"},
			errType: errors.ErrorTypeMissingColumn,
			message: "Error: the column missing_col does not exist in the data\n",
		},
		{
			name:    "non-numeric value",
			content: "name,score\na,ten\n",
			errType: errors.ErrorTypeInvalidValue,
			message: "Error: the column score contains non-numeric values\n",
		},
		{
			name:    "no rows",
			content: "name,score\n",
			errType: errors.ErrorTypeEmptyDataset,
			message: "Error: no rows to average\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			output := filepath.Join(dir, "output.csv")
			reportFile := filepath.Join(dir, "report.json")

			args := []string{"run", "-o", output, "--log-level", "error", "--report", reportFile}
			if tt.content != "" {
				args = append(args, "-i", testutil.WriteFile(t, dir, "input.csv", tt.content))
			}
			args = append(args, tt.args...)

			stdout, _, err := execute(t, args...)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
			assert.Empty(t, stdout)
			testutil.RequireNoFile(t, output)

			var msg bytes.Buffer
			printError(&msg, err)
			assert.Equal(t, tt.message, msg.String())

			rep, rerr := report.Read(reportFile)
			require.NoError(t, rerr)
			assert.Equal(t, report.StatusFailure, rep.Status)
			assert.Equal(t, string(tt.errType), rep.Error.Type)
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	_, _, err := execute(t, "run", "--column", "average")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestInspect(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "scores.csv", "name,score\na,10\n")

	stdout, _, err := execute(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"name": "csv_scores_csv"`)
	assert.Contains(t, stdout, `"type": "int"`)
}

func TestInspect_BadDelimiter(t *testing.T) {
	_, _, err := execute(t, "inspect", "x.csv", "--delimiter", ";;")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "csvavg v"+version)
}

func TestDescribe_PlainError(t *testing.T) {
	assert.Equal(t, "boom", describe(fmt.Errorf("boom")))
}

func TestLoggerConfig(t *testing.T) {
	lc := loggerConfig(config.LoggingConfig{})
	assert.Equal(t, logger.DefaultConfig(), lc)

	lc = loggerConfig(config.LoggingConfig{Level: "debug", Format: "json", OutputPaths: []string{"stdout"}})
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Encoding)
	assert.Equal(t, []string{"stdout"}, lc.OutputPaths)
}
