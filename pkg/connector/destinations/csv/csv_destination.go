// Package csv implements the CSV destination. A Dataset is written to a
// temporary file next to the target and renamed into place, so a failed
// write never leaves a partial output file behind.
package csv

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvavg/pkg/compression"
	"github.com/ajitpratap0/csvavg/pkg/config"
	"github.com/ajitpratap0/csvavg/pkg/errors"
	"github.com/ajitpratap0/csvavg/pkg/logger"
	"github.com/ajitpratap0/csvavg/pkg/models"
)

const outputFileMode = 0o644

// Options configures how a CSVDestination renders and stores a Dataset.
type Options struct {
	Path      string
	Delimiter rune
	// Precision fixes float decimals; -1 selects the shortest form that
	// still reads as a float ("15.0").
	Precision        int
	UseCRLF          bool
	Compression      compression.Algorithm
	CompressionLevel compression.Level
}

// OptionsFromConfig converts the output section of a validated Config.
func OptionsFromConfig(cfg config.OutputConfig) (Options, error) {
	algo, err := compression.ParseAlgorithm(cfg.Compression)
	if err != nil {
		return Options{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output compression")
	}
	return Options{
		Path:             cfg.Path,
		Delimiter:        config.Rune(cfg.Delimiter),
		Precision:        cfg.Precision,
		UseCRLF:          cfg.UseCRLF,
		Compression:      algo,
		CompressionLevel: compression.Level(cfg.CompressionLevel),
	}, nil
}

// CSVDestination writes a whole Dataset to one CSV file.
type CSVDestination struct {
	opts   Options
	logger *zap.Logger

	rowsWritten  int
	bytesWritten int64
}

// NewCSVDestination creates a new CSV destination
func NewCSVDestination(opts Options, log *zap.Logger) *CSVDestination {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.CompressionLevel == 0 {
		opts.CompressionLevel = compression.Default
	}
	return &CSVDestination{
		opts:   opts,
		logger: logger.OrNop(log).With(zap.String("component", "csv_destination")),
	}
}

// Write replaces the target file with ds. The header is the key order of the
// first row and every other row must carry exactly the same keys. An empty
// Dataset produces an empty file. A symlinked path is written through to its
// target, and an existing file keeps its permissions; a read-only file is a
// permission error.
func (d *CSVDestination) Write(ctx context.Context, ds *models.Dataset) error {
	path := d.opts.Path
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "CSV write cancelled")
	}

	var header []string
	if ds != nil && len(ds.Rows) > 0 {
		header = ds.Rows[0].Keys()
		for i, row := range ds.Rows {
			if !row.SameKeys(header) {
				return errors.New(errors.ErrorTypeParse, "row fields do not match the header").
					WithDetail("row", i).
					WithDetail("header", header).
					WithDetail("fields", row.Keys())
			}
		}
	}

	target, mode, err := resolveTarget(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return errors.FromFileError(err, "create", path)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tmp.Close()
		if rerr := os.Remove(tmpPath); rerr != nil && !os.IsNotExist(rerr) {
			d.logger.Warn("failed to remove temporary file", zap.String("file", tmpPath), zap.Error(rerr))
		}
	}()

	counter := &countingWriter{w: tmp}
	if err := d.encode(ctx, counter, ds, header); err != nil {
		return err
	}

	if err := tmp.Sync(); err != nil {
		return errors.FromFileError(err, "sync", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.FromFileError(err, "close", path)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return errors.FromFileError(err, "chmod", path)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return errors.FromFileError(err, "rename", path)
	}
	committed = true

	d.rowsWritten = ds.Len()
	d.bytesWritten = counter.n
	d.logger.Info("CSV destination write complete",
		zap.String("file", path),
		zap.Int("rows", d.rowsWritten),
		zap.Int64("bytes", d.bytesWritten))
	return nil
}

// resolveTarget returns the file a write to path must replace and the mode
// the replacement gets. Symlinks are followed so the link itself survives.
// An existing file keeps its mode and must be writable by the caller.
func resolveTarget(path string) (string, os.FileMode, error) {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return path, outputFileMode, nil
		}
		return "", 0, errors.FromFileError(err, "stat", path)
	}

	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", 0, errors.FromFileError(err, "resolve", path)
	}
	info, err := os.Stat(target)
	if err != nil {
		return "", 0, errors.FromFileError(err, "stat", path)
	}
	if info.IsDir() {
		return "", 0, errors.New(errors.ErrorTypeIO, fmt.Sprintf("%s is a directory", path)).
			WithDetail("path", path)
	}

	f, err := os.OpenFile(target, os.O_WRONLY, 0) //nolint:gosec // operator-provided path
	if err != nil {
		return "", 0, errors.FromFileError(err, "open", path)
	}
	_ = f.Close()

	return target, info.Mode().Perm(), nil
}

func (d *CSVDestination) encode(ctx context.Context, w *countingWriter, ds *models.Dataset, header []string) error {
	path := d.opts.Path
	if header == nil {
		// no rows: the file is left empty, without codec framing
		return nil
	}
	algo := compression.Resolve(d.opts.Compression, path)

	buffered := bufio.NewWriter(w)
	cw, err := compression.NewWriter(buffered, algo, d.opts.CompressionLevel)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create compressor").
			WithDetail("compression", string(algo))
	}

	writer := csv.NewWriter(cw)
	writer.Comma = d.opts.Delimiter
	writer.UseCRLF = d.opts.UseCRLF

	if err := writer.Write(header); err != nil {
		return errors.FromFileError(err, "write", path)
	}
	for i, row := range ds.Rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, errors.ErrorTypeInternal, "CSV write cancelled").
					WithDetail("rows_written", i)
			}
		}
		if err := writer.Write(row.Strings(header, d.opts.Precision)); err != nil {
			return errors.FromFileError(err, "write", path)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.FromFileError(err, "write", path)
	}
	if err := cw.Close(); err != nil {
		return errors.FromFileError(err, "write", path)
	}
	if err := buffered.Flush(); err != nil {
		return errors.FromFileError(err, "write", path)
	}
	return nil
}

// Metrics returns metrics for the destination
func (d *CSVDestination) Metrics() map[string]interface{} {
	return map[string]interface{}{
		"type":          "csv",
		"file":          d.opts.Path,
		"rows_written":  d.rowsWritten,
		"bytes_written": d.bytesWritten,
		"compression":   string(compression.Resolve(d.opts.Compression, d.opts.Path)),
	}
}

// Path returns the target file path.
func (d *CSVDestination) Path() string {
	return d.opts.Path
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if err != nil {
		return n, fmt.Errorf("write temporary file: %w", err)
	}
	return n, nil
}
