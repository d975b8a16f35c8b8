// Package csv implements the CSV source: it loads a delimited text file,
// optionally compressed, into an in-memory models.Dataset.
package csv

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvavg/pkg/compression"
	"github.com/ajitpratap0/csvavg/pkg/config"
	"github.com/ajitpratap0/csvavg/pkg/errors"
	"github.com/ajitpratap0/csvavg/pkg/logger"
	"github.com/ajitpratap0/csvavg/pkg/models"
)

const utf8BOM = "\ufeff"

// Options configures the CSV dialect and file handling of a CSVSource.
type Options struct {
	Path             string
	Delimiter        rune
	Comment          rune
	TrimLeadingSpace bool
	LazyQuotes       bool
	Compression      compression.Algorithm
}

// OptionsFromConfig converts the input section of a validated Config.
func OptionsFromConfig(cfg config.InputConfig) (Options, error) {
	algo, err := compression.ParseAlgorithm(cfg.Compression)
	if err != nil {
		return Options{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid input compression")
	}
	return Options{
		Path:             cfg.Path,
		Delimiter:        config.Rune(cfg.Delimiter),
		Comment:          config.Rune(cfg.Comment),
		TrimLeadingSpace: cfg.TrimLeadingSpace,
		LazyQuotes:       cfg.LazyQuotes,
		Compression:      algo,
	}, nil
}

// CSVSource reads a whole CSV file into memory.
type CSVSource struct {
	opts   Options
	logger *zap.Logger

	rowsRead int
}

// NewCSVSource creates a new CSV source
func NewCSVSource(opts Options, log *zap.Logger) *CSVSource {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &CSVSource{
		opts:   opts,
		logger: logger.OrNop(log).With(zap.String("component", "csv_source")),
	}
}

// Read loads the file into a Dataset. The first record is the header; every
// later record becomes a row keyed by it. A file with no header yields an
// empty Dataset. On failure no Dataset is returned.
func (s *CSVSource) Read(ctx context.Context) (*models.Dataset, error) {
	path := s.opts.Path

	var ds *models.Dataset
	err := s.withReader(func(reader *csv.Reader) error {
		header, err := reader.Read()
		if err == io.EOF {
			s.logger.Warn("CSV file has no header", zap.String("file", path))
			ds = models.NewDataset(nil)
			return nil
		}
		if err != nil {
			return errors.FromFileError(err, "read", path)
		}

		header = stripBOM(header)
		result := models.NewDataset(s.uniqueColumns(header))

		for {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, errors.ErrorTypeInternal, "CSV read cancelled").
					WithDetail("rows_read", result.Len())
			}

			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return errors.FromFileError(err, "read", path)
			}

			result.Append(models.NewRowFromRecord(header, record))
		}

		ds = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.rowsRead = ds.Len()
	s.logger.Info("CSV source read complete",
		zap.String("file", path),
		zap.Int("rows", ds.Len()),
		zap.Strings("columns", ds.Columns))

	return ds, nil
}

// DiscoverSchema reads the header and the first data row and infers a type
// for every column.
func (s *CSVSource) DiscoverSchema(ctx context.Context) (*models.Schema, error) {
	path := s.opts.Path

	var schema *models.Schema
	err := s.withReader(func(reader *csv.Reader) error {
		header, err := reader.Read()
		if err == io.EOF {
			return errors.New(errors.ErrorTypeParse, "CSV file has no header").WithDetail("path", path)
		}
		if err != nil {
			return errors.FromFileError(err, "read", path)
		}
		header = stripBOM(header)

		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "schema discovery cancelled")
		}

		dataRow, err := reader.Read()
		if err != nil && err != io.EOF {
			return errors.FromFileError(err, "read", path)
		}

		fields := make([]models.Field, 0, len(header))
		seen := make(map[string]struct{}, len(header))
		for i, name := range header {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}

			fieldType := models.FieldTypeString
			nullable := true
			if dataRow != nil && i < len(dataRow) {
				fieldType = models.InferFieldType(dataRow[i])
				nullable = strings.TrimSpace(dataRow[i]) == ""
			}
			fields = append(fields, models.Field{Name: name, Type: fieldType, Nullable: nullable})
		}

		schema = &models.Schema{
			Name:   fmt.Sprintf("csv_%s", strings.ReplaceAll(filepath.Base(path), ".", "_")),
			Fields: fields,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("schema discovered", zap.String("file", path), zap.Int("fields", len(schema.Fields)))
	return schema, nil
}

// Metrics returns metrics for the source
func (s *CSVSource) Metrics() map[string]interface{} {
	return map[string]interface{}{
		"type":      "csv",
		"file":      s.opts.Path,
		"rows_read": s.rowsRead,
	}
}

// withReader opens the file, layers decompression and a csv.Reader on top,
// and releases everything before returning.
func (s *CSVSource) withReader(fn func(*csv.Reader) error) error {
	path := s.opts.Path

	file, err := os.Open(path) //nolint:gosec // G304: path is operator-provided
	if err != nil {
		return errors.FromFileError(err, "open", path)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			s.logger.Warn("failed to close file", zap.String("file", path), zap.Error(cerr))
		}
	}()

	algo := compression.Resolve(s.opts.Compression, path)
	decompressed, err := compression.NewReader(bufio.NewReader(file), algo)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeParse, "failed to decompress CSV file").
			WithDetail("path", path).
			WithDetail("compression", string(algo))
	}
	defer decompressed.Close()

	reader := csv.NewReader(decompressed)
	reader.Comma = s.opts.Delimiter
	reader.Comment = s.opts.Comment
	reader.TrimLeadingSpace = s.opts.TrimLeadingSpace
	reader.LazyQuotes = s.opts.LazyQuotes
	reader.FieldsPerRecord = 0 // every record must match the header width

	return fn(reader)
}

func stripBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	return header
}

// uniqueColumns drops repeated column names, keeping the first occurrence.
// Rows built from a header with repeats keep the last value for that name.
func (s *CSVSource) uniqueColumns(header []string) []string {
	seen := make(map[string]struct{}, len(header))
	out := make([]string, 0, len(header))
	for _, name := range header {
		if _, dup := seen[name]; dup {
			s.logger.Warn("duplicate column name in header", zap.String("column", name))
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
