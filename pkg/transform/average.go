// Package transform computes the column average and attaches it to every
// row. It never mutates its input: AddAverage returns a new Dataset.
package transform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/ajitpratap0/csvavg/pkg/errors"
	"github.com/ajitpratap0/csvavg/pkg/logger"
	"github.com/ajitpratap0/csvavg/pkg/models"
)

// Mean returns the arithmetic mean of column over every row of ds.
//
// Every row must carry the column and every value must parse as a float.
// A dataset without rows has no mean and is reported as empty_dataset.
func Mean(ds *models.Dataset, column string) (float64, error) {
	values, err := Values(ds, column)
	if err != nil {
		return 0, err
	}

	if len(values) == 0 {
		return 0, errors.New(errors.ErrorTypeEmptyDataset, "no rows to average").
			WithDetail("column", column)
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeEmptyDataset, "no values to average").
			WithDetail("column", column)
	}
	return mean, nil
}

// Values parses column from every row.
func Values(ds *models.Dataset, column string) (stats.Float64Data, error) {
	values := make(stats.Float64Data, 0, ds.Len())
	if ds == nil {
		return values, nil
	}

	for i, row := range ds.Rows {
		raw, ok := row.Get(column)
		if !ok {
			return nil, errors.New(errors.ErrorTypeMissingColumn,
				fmt.Sprintf("the column %s does not exist in the data", column)).
				WithDetail("column", column).
				WithDetail("row", i)
		}

		v, err := toFloat(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInvalidValue,
				fmt.Sprintf("the column %s contains non-numeric values", column)).
				WithDetail("column", column).
				WithDetail("row", i).
				WithDetail("value", raw)
		}
		values = append(values, v)
	}
	return values, nil
}

// AddAverage returns a copy of ds in which every row carries field set to
// the mean of column. field is appended to the header unless already present,
// in which case it is overwritten in place.
func AddAverage(ds *models.Dataset, column, field string) (*models.Dataset, error) {
	mean, err := Mean(ds, column)
	if err != nil {
		return nil, err
	}

	out := ds.Clone()
	if !out.HasColumn(field) {
		out.Columns = append(out.Columns, field)
	}
	for _, row := range out.Rows {
		row.Set(field, mean)
	}
	return out, nil
}

// Transformer applies AddAverage as a pipeline stage.
type Transformer struct {
	column string
	field  string
	logger *zap.Logger

	lastMean float64
}

// NewTransformer creates a transformer averaging column into field.
func NewTransformer(column, field string, log *zap.Logger) *Transformer {
	return &Transformer{
		column: column,
		field:  field,
		logger: logger.OrNop(log).With(zap.String("component", "average_transform")),
	}
}

// Apply runs the transform; ctx is only checked for cancellation.
func (t *Transformer) Apply(ctx context.Context, ds *models.Dataset) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "transform cancelled")
	}

	out, err := AddAverage(ds, t.column, t.field)
	if err != nil {
		t.logger.Debug("average transform failed", zap.String("column", t.column), zap.Error(err))
		return nil, err
	}

	if len(out.Rows) > 0 {
		if v, ok := out.Rows[0].Get(t.field); ok {
			t.lastMean, _ = v.(float64)
		}
	}

	t.logger.Info("average computed",
		zap.String("column", t.column),
		zap.String("field", t.field),
		zap.Int("rows", out.Len()),
		zap.Float64("average", t.lastMean))

	return out, nil
}

// Mean returns the value computed by the last successful Apply.
func (t *Transformer) Mean() float64 {
	return t.lastMean
}

// Column returns the averaged column name.
func (t *Transformer) Column() string {
	return t.column
}

// Field returns the added field name.
func (t *Transformer) Field() string {
	return t.field
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case string:
		return parseDecimal(x)
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}

// parseDecimal parses a decimal float. Hexadecimal mantissas are rejected.
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, fmt.Errorf("hexadecimal value %q is not a decimal number", s)
	}
	return strconv.ParseFloat(s, 64)
}
