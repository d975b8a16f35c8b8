// Package models provides the data structures that flow through the csvavg
// pipeline: ordered rows, the dataset that owns them, and the schema the
// CSV source infers from a file.
//
// A Row keeps field order alongside its values so that the destination can
// write columns back exactly as they were read, followed by any field added
// during transformation.
package models

import (
	"fmt"
	"strconv"
)

// Row is an ordered mapping from column name to cell value. Cells read from
// a file are strings; fields added by a transform may hold other types
// (the average is a float64).
type Row struct {
	keys   []string
	values map[string]interface{}
}

// NewRow creates an empty row with room for capacity fields.
func NewRow(capacity int) *Row {
	return &Row{
		keys:   make([]string, 0, capacity),
		values: make(map[string]interface{}, capacity),
	}
}

// NewRowFromRecord builds a row from a header and a CSV record of the same width.
func NewRowFromRecord(header, record []string) *Row {
	r := NewRow(len(header))
	for i, name := range header {
		if i < len(record) {
			r.Set(name, record[i])
		}
	}
	return r
}

// Set assigns value to key. A new key is appended after the existing ones;
// an existing key keeps its position.
func (r *Row) Set(key string, value interface{}) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *Row) Get(key string) (interface{}, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Row) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the field names in order.
func (r *Row) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Len returns the number of fields.
func (r *Row) Len() int {
	return len(r.keys)
}

// Clone returns an independent copy of the row.
func (r *Row) Clone() *Row {
	c := NewRow(len(r.keys) + 1)
	for _, k := range r.keys {
		c.Set(k, r.values[k])
	}
	return c
}

// SameKeys reports whether the row holds exactly the given field names,
// ignoring order.
func (r *Row) SameKeys(keys []string) bool {
	if len(keys) != len(r.keys) {
		return false
	}
	for _, k := range keys {
		if _, ok := r.values[k]; !ok {
			return false
		}
	}
	return true
}

// Strings text-encodes the row in the given key order. Missing keys encode
// as empty strings. precision is passed to FormatFloat for float values.
func (r *Row) Strings(keys []string, precision int) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = ValueToString(r.values[k], precision)
	}
	return out
}

// ValueToString converts a cell value to its CSV text form.
func ValueToString(value interface{}, precision int) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case float64:
		return FormatFloat(v, precision)
	case float32:
		return FormatFloat(float64(v), precision)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
