package models

import (
	"strconv"
	"strings"
)

// FieldType names the inferred type of a column.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeFloat  FieldType = "float"
	FieldTypeBool   FieldType = "bool"
)

// Schema describes the columns of a CSV file.
type Schema struct {
	// Name identifies the schema, derived from the file path
	Name string `json:"name"`

	// Fields defines the columns in file order
	Fields []Field `json:"fields"`
}

// Field represents a single column in the schema.
type Field struct {
	// Name is the header value
	Name string `json:"name"`

	// Type is inferred from the first data row
	Type FieldType `json:"type"`

	// Nullable is true when the sample value was empty
	Nullable bool `json:"nullable"`
}

// FieldNames returns the column names in order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// InferFieldType guesses the type of a single cell value.
func InferFieldType(value string) FieldType {
	value = strings.TrimSpace(value)

	if value == "" {
		return FieldTypeString
	}

	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return FieldTypeInt
	}

	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return FieldTypeFloat
	}

	if value == "true" || value == "false" || value == "TRUE" || value == "FALSE" {
		return FieldTypeBool
	}

	return FieldTypeString
}
