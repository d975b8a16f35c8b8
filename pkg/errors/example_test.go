// Package errors provides examples of structured error handling in csvavg.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/csvavg/pkg/errors"
)

// Example demonstrates basic error creation with details.
func Example() {
	err := errors.New(errors.ErrorTypeMissingColumn, "the column score does not exist in the data").
		WithDetail("column", "score").
		WithDetail("row", 0)

	fmt.Println(err.Error())

	// Output:
	// missing_column: the column score does not exist in the data
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeIO, "failed to read CSV file").
		WithDetail("file", "input.csv")

	if errors.IsType(err, errors.ErrorTypeIO) {
		fmt.Println("This is an I/O error")
	}
	fmt.Println(err)

	// Output:
	// This is an I/O error
	// io: failed to read CSV file: unexpected EOF
}

// ExampleTypeOf demonstrates reading the category of an error chain.
func ExampleTypeOf() {
	inner := errors.New(errors.ErrorTypeInvalidValue, "non-numeric value")
	outer := errors.Wrap(inner, errors.ErrorTypeInternal, "transform failed")

	fmt.Println(errors.TypeOf(inner))
	fmt.Println(errors.TypeOf(outer))
	fmt.Println(errors.TypeOf(io.EOF))

	// Output:
	// invalid_value
	// internal
	// internal
}
