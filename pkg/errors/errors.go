// Package errors provides structured error handling for csvavg. Every stage
// of the pipeline returns an *Error carrying a category, so callers decide
// how to react by type instead of by message.
//
// # Basic Usage
//
//	err := errors.New(errors.ErrorTypeMissingColumn, "column not found").
//	    WithDetail("column", "score").
//	    WithDetail("row", 3)
//
//	if errors.IsType(err, errors.ErrorTypeMissingColumn) {
//	    // ...
//	}
//
// File system and CSV failures are classified with FromFileError, which maps
// fs.ErrNotExist, fs.ErrPermission and *csv.ParseError onto the taxonomy.
package errors

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound represents a missing input file
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeParse represents malformed delimited content or a row that
	// cannot be serialized
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeIO represents any other I/O failure
	ErrorTypeIO ErrorType = "io"
	// ErrorTypePermission represents read or write access denial
	ErrorTypePermission ErrorType = "permission"
	// ErrorTypeMissingColumn represents a target column absent from a row
	ErrorTypeMissingColumn ErrorType = "missing_column"
	// ErrorTypeInvalidValue represents a non-numeric cell where a number is required
	ErrorTypeInvalidValue ErrorType = "invalid_value"
	// ErrorTypeEmptyDataset represents a dataset with no rows to aggregate
	ErrorTypeEmptyDataset ErrorType = "empty_dataset"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeInternal represents internal errors, including cancellation
	ErrorTypeInternal ErrorType = "internal"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// FromFileError classifies an error raised while opening, reading or writing
// path. Already structured errors are returned unchanged.
func FromFileError(err error, op, path string) error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return err
	}

	var parseErr *csv.ParseError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Wrap(err, ErrorTypeNotFound, fmt.Sprintf("the file at %s was not found", path)).
			WithDetail("path", path).
			WithDetail("op", op)
	case errors.Is(err, fs.ErrPermission):
		return Wrap(err, ErrorTypePermission, fmt.Sprintf("permission denied for %s on %s", op, path)).
			WithDetail("path", path).
			WithDetail("op", op)
	case errors.As(err, &parseErr):
		return Wrap(err, ErrorTypeParse, fmt.Sprintf("malformed CSV in %s", path)).
			WithDetail("path", path).
			WithDetail("line", parseErr.Line).
			WithDetail("column", parseErr.Column)
	default:
		return Wrap(err, ErrorTypeIO, fmt.Sprintf("failed to %s %s", op, path)).
			WithDetail("path", path).
			WithDetail("op", op)
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the category of the outermost structured error in the
// chain, or ErrorTypeInternal for plain errors.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
