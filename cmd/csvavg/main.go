package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/ajitpratap0/csvavg/pkg/errors"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes a human-readable message for err.
func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", describe(err))
}

func describe(err error) string {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return err.Error()
	}
	switch e.Type {
	case errors.ErrorTypeNotFound, errors.ErrorTypePermission,
		errors.ErrorTypeMissingColumn, errors.ErrorTypeInvalidValue, errors.ErrorTypeEmptyDataset:
		return e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}
