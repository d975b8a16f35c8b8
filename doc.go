// Package csvavg reads a CSV file, computes the arithmetic mean of one
// numeric column and writes every row back out with the mean appended as a
// new field.
//
// # Architecture
//
// A run is three stages executed in order by internal/pipeline:
//
//  1. Read: pkg/connector/sources/csv loads the whole file into a
//     models.Dataset. The first record is the header.
//  2. Transform: pkg/transform computes the mean and returns a new Dataset in
//     which every row carries the average field. The input is not modified.
//  3. Write: pkg/connector/destinations/csv renders the Dataset to a temporary
//     file and renames it over the target.
//
// The first failing stage ends the run. No output file is written when the
// input is missing, the column is absent, a value is not numeric or there are
// no rows.
//
// # Quick Start
//
//	csvavg run -i input.csv -o output.csv -c score
//
// Given
//
//	name,score
//	a,10
//	b,20
//
// the output is
//
//	name,score,average
//	a,10,15.0
//	b,20,15.0
//
// # Key Packages
//
//	pkg/config        - Layered configuration (flags, env, file, defaults)
//	pkg/errors        - Structured errors with a typed category
//	pkg/logger        - zap logger construction
//	pkg/compression   - gzip, zstd, lz4 and snappy streams
//	pkg/metrics       - Prometheus counters and textfile export
//	pkg/observability - OpenTelemetry stage spans
//	pkg/report        - JSON run summary
//
// # Configuration
//
// Settings come from command flags, then CSVAVG_* environment variables,
// then an optional YAML or JSON file, then defaults. ${VAR_NAME} references
// in the file are expanded from the environment.
package csvavg
