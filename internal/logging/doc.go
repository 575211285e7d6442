// Package logging builds the slog loggers used across medley.
//
// Two handler formats are supported: a human-oriented console handler that
// prints "TIMESTAMP LEVEL component: message key=value" lines, and a JSON
// handler with normalized ts/level/msg keys for ingestion. Output fans out
// to stdout plus the daemon log file. Helper constructors attach component
// attributes, and context carriers propagate item/stage/correlation fields
// from the workflow into stage logs.
package logging
