package parser

import (
	"errors"
	"fmt"
)

// Format errors. Loaders map them to a parse failure; the wrapped cause
// carries the detail.
var (
	ErrInvalidCSV     = errors.New("parser: invalid CSV format")
	ErrInvalidXES     = errors.New("parser: invalid XES format")
	ErrInvalidJSONL   = errors.New("parser: invalid JSON line")
	ErrInvalidXLSX    = errors.New("parser: invalid XLSX workbook")
	ErrInvalidParquet = errors.New("parser: invalid Parquet file")
)

var (
	// ErrMissingColumn is returned when a column needed to build traces is
	// absent. ErrMissingCaseID and ErrMissingActivity wrap it and say which.
	ErrMissingColumn   = errors.New("parser: required column missing")
	ErrMissingCaseID   = fmt.Errorf("%w: case id", ErrMissingColumn)
	ErrMissingActivity = fmt.Errorf("%w: activity", ErrMissingColumn)

	// ErrInvalidTimestamp is returned when a timestamp matches no layout.
	// Events are ordered by it within a trace, so it is never skipped.
	ErrInvalidTimestamp = errors.New("parser: invalid timestamp format")

	// ErrContextCanceled is returned when the context is canceled.
	ErrContextCanceled = errors.New("parser: context canceled")
)
