// Package parser provides streaming parsers that turn event-log files
// (XES, CSV, JSONL, XLSX, Parquet) into raw model.Events.
package parser

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/logflow/procmine/internal/model"
	"github.com/logflow/procmine/internal/pool"
	"github.com/logflow/procmine/pkg/errors"
)

// Parser reads an event log and emits one event per recorded event.
// Parse must respect ctx and must not close out; the caller owns it.
// Emitted events come from a shared pool: consumers copy what they keep
// and hand the event back with Release.
type Parser interface {
	Parse(ctx context.Context, r io.Reader, out chan<- *model.Event) error
}

var events = pool.NewEventPool()

// Release returns an emitted event to the parser pool.
func Release(e *model.Event) {
	events.Put(e)
}

// Format represents a supported input format.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXES
	FormatJSONL
	FormatXLSX
	FormatParquet
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXES:
		return "xes"
	case FormatJSONL:
		return "jsonl"
	case FormatXLSX:
		return "xlsx"
	case FormatParquet:
		return "parquet"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format name.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV
	case "xes":
		return FormatXES
	case "json", "jsonl", "ndjson":
		return FormatJSONL
	case "xlsx", "excel":
		return FormatXLSX
	case "parquet", "pq":
		return FormatParquet
	default:
		return FormatUnknown
	}
}

// DetectFormat guesses the format from a file name or object key.
// A trailing .gz is ignored.
func DetectFormat(path string) Format {
	p := strings.TrimSuffix(strings.ToLower(path), ".gz")
	return ParseFormat(strings.TrimPrefix(filepath.Ext(p), "."))
}

// Config holds common parser configuration.
type Config struct {
	// BufferSize is the size of the read buffer in bytes.
	BufferSize int

	// CaseIDColumn is the case id column (CSV, JSONL, XLSX).
	CaseIDColumn string

	// ActivityColumn is the activity column.
	ActivityColumn string

	// TimestampColumn is the timestamp column; optional.
	TimestampColumn string

	// ResourceColumn is the resource column; optional.
	ResourceColumn string

	// LifecycleColumn is the lifecycle transition column; optional.
	LifecycleColumn string

	// TimestampFormat is a Go time layout tried before the defaults.
	TimestampFormat string

	// Delimiter is the CSV field delimiter.
	Delimiter rune

	// Sheet selects the XLSX sheet; the first sheet if empty.
	Sheet string
}

// DefaultConfig returns a Config using the XES standard attribute names.
func DefaultConfig() Config {
	return Config{
		BufferSize:      pool.DefaultBufferSize,
		CaseIDColumn:    "case:concept:name",
		ActivityColumn:  "concept:name",
		TimestampColumn: "time:timestamp",
		ResourceColumn:  "org:resource",
		LifecycleColumn: "lifecycle:transition",
		Delimiter:       ',',
	}
}

// NewParser creates a parser for the given format. Formats without a
// parser fail with CodeInvalidFormat.
func NewParser(format Format, cfg Config) (Parser, error) {
	switch format {
	case FormatCSV:
		return NewCSVParser(cfg), nil
	case FormatXES:
		return NewXESParser(cfg), nil
	case FormatJSONL:
		return NewJSONLParser(cfg), nil
	case FormatXLSX:
		return NewXLSXParser(cfg), nil
	case FormatParquet:
		return NewParquetParser(cfg), nil
	default:
		return nil, errors.New(errors.CodeInvalidFormat, "unsupported event log format").
			WithContext("format", format.String())
	}
}

// emit sends e unless ctx is cancelled, in which case e is released.
func emit(ctx context.Context, out chan<- *model.Event, e *model.Event) error {
	select {
	case out <- e:
		return nil
	case <-ctx.Done():
		Release(e)
		return ErrContextCanceled
	}
}

// columns maps a header row onto the configured column indices.
type columns struct {
	caseID, activity, timestamp, resource, lifecycle int
}

func resolveColumns(header []string, cfg Config) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	lookup := func(name string) int {
		if name == "" {
			return -1
		}
		if i, ok := idx[name]; ok {
			return i
		}
		return -1
	}

	c := columns{
		caseID:    lookup(cfg.CaseIDColumn),
		activity:  lookup(cfg.ActivityColumn),
		timestamp: lookup(cfg.TimestampColumn),
		resource:  lookup(cfg.ResourceColumn),
		lifecycle: lookup(cfg.LifecycleColumn),
	}
	switch {
	case c.caseID < 0:
		return c, fmt.Errorf("%w %q", ErrMissingCaseID, cfg.CaseIDColumn)
	case c.activity < 0:
		return c, fmt.Errorf("%w %q", ErrMissingActivity, cfg.ActivityColumn)
	}
	return c, nil
}

// fill populates a pooled event from a record using the resolved columns.
func (c columns) fill(record []string, cfg Config) (*model.Event, error) {
	get := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return record[i]
	}

	e := events.Get()
	e.CaseID = append(e.CaseID[:0], get(c.caseID)...)
	e.Activity = append(e.Activity[:0], get(c.activity)...)
	e.Resource = append(e.Resource[:0], get(c.resource)...)
	e.Lifecycle = append(e.Lifecycle[:0], get(c.lifecycle)...)

	if ts := get(c.timestamp); ts != "" {
		nanos, err := pool.ParseTimestamp([]byte(ts), cfg.TimestampFormat)
		if err != nil {
			Release(e)
			return nil, ErrInvalidTimestamp
		}
		e.Timestamp = nanos
	}
	return e, nil
}
