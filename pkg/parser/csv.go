package parser

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"

	"github.com/logflow/procmine/internal/model"
)

// CSVParser parses delimited event tables with a header row.
type CSVParser struct {
	cfg Config
}

// NewCSVParser creates a new CSV parser.
func NewCSVParser(cfg Config) *CSVParser {
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ','
	}
	return &CSVParser{cfg: cfg}
}

// Parse implements Parser. Rows with an empty case id or activity are
// skipped; a malformed timestamp aborts with ErrInvalidTimestamp.
func (p *CSVParser) Parse(ctx context.Context, r io.Reader, out chan<- *model.Event) error {
	bufSize := p.cfg.BufferSize
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	reader := csv.NewReader(bufio.NewReaderSize(r, bufSize))
	reader.Comma = p.cfg.Delimiter
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return ErrInvalidCSV
	}
	if err != nil {
		return ErrInvalidCSV
	}
	cols, err := resolveColumns(header, p.cfg)
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return ErrContextCanceled
		}

		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return ErrInvalidCSV
		}

		e, err := cols.fill(record, p.cfg)
		if err != nil {
			return err
		}
		if len(e.CaseID) == 0 || len(e.Activity) == 0 {
			Release(e)
			continue
		}
		if err := emit(ctx, out, e); err != nil {
			return err
		}
	}
}
