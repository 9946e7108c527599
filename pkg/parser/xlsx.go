package parser

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/logflow/procmine/internal/model"
)

// XLSXParser parses an Excel sheet laid out like the CSV format: a header
// row followed by one event per row.
type XLSXParser struct {
	cfg Config
}

// NewXLSXParser creates a new XLSX parser.
func NewXLSXParser(cfg Config) *XLSXParser {
	return &XLSXParser{cfg: cfg}
}

// Parse implements Parser. excelize needs random access, so streams that
// are not files are read into memory.
func (p *XLSXParser) Parse(ctx context.Context, r io.Reader, out chan<- *model.Event) error {
	var xl *excelize.File
	var err error
	if f, ok := r.(*os.File); ok {
		xl, err = excelize.OpenFile(f.Name())
	} else {
		xl, err = excelize.OpenReader(r)
	}
	if err != nil {
		return fmt.Errorf("%w: open: %w", ErrInvalidXLSX, err)
	}
	defer xl.Close()

	sheet := p.cfg.Sheet
	if sheet == "" {
		sheet = xl.GetSheetName(0)
	}
	if sheet == "" {
		return fmt.Errorf("%w: no sheets", ErrInvalidXLSX)
	}

	rows, err := xl.Rows(sheet)
	if err != nil {
		return fmt.Errorf("%w: read sheet %q: %w", ErrInvalidXLSX, sheet, err)
	}
	defer rows.Close()

	var cols columns
	header := true
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return ErrContextCanceled
		}

		record, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("%w: read row: %w", ErrInvalidXLSX, err)
		}
		if header {
			if cols, err = resolveColumns(record, p.cfg); err != nil {
				return err
			}
			header = false
			continue
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
	return rows.Error()
}
