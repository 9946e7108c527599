package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/logflow/procmine/internal/model"
	"github.com/logflow/procmine/internal/pool"
)

// ParquetParser reads flat event tables stored as Parquet. Columns are
// resolved by name the same way as for CSV.
type ParquetParser struct {
	cfg   Config
	alloc memory.Allocator
}

// NewParquetParser creates a Parquet parser.
func NewParquetParser(cfg Config) *ParquetParser {
	return &ParquetParser{cfg: cfg, alloc: memory.DefaultAllocator}
}

// Parse implements Parser. Parquet needs random access, so readers that
// cannot seek are buffered in memory first.
func (p *ParquetParser) Parse(ctx context.Context, r io.Reader, out chan<- *model.Event) error {
	src, ok := r.(parquet.ReaderAtSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("%w: buffer input: %w", ErrInvalidParquet, err)
		}
		src = bytes.NewReader(data)
	}

	pqReader, err := file.NewParquetReader(src)
	if err != nil {
		return fmt.Errorf("%w: open: %w", ErrInvalidParquet, err)
	}
	defer pqReader.Close()

	batch := p.cfg.BufferSize
	if batch <= 0 {
		batch = pool.DefaultBufferSize
	}
	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{
		BatchSize: int64(batch),
	}, p.alloc)
	if err != nil {
		return fmt.Errorf("%w: arrow reader: %w", ErrInvalidParquet, err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ErrContextCanceled
		}
		return fmt.Errorf("%w: read table: %w", ErrInvalidParquet, err)
	}
	defer table.Release()

	schema := table.Schema()
	header := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		header[i] = f.Name
	}
	cols, err := resolveColumns(header, p.cfg)
	if err != nil {
		return err
	}

	tr := array.NewTableReader(table, int64(batch))
	defer tr.Release()

	for tr.Next() {
		rec := tr.Record()
		for row := 0; row < int(rec.NumRows()); row++ {
			caseID := cell(rec, cols.caseID, row)
			activity := cell(rec, cols.activity, row)
			if caseID == "" || activity == "" {
				continue
			}

			e := events.Get()
			e.CaseID = append(e.CaseID[:0], caseID...)
			e.Activity = append(e.Activity[:0], activity...)
			e.Resource = append(e.Resource[:0], cell(rec, cols.resource, row)...)
			e.Lifecycle = append(e.Lifecycle[:0], cell(rec, cols.lifecycle, row)...)

			ts, err := p.timestamp(rec, cols.timestamp, row)
			if err != nil {
				Release(e)
				return err
			}
			e.Timestamp = ts

			if err := emit(ctx, out, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *ParquetParser) timestamp(rec arrow.Record, col, row int) (int64, error) {
	if col < 0 {
		return 0, nil
	}
	arr := rec.Column(col)
	if arr.IsNull(row) {
		return 0, nil
	}
	switch a := arr.(type) {
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(row).ToTime(unit).UnixNano(), nil
	case *array.Date32:
		return a.Value(row).ToTime().UnixNano(), nil
	case *array.Date64:
		return a.Value(row).ToTime().UnixNano(), nil
	}
	v := cell(rec, col, row)
	if v == "" {
		return 0, nil
	}
	ts, err := pool.ParseTimestamp([]byte(v), p.cfg.TimestampFormat)
	if err != nil {
		return 0, ErrInvalidTimestamp
	}
	return ts, nil
}

// cell renders a column value as text; nulls and missing columns are "".
func cell(rec arrow.Record, col, row int) string {
	if col < 0 || col >= int(rec.NumCols()) {
		return ""
	}
	arr := rec.Column(col)
	if arr.IsNull(row) {
		return ""
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(row)
	case *array.LargeString:
		return a.Value(row)
	case *array.Binary:
		return string(a.Value(row))
	case *array.Int64:
		return strconv.FormatInt(a.Value(row), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(row)), 10)
	case *array.Float64:
		return strconv.FormatFloat(a.Value(row), 'f', -1, 64)
	default:
		return a.ValueStr(row)
	}
}
