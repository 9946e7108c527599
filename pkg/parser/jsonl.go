package parser

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/logflow/procmine/internal/model"
)

// JSONLParser parses newline-delimited JSON objects, one event per line.
// Field names follow the configured columns; values may be strings or
// numbers.
type JSONLParser struct {
	cfg Config
}

// NewJSONLParser creates a new JSONL parser.
func NewJSONLParser(cfg Config) *JSONLParser {
	return &JSONLParser{cfg: cfg}
}

// Parse implements Parser.
func (p *JSONLParser) Parse(ctx context.Context, r io.Reader, out chan<- *model.Event) error {
	bufSize := p.cfg.BufferSize
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufSize), 16*1024*1024)

	// Fixed record layout: case, activity, timestamp, resource, lifecycle.
	cols := columns{caseID: 0, activity: 1, timestamp: 2, resource: 3, lifecycle: 4}
	keys := []string{
		p.cfg.CaseIDColumn,
		p.cfg.ActivityColumn,
		p.cfg.TimestampColumn,
		p.cfg.ResourceColumn,
		p.cfg.LifecycleColumn,
	}
	first := true

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return ErrContextCanceled
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidJSONL, err)
		}

		if first {
			if _, ok := obj[p.cfg.CaseIDColumn]; !ok {
				return fmt.Errorf("%w %q", ErrMissingCaseID, p.cfg.CaseIDColumn)
			}
			if _, ok := obj[p.cfg.ActivityColumn]; !ok {
				return fmt.Errorf("%w %q", ErrMissingActivity, p.cfg.ActivityColumn)
			}
			first = false
		}

		record := make([]string, len(keys))
		for i, k := range keys {
			if k != "" {
				record[i] = jsonString(obj[k])
			}
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
	return scanner.Err()
}

func jsonString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
