package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/logflow/procmine/internal/model"
	"github.com/logflow/procmine/pkg/errors"
)

// SQLOptions configures loading a log from a DuckDB query. The query must
// return a case_id and an activity column; timestamp, resource and
// lifecycle are picked up when present. Rows are taken in query order,
// so the query should ORDER BY case and time.
type SQLOptions struct {
	// DSN is the DuckDB database path; empty opens an in-memory database,
	// which is enough for queries over read_csv_auto or read_parquet.
	DSN string

	// Query is the SELECT statement producing events.
	Query string

	Build BuildOptions
}

// CSVQuery returns a query over a CSV file using DuckDB's reader, with the
// given columns renamed to the names FromSQL expects.
func CSVQuery(path, caseCol, activityCol, timestampCol string) string {
	q := fmt.Sprintf(`SELECT %q AS case_id, %q AS activity`, caseCol, activityCol)
	order := "case_id"
	if timestampCol != "" {
		q += fmt.Sprintf(`, %q AS timestamp`, timestampCol)
		order += ", timestamp"
	}
	return q + fmt.Sprintf(" FROM read_csv_auto('%s') ORDER BY %s", strings.ReplaceAll(path, "'", "''"), order)
}

// FromSQL runs opts.Query against DuckDB and assembles the rows into a Log.
func FromSQL(ctx context.Context, opts SQLOptions) (*Log, error) {
	db, err := sql.Open("duckdb", opts.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLoadFailed, "failed to open duckdb")
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, opts.Query)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLoadFailed, "query failed")
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLoadFailed, "reading columns")
	}
	pos := map[string]int{}
	for i, n := range names {
		pos[strings.ToLower(n)] = i
	}
	for _, required := range []string{"case_id", "activity"} {
		if _, ok := pos[required]; !ok {
			return nil, errors.MissingColumn(required, names)
		}
	}

	b := NewBuilder(opts.Build)
	values := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range values {
		ptrs[i] = &values[i]
	}
	e := &model.Event{}

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CodeContextCanceled, "loading event log")
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, errors.CodeParseFailed, "scanning row")
		}

		e.Reset()
		e.CaseID = append(e.CaseID, text(values[pos["case_id"]])...)
		e.Activity = append(e.Activity, text(values[pos["activity"]])...)
		if len(e.CaseID) == 0 || len(e.Activity) == 0 {
			continue
		}
		if i, ok := pos["resource"]; ok {
			e.Resource = append(e.Resource, text(values[i])...)
		}
		if i, ok := pos["lifecycle"]; ok {
			e.Lifecycle = append(e.Lifecycle, text(values[i])...)
		}
		if i, ok := pos["timestamp"]; ok {
			e.Timestamp = nanos(values[i])
		}
		b.Add(e)
	}
	if err := rows.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.CodeContextCanceled, "loading event log")
		}
		return nil, errors.Wrap(err, errors.CodeLoadFailed, "iterating rows")
	}
	return b.Log(), nil
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func nanos(v any) int64 {
	switch x := v.(type) {
	case time.Time:
		return x.UnixNano()
	case int64:
		return x
	case int32:
		return int64(x)
	default:
		return 0
	}
}
