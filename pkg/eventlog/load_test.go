package eventlog

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/parser"
	"github.com/logflow/procmine/pkg/storage/s3"
)

const sampleCSV = `case,activity,time
1,register,2024-01-01T10:00:00Z
1,approve,2024-01-01T11:00:00Z
2,register,2024-01-01T10:30:00Z
`

func csvConfig() parser.Config {
	cfg := parser.DefaultConfig()
	cfg.CaseIDColumn = "case"
	cfg.ActivityColumn = "activity"
	cfg.TimestampColumn = "time"
	return cfg
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoad_CSV(t *testing.T) {
	path := writeFile(t, "log.csv", []byte(sampleCSV))
	l, err := Load(context.Background(), LoadOptions{Path: path, Parser: csvConfig()})
	require.NoError(t, err)
	assert.Equal(t, []Trace{{"register", "approve"}, {"register"}}, l.Traces)
}

func TestLoad_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := writeFile(t, "log.csv.gz", buf.Bytes())
	l, err := Load(context.Background(), LoadOptions{Path: path, Parser: csvConfig()})
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
}

type fakeObjects map[string][]byte

func (f fakeObjects) Get(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := f[bucket+"/"+key]
	if !ok {
		return nil, s3.ErrNotFound
	}
	return data, nil
}

func TestLoad_S3(t *testing.T) {
	objects := fakeObjects{"logs/day1.csv": []byte(sampleCSV)}
	l, err := Load(context.Background(), LoadOptions{
		Path:    "s3://logs/day1.csv",
		Parser:  csvConfig(),
		Objects: objects,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, l.EventCount())

	_, err = Load(context.Background(), LoadOptions{
		Path:    "s3://logs/missing.csv",
		Parser:  csvConfig(),
		Objects: objects,
	})
	assert.True(t, errors.IsCode(err, errors.CodeFileNotFound))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(context.Background(), LoadOptions{Path: filepath.Join(t.TempDir(), "nope.csv"), Parser: csvConfig()})
	assert.True(t, errors.IsCode(err, errors.CodeFileNotFound))

	path := writeFile(t, "log.csv", []byte(sampleCSV))
	_, err = Load(context.Background(), LoadOptions{Path: path, Parser: parser.DefaultConfig()})
	assert.True(t, errors.IsCode(err, errors.CodeMissingColumn), "got %v", err)

	_, err = Load(context.Background(), LoadOptions{Path: writeFile(t, "log.txt", nil)})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidFormat))

	_, err = Load(context.Background(), LoadOptions{Path: writeFile(t, "log.jsonl", []byte("{oops\n")), Parser: parser.DefaultConfig()})
	assert.True(t, errors.IsCode(err, errors.CodeParseFailed), "got %v", err)
}

func TestFromSQL(t *testing.T) {
	l, err := FromSQL(context.Background(), SQLOptions{
		Query: `SELECT * FROM (VALUES
			('1', 'a', 1), ('1', 'b', 2), ('2', 'a', 3)
		) AS t(case_id, activity, timestamp) ORDER BY case_id, timestamp`,
	})
	require.NoError(t, err)
	assert.Equal(t, []Trace{{"a", "b"}, {"a"}}, l.Traces)

	_, err = FromSQL(context.Background(), SQLOptions{Query: `SELECT 1 AS case_id`})
	assert.True(t, errors.IsCode(err, errors.CodeMissingColumn))
}

func TestCSVQuery(t *testing.T) {
	q := CSVQuery("/tmp/o'k.csv", "case", "activity", "time")
	assert.Contains(t, q, `"case" AS case_id`)
	assert.Contains(t, q, "read_csv_auto('/tmp/o''k.csv')")
	assert.Contains(t, q, "ORDER BY case_id, timestamp")
}
