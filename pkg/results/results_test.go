package results

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/procmine/pkg/discovery"
	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/eventlog"
	"github.com/logflow/procmine/pkg/storage/s3/s3test"
)

func minedRecord(t *testing.T, input string) *Record {
	t.Helper()
	c, err := discovery.NewController(discovery.ControllerConfig{
		Thresholds: []float64{0.2, 0},
		Chains:     discovery.DefaultChains(),
	})
	require.NoError(t, err)

	l := eventlog.Repeat(5, eventlog.Trace{"a", "b", "c"})
	res, err := c.Discover(context.Background(), l)
	require.NoError(t, err)

	return NewRecord(input, LogShape{Traces: l.Len(), Events: l.EventCount(), Activities: 3}, "lowest", res)
}

func TestNewRecord(t *testing.T) {
	r := minedRecord(t, "log.csv")

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, StatusComplete, r.Status)
	assert.Equal(t, []float64{0, 0.2}, r.Thresholds)
	assert.Equal(t, []ThresholdDiscards{{Threshold: 0}, {Threshold: 0.2}}, r.Discarded)
	assert.Zero(t, r.TotalDiscarded())
	assert.Equal(t, 15, r.Events)
	require.NotNil(t, r.Tree)
	assert.Equal(t, "->(a, b, c)", r.Tree.String())

	other := minedRecord(t, "log.csv")
	assert.NotEqual(t, r.ID, other.ID)
}

func TestNewRecord_Cancelled(t *testing.T) {
	r := NewRecord("log.csv", LogShape{}, "", &discovery.Result{Cancelled: true, Discarded: map[float64]int{0.1: 0}})
	assert.Equal(t, StatusCancelled, r.Status)
	assert.Nil(t, r.Tree)
}

// exerciseBackend runs the Backend contract against b.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	older := minedRecord(t, "old.csv")
	older.CreatedAt = time.Now().Add(-time.Hour).UTC()
	newer := minedRecord(t, "new.csv")
	newer.Metadata = map[string]string{"user": "ops"}

	require.NoError(t, b.Save(ctx, older))
	require.NoError(t, b.Save(ctx, newer))

	got, err := b.Load(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.Input, got.Input)
	assert.Equal(t, newer.Discarded, got.Discarded)
	assert.Equal(t, "ops", got.Metadata["user"])
	require.NotNil(t, got.Tree)
	assert.Equal(t, newer.Tree.String(), got.Tree.String())

	list, err := b.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	require.NoError(t, b.Delete(ctx, older.ID))
	require.NoError(t, b.Delete(ctx, older.ID))
	_, err = b.Load(ctx, older.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err = b.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLocalBackend(t *testing.T) {
	b, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "local", b.Name())
	exerciseBackend(t, b)
}

func TestLocalBackend_SkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	b, err := NewLocalBackend(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(dir+"/notes.txt", []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(dir+"/broken.json", []byte("{"), 0o644))

	list, err := b.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestS3Backend(t *testing.T) {
	client, api := s3test.NewClient("results")
	b := NewS3Backend(client, "runs")
	assert.Equal(t, "s3", b.Name())
	exerciseBackend(t, b)
	assert.Equal(t, 1, api.Len())
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("PROCMINE_TEST_REDIS")
	if addr == "" {
		t.Skip("PROCMINE_TEST_REDIS not set")
	}
	cfg := DefaultRedisConfig(addr)
	cfg.Prefix = "procmine:test:" + time.Now().Format("150405.000000") + ":"

	b, err := NewRedisBackend(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close()
	exerciseBackend(t, b)
}

func TestMultiBackend(t *testing.T) {
	primary, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	client, api := s3test.NewClient("mirror")
	secondary := NewS3Backend(client, "")

	m := NewMultiBackend(primary, secondary)
	assert.Equal(t, "local+s3", m.Name())
	exerciseBackend(t, m)
	assert.Equal(t, 1, api.Len())

	// records only in the secondary are still found
	r := minedRecord(t, "mirror.csv")
	require.NoError(t, secondary.Save(context.Background(), r))
	got, err := m.Load(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "mirror.csv", got.Input)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, Config{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.Equal(t, "local", b.Name())

	_, err = Open(ctx, Config{Backend: BackendS3}, nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidConfig))

	client, _ := s3test.NewClient("results")
	b, err = Open(ctx, Config{Backend: BackendS3, Prefix: "runs/"}, client)
	require.NoError(t, err)
	assert.Equal(t, "s3", b.Name())

	_, err = Open(ctx, Config{Backend: "ftp"}, nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidConfig))
}
