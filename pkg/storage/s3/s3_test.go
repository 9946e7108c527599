package s3_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/procmine/pkg/storage/s3"
	"github.com/logflow/procmine/pkg/storage/s3/s3test"
)

func TestParseURL(t *testing.T) {
	bucket, key, err := s3.ParseURL("s3://logs/2024/run.xes")
	require.NoError(t, err)
	assert.Equal(t, "logs", bucket)
	assert.Equal(t, "2024/run.xes", key)

	for _, bad := range []string{"logs/run.xes", "s3://logs", "s3:///run.xes"} {
		_, _, err := s3.ParseURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, api := s3test.NewClient("results")
	assert.Equal(t, "results", c.Bucket())

	require.NoError(t, c.Put(ctx, "runs/a.json", []byte(`{"id":"a"}`), "application/json"))
	require.NoError(t, c.Put(ctx, "runs/b.json", []byte(`{"id":"b"}`), "application/json"))
	api.Put("results", "other/c.json", []byte(`{}`))

	data, err := c.Get(ctx, "", "runs/a.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a"}`, string(data))

	keys, err := c.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/a.json", "runs/b.json"}, keys)

	require.NoError(t, c.Delete(ctx, "runs/a.json"))
	_, err = c.Get(ctx, "", "runs/a.json")
	assert.ErrorIs(t, err, s3.ErrNotFound)
	assert.Equal(t, 2, api.Len())
}

func TestClient_OtherBucket(t *testing.T) {
	c, api := s3test.NewClient("results")
	api.Put("logs", "in/run.csv", []byte("case,activity\n"))

	data, err := c.Get(context.Background(), "logs", "in/run.csv")
	require.NoError(t, err)
	assert.Equal(t, "case,activity\n", string(data))
}
