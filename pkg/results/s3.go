package results

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path"
	"strings"

	"github.com/logflow/procmine/pkg/storage/s3"
)

// S3Backend stores records as objects under a key prefix.
type S3Backend struct {
	client *s3.Client
	prefix string
}

// NewS3Backend stores records in the client's default bucket.
func NewS3Backend(client *s3.Client, prefix string) *S3Backend {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Backend{client: client, prefix: prefix}
}

func (b *S3Backend) key(id string) string {
	return b.prefix + id + recordExt
}

// Save uploads the record.
func (b *S3Backend) Save(ctx context.Context, r *Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return b.client.Put(ctx, b.key(r.ID), data, "application/json")
}

// Load downloads a record.
func (b *S3Backend) Load(ctx context.Context, id string) (*Record, error) {
	data, err := b.client.Get(ctx, "", b.key(id))
	if stderrors.Is(err, s3.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &r, nil
}

// Delete removes the record object.
func (b *S3Backend) Delete(ctx context.Context, id string) error {
	return b.client.Delete(ctx, b.key(id))
}

// List loads every record under the prefix.
func (b *S3Backend) List(ctx context.Context) ([]*Record, error) {
	keys, err := b.client.List(ctx, b.prefix)
	if err != nil {
		return nil, err
	}

	var records []*Record
	for _, k := range keys {
		if path.Ext(k) != recordExt {
			continue
		}
		r, err := b.Load(ctx, strings.TrimSuffix(strings.TrimPrefix(k, b.prefix), recordExt))
		if err != nil {
			continue
		}
		records = append(records, r)
	}
	newestFirst(records)
	return records, nil
}

// Name returns "s3".
func (b *S3Backend) Name() string {
	return "s3"
}
