package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/logflow/procmine/pkg/errors"
)

const recordExt = ".json"

// LocalBackend stores one JSON file per record in a directory.
type LocalBackend struct {
	dir string
}

// NewLocalBackend creates the directory if needed.
func NewLocalBackend(dir string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "creating results directory").
			WithContext("dir", dir)
	}
	return &LocalBackend{dir: dir}, nil
}

func (b *LocalBackend) path(id string) string {
	return filepath.Join(b.dir, id+recordExt)
}

// Save writes the record to a temp file and renames it into place.
func (b *LocalBackend) Save(ctx context.Context, r *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	tmp := b.path(r.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "writing result").WithContext("id", r.ID)
	}
	if err := os.Rename(tmp, b.path(r.ID)); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "writing result").WithContext("id", r.ID)
	}
	return nil
}

// Load reads a record from disk.
func (b *LocalBackend) Load(ctx context.Context, id string) (*Record, error) {
	data, err := os.ReadFile(b.path(id))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal result %s: %w", id, err)
	}
	return &r, nil
}

// Delete removes a record file.
func (b *LocalBackend) Delete(ctx context.Context, id string) error {
	err := os.Remove(b.path(id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List reads every record in the directory. Unreadable files are skipped.
func (b *LocalBackend) List(ctx context.Context) ([]*Record, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, err
	}

	var records []*Record
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != recordExt {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := b.Load(ctx, strings.TrimSuffix(entry.Name(), recordExt))
		if err != nil {
			continue
		}
		records = append(records, r)
	}
	newestFirst(records)
	return records, nil
}

// Name returns "local".
func (b *LocalBackend) Name() string {
	return "local"
}
