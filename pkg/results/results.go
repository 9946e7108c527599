// Package results persists discovered process trees so runs can be listed
// and inspected later. Records are JSON documents stored on the local
// filesystem, in Redis or in S3.
package results

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/logflow/procmine/pkg/discovery"
	"github.com/logflow/procmine/pkg/tree"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = stderrors.New("result not found")

// Record statuses.
const (
	StatusComplete  = "complete"
	StatusCancelled = "cancelled"
)

// Record is one persisted discovery run.
type Record struct {
	ID        string    `json:"id"`
	Input     string    `json:"input"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	// Run parameters
	Thresholds []float64 `json:"thresholds"`
	Policy     string    `json:"policy,omitempty"`

	// Log shape
	Traces     int `json:"traces"`
	Events     int `json:"events"`
	Activities int `json:"activities"`

	Discarded []ThresholdDiscards `json:"discarded,omitempty"`
	Duration  time.Duration       `json:"duration_ns"`

	// Tree is nil for cancelled runs.
	Tree *tree.Tree `json:"tree,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// ThresholdDiscards is the number of events a threshold discarded.
type ThresholdDiscards struct {
	Threshold float64 `json:"threshold"`
	Count     int     `json:"count"`
}

// LogShape summarises the mined log.
type LogShape struct {
	Traces, Events, Activities int
}

// NewRecord builds a record for a finished run under a fresh ID.
func NewRecord(input string, shape LogShape, policy string, res *discovery.Result) *Record {
	r := &Record{
		ID:         uuid.NewString(),
		Input:      input,
		Status:     StatusComplete,
		CreatedAt:  time.Now().UTC(),
		Policy:     policy,
		Traces:     shape.Traces,
		Events:     shape.Events,
		Activities: shape.Activities,
		Duration:   res.Duration,
		Tree:       res.Tree,
	}
	if res.Cancelled {
		r.Status = StatusCancelled
	}
	for t, n := range res.Discarded {
		r.Thresholds = append(r.Thresholds, t)
		r.Discarded = append(r.Discarded, ThresholdDiscards{Threshold: t, Count: n})
	}
	sort.Float64s(r.Thresholds)
	sort.Slice(r.Discarded, func(i, j int) bool { return r.Discarded[i].Threshold < r.Discarded[j].Threshold })
	return r
}

// TotalDiscarded sums the discards over all thresholds.
func (r *Record) TotalDiscarded() int {
	n := 0
	for _, d := range r.Discarded {
		n += d.Count
	}
	return n
}

// Backend stores records.
type Backend interface {
	// Save writes or replaces the record.
	Save(ctx context.Context, r *Record) error

	// Load returns the record with the given ID or ErrNotFound.
	Load(ctx context.Context, id string) (*Record, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all records, newest first.
	List(ctx context.Context) ([]*Record, error)

	// Name returns the backend name for logging.
	Name() string
}

func newestFirst(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

// MultiBackend writes to a primary and, best effort, a secondary backend.
type MultiBackend struct {
	primary   Backend
	secondary Backend
}

// NewMultiBackend creates a backend that mirrors writes to secondary.
func NewMultiBackend(primary, secondary Backend) *MultiBackend {
	return &MultiBackend{primary: primary, secondary: secondary}
}

// Save writes to the primary first; secondary failures are ignored.
func (m *MultiBackend) Save(ctx context.Context, r *Record) error {
	if err := m.primary.Save(ctx, r); err != nil {
		return err
	}
	_ = m.secondary.Save(ctx, r)
	return nil
}

// Load reads from the primary and falls back to the secondary.
func (m *MultiBackend) Load(ctx context.Context, id string) (*Record, error) {
	r, err := m.primary.Load(ctx, id)
	if err == nil {
		return r, nil
	}
	return m.secondary.Load(ctx, id)
}

// Delete removes the record from both backends.
func (m *MultiBackend) Delete(ctx context.Context, id string) error {
	err1 := m.primary.Delete(ctx, id)
	err2 := m.secondary.Delete(ctx, id)
	if err1 != nil {
		return err1
	}
	return err2
}

// List lists the primary.
func (m *MultiBackend) List(ctx context.Context) ([]*Record, error) {
	return m.primary.List(ctx)
}

// Name returns the combined backend names.
func (m *MultiBackend) Name() string {
	return m.primary.Name() + "+" + m.secondary.Name()
}
