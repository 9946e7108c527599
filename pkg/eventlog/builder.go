package eventlog

import (
	"context"
	"sort"

	"github.com/logflow/procmine/internal/model"
	"github.com/logflow/procmine/pkg/errors"
)

// BuildOptions controls how raw events become a Log.
type BuildOptions struct {
	// Classifier maps events to activity labels; NameClassifier if nil.
	Classifier Classifier

	// RepairLifeCycle pairs start/complete transitions and keeps one
	// event per activity instance before classification.
	RepairLifeCycle bool

	// SortByTime orders each trace by timestamp (stable); otherwise the
	// arrival order of the events is kept.
	SortByTime bool

	// Release, if set, is handed each event once it has been copied.
	Release func(*model.Event)
}

// Builder accumulates raw events grouped by case id. Cases keep the order
// in which their first event arrived.
type Builder struct {
	opts  BuildOptions
	cases map[string]int
	raw   [][]*model.Event
}

// NewBuilder creates a builder.
func NewBuilder(opts BuildOptions) *Builder {
	if opts.Classifier == nil {
		opts.Classifier = NameClassifier
	}
	return &Builder{
		opts:  opts,
		cases: make(map[string]int),
	}
}

// Add records a copy of e; the caller may reuse e afterwards.
func (b *Builder) Add(e *model.Event) {
	id := string(e.CaseID)
	idx, ok := b.cases[id]
	if !ok {
		idx = len(b.raw)
		b.cases[id] = idx
		b.raw = append(b.raw, nil)
	}
	b.raw[idx] = append(b.raw[idx], e.Clone())
}

// Cases returns the number of distinct cases seen so far.
func (b *Builder) Cases() int {
	return len(b.raw)
}

// Log classifies the accumulated events into a Log.
func (b *Builder) Log() *Log {
	l := &Log{Traces: make([]Trace, 0, len(b.raw))}
	for _, events := range b.raw {
		if b.opts.SortByTime {
			sort.SliceStable(events, func(i, j int) bool {
				return events[i].Timestamp < events[j].Timestamp
			})
		}
		if b.opts.RepairLifeCycle {
			events = RepairLifeCycle(events)
		}
		t := make(Trace, 0, len(events))
		for _, e := range events {
			t = append(t, b.opts.Classifier(e))
		}
		l.Traces = append(l.Traces, t)
	}
	return l
}

// FromEvents drains events into a Log. The channel must be closed by the
// producer; FromEvents stops early when ctx is cancelled.
func FromEvents(ctx context.Context, events <-chan *model.Event, opts BuildOptions) (*Log, error) {
	b := NewBuilder(opts)
	for {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), errors.CodeContextCanceled, "building event log")
		case e, ok := <-events:
			if !ok {
				return b.Log(), nil
			}
			b.Add(e)
			if opts.Release != nil {
				opts.Release(e)
			}
		}
	}
}
