// Package pool provides sync.Pool backed reuse for parsed events and the
// label slices built while splitting logs.
package pool

import (
	"sync"

	"github.com/logflow/procmine/internal/model"
)

const (
	// DefaultBufferSize is the default read buffer and batch size of the
	// parsers.
	DefaultBufferSize = 64 * 1024 // 64KB

	// DefaultTraceCapacity is the starting capacity of pooled label slices.
	DefaultTraceCapacity = 32
)

// EventPool manages reusable Event structs.
type EventPool struct {
	pool sync.Pool
}

// NewEventPool creates a new event pool.
func NewEventPool() *EventPool {
	ep := &EventPool{}
	ep.pool.New = func() any {
		return &model.Event{
			CaseID:     make([]byte, 0, 64),
			Activity:   make([]byte, 0, 128),
			Lifecycle:  make([]byte, 0, 16),
			Resource:   make([]byte, 0, 64),
			Attributes: make([]model.Attribute, 0, 8),
		}
	}
	return ep
}

// Get retrieves an event from the pool.
func (p *EventPool) Get() *model.Event {
	return p.pool.Get().(*model.Event)
}

// Put returns an event to the pool.
func (p *EventPool) Put(e *model.Event) {
	e.Reset()
	p.pool.Put(e)
}

// Labels is a reusable scratch slice of activity labels.
type Labels struct {
	Items []string
}

// Reset empties the slice and drops label references.
func (l *Labels) Reset() {
	clear(l.Items)
	l.Items = l.Items[:0]
}

// Copy returns an owned copy of the current items.
func (l *Labels) Copy() []string {
	out := make([]string, len(l.Items))
	copy(out, l.Items)
	return out
}

// LabelPool manages scratch label slices used while projecting traces.
type LabelPool struct {
	pool sync.Pool
}

// NewLabelPool creates a new label pool.
func NewLabelPool() *LabelPool {
	lp := &LabelPool{}
	lp.pool.New = func() any {
		return &Labels{Items: make([]string, 0, DefaultTraceCapacity)}
	}
	return lp
}

// Get retrieves a scratch slice from the pool.
func (p *LabelPool) Get() *Labels {
	return p.pool.Get().(*Labels)
}

// Put returns a scratch slice to the pool.
func (p *LabelPool) Put(l *Labels) {
	l.Reset()
	p.pool.Put(l)
}
