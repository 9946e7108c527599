// Package model defines the raw event produced by the log parsers.
package model

import "bytes"

// Event is a single parsed event before classification.
// Byte slices are reused through internal/pool; copy before retaining.
type Event struct {
	// CaseID identifies the trace the event belongs to.
	CaseID []byte

	// Activity is the concept:name of the event.
	Activity []byte

	// Lifecycle is the lifecycle:transition value (start, complete, ...).
	Lifecycle []byte

	// Resource is the org:resource value.
	Resource []byte

	// Timestamp in nanoseconds since Unix epoch; 0 when absent.
	Timestamp int64

	// Attributes holds the remaining key-value pairs.
	Attributes []Attribute
}

// Attribute is a key-value pair attached to an event.
type Attribute struct {
	Key   []byte
	Value []byte
}

// Lifecycle transitions recognised by lifecycle repair.
var (
	TransitionStart    = []byte("start")
	TransitionComplete = []byte("complete")
)

// IsStart reports whether the event is a lifecycle start.
func (e *Event) IsStart() bool {
	return bytes.EqualFold(e.Lifecycle, TransitionStart)
}

// IsComplete reports whether the event completes an activity.
// Events without lifecycle information count as complete.
func (e *Event) IsComplete() bool {
	return len(e.Lifecycle) == 0 || bytes.EqualFold(e.Lifecycle, TransitionComplete)
}

// Attr returns the value of the attribute with the given key.
func (e *Event) Attr(key string) ([]byte, bool) {
	for _, a := range e.Attributes {
		if string(a.Key) == key {
			return a.Value, true
		}
	}
	return nil, false
}

// Clone returns a deep copy that does not share buffers with e.
func (e *Event) Clone() *Event {
	c := &Event{
		CaseID:    append([]byte(nil), e.CaseID...),
		Activity:  append([]byte(nil), e.Activity...),
		Lifecycle: append([]byte(nil), e.Lifecycle...),
		Resource:  append([]byte(nil), e.Resource...),
		Timestamp: e.Timestamp,
	}
	if len(e.Attributes) > 0 {
		c.Attributes = make([]Attribute, len(e.Attributes))
		for i, a := range e.Attributes {
			c.Attributes[i] = Attribute{
				Key:   append([]byte(nil), a.Key...),
				Value: append([]byte(nil), a.Value...),
			}
		}
	}
	return c
}

// Reset clears the event for reuse from a pool.
func (e *Event) Reset() {
	e.CaseID = e.CaseID[:0]
	e.Activity = e.Activity[:0]
	e.Lifecycle = e.Lifecycle[:0]
	e.Resource = e.Resource[:0]
	e.Timestamp = 0
	e.Attributes = e.Attributes[:0]
}
