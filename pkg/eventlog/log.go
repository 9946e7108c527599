// Package eventlog holds the classified event log the miner works on: an
// ordered list of traces, each an ordered list of activity labels.
package eventlog

import (
	"sort"
	"strings"
)

// Trace is one process execution as a sequence of activity labels.
type Trace []string

// String renders the trace as <a,b,c>.
func (t Trace) String() string {
	return "<" + strings.Join(t, ",") + ">"
}

// Log is an ordered sequence of traces. Sub-logs created by splitting own
// their trace slices; nothing is shared with the parent log.
type Log struct {
	Traces []Trace
}

// New creates a log from traces. The traces are copied.
func New(traces ...Trace) *Log {
	l := &Log{Traces: make([]Trace, len(traces))}
	for i, t := range traces {
		l.Traces[i] = append(Trace(nil), t...)
	}
	return l
}

// Repeat builds a log holding n copies of each trace, in order.
// Repeat(10, Trace{"a","b"}) is shorthand for ten <a,b> traces.
func Repeat(n int, traces ...Trace) *Log {
	l := &Log{Traces: make([]Trace, 0, n*len(traces))}
	for _, t := range traces {
		for i := 0; i < n; i++ {
			l.Traces = append(l.Traces, append(Trace(nil), t...))
		}
	}
	return l
}

// Append adds a copy of each trace to the log.
func (l *Log) Append(traces ...Trace) {
	for _, t := range traces {
		l.Traces = append(l.Traces, append(Trace(nil), t...))
	}
}

// Merge appends copies of all traces of other.
func (l *Log) Merge(other *Log) {
	l.Append(other.Traces...)
}

// Len returns the number of traces.
func (l *Log) Len() int {
	return len(l.Traces)
}

// EventCount returns the total number of events over all traces.
func (l *Log) EventCount() int {
	n := 0
	for _, t := range l.Traces {
		n += len(t)
	}
	return n
}

// Activities returns the distinct activity labels, sorted.
func (l *Log) Activities() []string {
	seen := make(map[string]struct{})
	for _, t := range l.Traces {
		for _, a := range t {
			seen[a] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of the log.
func (l *Log) Clone() *Log {
	return New(l.Traces...)
}

// Without returns a copy of the log with every event of activity removed.
// Traces that become empty are kept as empty traces.
func (l *Log) Without(activity string) *Log {
	out := &Log{Traces: make([]Trace, 0, len(l.Traces))}
	for _, t := range l.Traces {
		nt := make(Trace, 0, len(t))
		for _, a := range t {
			if a != activity {
				nt = append(nt, a)
			}
		}
		out.Traces = append(out.Traces, nt)
	}
	return out
}

// WithoutEmpty returns a copy of the log with empty traces dropped.
func (l *Log) WithoutEmpty() *Log {
	out := &Log{Traces: make([]Trace, 0, len(l.Traces))}
	for _, t := range l.Traces {
		if len(t) > 0 {
			out.Traces = append(out.Traces, append(Trace(nil), t...))
		}
	}
	return out
}

// Variants returns the distinct traces with their frequency, most
// frequent first; ties are ordered by their string form.
func (l *Log) Variants() []Variant {
	counts := make(map[string]*Variant)
	for _, t := range l.Traces {
		key := strings.Join(t, "\x00")
		v, ok := counts[key]
		if !ok {
			v = &Variant{Trace: append(Trace(nil), t...)}
			counts[key] = v
		}
		v.Count++
	}
	out := make([]Variant, 0, len(counts))
	for _, v := range counts {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Trace.String() < out[j].Trace.String()
	})
	return out
}

// Variant is a distinct trace and how often it occurs.
type Variant struct {
	Trace Trace
	Count int
}
