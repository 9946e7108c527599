// Package transform reduces event logs before mining.
package transform

import (
	"math/rand"
	"sort"

	"github.com/logflow/procmine/pkg/eventlog"
)

// ReservoirSampler keeps a uniform sample of k traces from a stream of
// traces in one pass (Algorithm R). The sample keeps the stream order.
type ReservoirSampler struct {
	picked []sampled
	k      int
	n      int
	rng    *rand.Rand
}

type sampled struct {
	pos   int
	trace eventlog.Trace
}

// NewReservoirSampler creates a sampler for k traces. The same seed
// yields the same sample for the same stream.
func NewReservoirSampler(k int, seed int64) *ReservoirSampler {
	if k < 0 {
		k = 0
	}
	return &ReservoirSampler{
		picked: make([]sampled, 0, k),
		k:      k,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Add offers the next trace. After the first k, trace i replaces a random
// pick with probability k/i.
func (s *ReservoirSampler) Add(t eventlog.Trace) {
	pos := s.n
	s.n++
	if len(s.picked) < s.k {
		s.picked = append(s.picked, sampled{pos, t})
		return
	}
	if s.k == 0 {
		return
	}
	if j := s.rng.Intn(s.n); j < s.k {
		s.picked[j] = sampled{pos, t}
	}
}

// Count returns the number of traces offered.
func (s *ReservoirSampler) Count() int { return s.n }

// Log returns the sample as a new log in stream order.
func (s *ReservoirSampler) Log() *eventlog.Log {
	picked := append([]sampled(nil), s.picked...)
	sort.Slice(picked, func(i, j int) bool { return picked[i].pos < picked[j].pos })
	traces := make([]eventlog.Trace, len(picked))
	for i, p := range picked {
		traces[i] = p.trace
	}
	return eventlog.New(traces...)
}

// SampleTraces returns k traces of l chosen uniformly at random. Logs
// with at most k traces are cloned unchanged.
func SampleTraces(l *eventlog.Log, k int, seed int64) *eventlog.Log {
	if k >= l.Len() {
		return l.Clone()
	}
	s := NewReservoirSampler(k, seed)
	for _, t := range l.Traces {
		s.Add(t)
	}
	return s.Log()
}

// SampleRate keeps each trace of l independently with probability rate.
func SampleRate(l *eventlog.Log, rate float64, seed int64) *eventlog.Log {
	switch {
	case rate >= 1:
		return l.Clone()
	case rate <= 0:
		return eventlog.New()
	}
	rng := rand.New(rand.NewSource(seed))
	out := eventlog.New()
	for _, t := range l.Traces {
		if rng.Float64() < rate {
			out.Append(t)
		}
	}
	return out
}

// SampleVariants keeps at most perVariant traces of every distinct trace,
// in log order. It bounds the weight of very frequent variants.
func SampleVariants(l *eventlog.Log, perVariant int) *eventlog.Log {
	seen := make(map[string]int)
	out := eventlog.New()
	for _, t := range l.Traces {
		key := t.String()
		if seen[key] >= perVariant {
			continue
		}
		seen[key]++
		out.Append(t)
	}
	return out
}
