package logstats

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/procmine/pkg/eventlog"
)

func TestCompute(t *testing.T) {
	l := eventlog.New(
		eventlog.Trace{"a", "b", "c"},
		eventlog.Trace{"a", "c", "b", "b"},
		eventlog.Trace{},
	)
	s := Compute(l)

	assert.Equal(t, []string{"a", "b", "c"}, s.Activities())
	assert.Equal(t, map[string]int{"a": 2}, s.Starts)
	assert.Equal(t, map[string]int{"c": 1, "b": 1}, s.Ends)
	assert.Equal(t, map[string]int{"a": 2, "b": 3, "c": 2}, s.ActivityCounts)
	assert.Equal(t, 1, s.EmptyTraces)
	assert.Equal(t, 3, s.TraceCount)
	assert.Equal(t, 7, s.EventCount)

	assert.Equal(t, 1, s.DFG.Weight("a", "b"))
	assert.Equal(t, 1, s.DFG.Weight("b", "b"))
	assert.Equal(t, 1, s.DFG.Weight("c", "b"))
	assert.False(t, s.DFG.HasEdge("b", "a"))

	assert.Equal(t, 2, s.MaxPerTrace["b"])
	// the empty trace lacks every activity
	assert.Equal(t, 0, s.MinPerTrace["a"])
	assert.Equal(t, []uint32{0, 1}, s.TraceSets["b"].ToArray())
	assert.Equal(t, 2, s.TracesWith("c"))
	assert.Zero(t, s.TracesWith("x"))
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(eventlog.Repeat(3, eventlog.Trace{}))
	assert.Empty(t, s.Activities())
	assert.Empty(t, s.DFG.EdgeList())
	assert.Empty(t, s.Starts)
	assert.Empty(t, s.Ends)
	assert.Equal(t, 3, s.EmptyTraces)
	assert.Equal(t, 3, s.TraceCount)

	s = Compute(eventlog.New())
	assert.Empty(t, s.Activities())
	assert.Equal(t, 0, s.TraceCount)
}

func TestCompute_Idempotent(t *testing.T) {
	l := eventlog.New(eventlog.Trace{"x", "y"}, eventlog.Trace{"y", "x", "z"})
	a, b := Compute(l), Compute(l)
	if diff := cmp.Diff(a.DFG, b.DFG); diff != "" {
		t.Errorf("DFG differs between runs:\n%s", diff)
	}
	assert.Equal(t, a.Starts, b.Starts)
	assert.Equal(t, a.Ends, b.Ends)
	assert.Equal(t, a.DFG.EdgeList(), b.DFG.EdgeList())
}

func TestOncePerTrace(t *testing.T) {
	s := Compute(eventlog.New(eventlog.Trace{"a", "b", "b"}, eventlog.Trace{"b", "a"}))
	assert.True(t, s.OncePerTrace("a"))
	assert.False(t, s.OncePerTrace("b"))

	// an empty trace lacks a
	s = Compute(eventlog.New(eventlog.Trace{"a", "b"}, eventlog.Trace{}))
	assert.False(t, s.OncePerTrace("a"))
}

func TestSharesTraces(t *testing.T) {
	s := Compute(eventlog.New(eventlog.Trace{"a", "b"}, eventlog.Trace{"d"}, eventlog.Trace{"d", "d"}))
	assert.True(t, s.SharesTraces("a"))
	assert.True(t, s.SharesTraces("b"))
	assert.False(t, s.SharesTraces("d"))
	assert.False(t, s.SharesTraces("x"))

	// filtering keeps the trace sets of surviving activities
	f := s.Filter(0.5)
	assert.Equal(t, s.TracesWith("d"), f.TracesWith("d"))
}

func TestGraph(t *testing.T) {
	s := Compute(eventlog.New(eventlog.Trace{"a", "b"}, eventlog.Trace{"b", "c"}))
	g := s.DFG.Graph()
	require.Equal(t, 3, g.N)
	assert.True(t, g.HasEdge(0, 1))
	assert.True(t, g.HasEdge(1, 2))
	assert.False(t, g.HasEdge(2, 0))
}

func TestFilter(t *testing.T) {
	l := eventlog.Repeat(10, eventlog.Trace{"a", "b"})
	l.Append(eventlog.Trace{"a", "x", "b"})
	s := Compute(l)

	assert.Same(t, s, s.Filter(0))

	f := s.Filter(0.2)
	assert.Equal(t, []string{"a", "b"}, f.Activities())
	assert.True(t, f.DFG.HasEdge("a", "b"))
	assert.False(t, f.DFG.HasEdge("a", "x"))
	assert.Equal(t, 20, f.EventCount)
	assert.Equal(t, s.TraceCount, f.TraceCount)

	// receiver untouched
	assert.Equal(t, []string{"a", "b", "x"}, s.Activities())
	assert.True(t, s.DFG.HasEdge("a", "x"))
}

func TestFilter_InfrequentEdgesAndBoundaries(t *testing.T) {
	l := eventlog.Repeat(9, eventlog.Trace{"a", "b", "c"})
	l.Append(eventlog.Trace{"b", "a", "c"})
	s := Compute(l)
	f := s.Filter(0.5)

	assert.Equal(t, map[string]int{"a": 9}, f.Starts)
	assert.Equal(t, map[string]int{"c": 10}, f.Ends)
	assert.False(t, f.DFG.HasEdge("b", "a"))
	assert.True(t, f.DFG.HasEdge("a", "b"))
}

func TestFilter_KeepsOneStart(t *testing.T) {
	// the dominant start activity is itself filtered out as noise
	l := eventlog.Repeat(5, eventlog.Trace{"s", "m", "m", "m", "m", "m", "m", "m", "m", "m", "m"})
	l.Append(eventlog.Trace{"m"})
	s := Compute(l)
	f := s.Filter(0.2)

	assert.NotContains(t, f.Activities(), "s")
	assert.Equal(t, map[string]int{"m": 1}, f.Starts)
}
