package discovery

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logflow/procmine/pkg/eventlog"
	"github.com/logflow/procmine/pkg/logstats"
	"github.com/logflow/procmine/pkg/tree"
)

type tr = eventlog.Trace

func newState(t *testing.T, threshold float64) *State {
	t.Helper()
	st, err := NewState(threshold, DefaultChains(), false, nil)
	require.NoError(t, err)
	return st
}

func discover(t *testing.T, st *State, l *eventlog.Log, opts ...Option) *Result {
	t.Helper()
	res, err := NewBuilder(st, opts...).Discover(context.Background(), l)
	require.NoError(t, err)
	require.False(t, res.Cancelled)
	require.NotNil(t, res.Tree)
	return res
}

// countingCuts finds nothing and counts invocations.
type countingCuts struct {
	calls atomic.Int64
}

func (c *countingCuts) Name() string { return "counting" }

func (c *countingCuts) Find(ctx context.Context, s *logstats.Snapshot, st *State) (Cut, error) {
	c.calls.Add(1)
	return NoCut, nil
}

// loopsAreTernary walks the reachable tree checking loop arity.
func loopsAreTernary(t *testing.T, pt *tree.Tree, root tree.NodeID) {
	t.Helper()
	pt.Walk(root, func(id tree.NodeID, n tree.Node, _ int) bool {
		if n.Kind == tree.KindLoop {
			require.Len(t, n.Children, 3, "loop node %d", id)
		}
		return true
	})
}

func sampleLogs() []*eventlog.Log {
	return []*eventlog.Log{
		eventlog.Repeat(10, tr{"a", "b", "c"}),
		eventlog.New(tr{"a", "b"}, tr{"b", "a"}, tr{"a", "b"}),
		eventlog.New(tr{"a", "b", "d"}, tr{"a", "c", "d"}),
		eventlog.New(tr{"a"}, tr{"a", "b", "a"}, tr{"a", "c", "a"}),
		eventlog.New(tr{"a1", "a2", "b1", "b2"}, tr{"b1", "b2", "a1", "a2"}),
		eventlog.New(tr{"a", "b", "a", "b"}, tr{"a", "b"}),
		eventlog.New(tr{"a", "b", "c", "d"}, tr{"a", "c", "b", "d"}, tr{"a", "x", "d"}, tr{"e"}),
		eventlog.New(tr{"x", "y"}, tr{"y", "z", "x"}, tr{"z"}, tr{"x", "x", "y", "z"}),
	}
}
