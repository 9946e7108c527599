package tree

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T) *Tree {
	t.Helper()
	tr := New()
	a, _ := tr.Activity("a")
	b, _ := tr.Activity("b")
	tau, _ := tr.Tau()
	x, err := tr.Operator(KindXor, b, tau)
	require.NoError(t, err)
	c, _ := tr.Activity("c")
	d, _ := tr.Activity("d")
	tau2, _ := tr.Tau()
	loop, err := tr.Operator(KindLoop, c, d, tau2)
	require.NoError(t, err)
	seq, err := tr.Operator(KindSequence, a, x, loop)
	require.NoError(t, err)
	require.NoError(t, tr.SetRoot(seq))
	return tr
}

func TestString(t *testing.T) {
	tr := build(t)
	assert.Equal(t, "->(a, X(b, tau), *(c, d, tau))", tr.String())
	assert.Equal(t, "<empty>", New().String())
}

func TestAppend_Validation(t *testing.T) {
	tr := New()
	a, _ := tr.Activity("a")
	b, _ := tr.Activity("b")

	tests := []struct {
		name string
		node Node
	}{
		{"activity without label", Node{Kind: KindActivity}},
		{"tau with children", Node{Kind: KindTau, Children: []NodeID{a}}},
		{"binary loop", Node{Kind: KindLoop, Children: []NodeID{a, b}}},
		{"unary sequence", Node{Kind: KindSequence, Children: []NodeID{a}}},
		{"dangling child", Node{Kind: KindXor, Children: []NodeID{a, 42}}},
		{"unknown kind", Node{Kind: Kind(99)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Append(tt.node)
			assert.ErrorIs(t, err, ErrInvalidNode)
		})
	}
	assert.Equal(t, 2, tr.Len(), "rejected nodes must not be stored")
}

func TestAppend_CopiesChildren(t *testing.T) {
	tr := New()
	a, _ := tr.Activity("a")
	b, _ := tr.Activity("b")
	children := []NodeID{a, b}
	p, err := tr.Operator(KindParallel, children...)
	require.NoError(t, err)
	children[0] = b
	assert.Equal(t, []NodeID{a, b}, tr.Node(p).Children)
}

func TestAppend_Concurrent(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.Tau()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, tr.Len())
}

func TestStats(t *testing.T) {
	s := build(t).Stats()
	assert.Equal(t, 9, s.Nodes)
	assert.Equal(t, 3, s.Depth)
	assert.Equal(t, 4, s.Activities)
	assert.Equal(t, 2, s.Taus)
	assert.Equal(t, 1, s.ByKind[KindLoop])
}

func TestJSON_RoundTrip(t *testing.T) {
	tr := build(t)
	data, err := json.Marshal(tr)
	require.NoError(t, err)

	var back Tree
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tr.String(), back.String())
}

func TestFromManifest_UnknownType(t *testing.T) {
	_, err := FromManifest(&Manifest{Root: &ManifestNode{Type: "or"}})
	assert.ErrorIs(t, err, ErrInvalidNode)
}

func TestParseKind(t *testing.T) {
	for k := KindActivity; k <= KindMaybeInterleaved; k++ {
		got, ok := ParseKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseKind("or")
	assert.False(t, ok)
}

func TestIndented(t *testing.T) {
	tr := New()
	a, _ := tr.Activity("a")
	b, _ := tr.Activity("b")
	p, _ := tr.Operator(KindParallel, a, b)
	require.NoError(t, tr.SetRoot(p))
	assert.Equal(t, "+\n  a\n  b\n", tr.Indented("  "))
}
