package graphalg

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalize(sets [][]int) [][]int {
	for _, s := range sets {
		sort.Ints(s)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i][0] < sets[j][0] })
	return sets
}

func TestStronglyConnected(t *testing.T) {
	// 0 -> 1 -> 2 -> 0, 2 -> 3, 3 -> 4 -> 3
	g := New(5)
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	g.AddEdge(2, 0)
	g.AddEdge(2, 3)
	g.AddEdge(3, 4)
	g.AddEdge(4, 3)

	sccs, err := StronglyConnected(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4}}, normalize(sccs))
}

func TestStronglyConnected_SinksFirst(t *testing.T) {
	g := New(3)
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)

	sccs, err := StronglyConnected(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{2}, {1}, {0}}, sccs)
}

func TestStronglyConnected_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := StronglyConnected(ctx, New(3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCondense(t *testing.T) {
	// {0,1} -> {2} twice over, {2} -> {3}
	g := New(4)
	g.AddEdge(0, 1)
	g.AddEdge(1, 0)
	g.AddEdge(0, 2)
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)

	sccs, err := StronglyConnected(context.Background(), g)
	require.NoError(t, err)
	cg, of := Condense(g, sccs)

	require.Equal(t, 3, cg.N)
	assert.Equal(t, of[0], of[1])
	assert.Equal(t, []int{of[2]}, cg.Out[of[0]])
	assert.Equal(t, []int{of[3]}, cg.Out[of[2]])
	assert.Empty(t, cg.Out[of[3]])
}

func TestReachability(t *testing.T) {
	g := New(4)
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	g.AddEdge(3, 3)

	closure, err := g.Reachability(context.Background())
	require.NoError(t, err)

	assert.True(t, closure[0][2])
	assert.False(t, closure[2][0])
	assert.False(t, closure[0][0])
	assert.True(t, closure[3][3])
}

func TestWeakComponents(t *testing.T) {
	g := New(5)
	g.AddEdge(0, 1)
	g.AddEdge(3, 2)

	assert.Equal(t, [][]int{{0, 1}, {2, 3}, {4}}, WeakComponents(g))
}

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(4)
	uf.Union(0, 3)
	uf.Union(3, 1)

	assert.True(t, uf.Same(0, 1))
	assert.False(t, uf.Same(0, 2))
	assert.Equal(t, [][]int{{0, 1, 3}, {2}}, uf.Sets())
}
