// Package tree implements the process tree produced by discovery.
//
// Nodes live in an arena and refer to their children by index, so a tree
// can be built bottom-up from concurrent recursion without shared
// pointers:
//   - Append is the only mutation and is serialized by a mutex
//   - a node may only reference children that already exist
//   - loop nodes always have exactly three children (body, redo, exit)
package tree

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidNode is returned by Append for structurally invalid nodes.
var ErrInvalidNode = errors.New("tree: invalid node")

// Kind is the type of a process tree node.
type Kind uint8

const (
	KindActivity Kind = iota
	KindTau
	KindSequence
	KindXor
	KindParallel
	KindLoop
	KindInterleaved
	KindMaybeInterleaved
)

var kindNames = [...]string{
	KindActivity:         "activity",
	KindTau:              "tau",
	KindSequence:         "sequence",
	KindXor:              "xor",
	KindParallel:         "parallel",
	KindLoop:             "loop",
	KindInterleaved:      "interleaved",
	KindMaybeInterleaved: "maybe-interleaved",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// IsOperator reports whether nodes of this kind have children.
func (k Kind) IsOperator() bool {
	return k >= KindSequence && k <= KindMaybeInterleaved
}

// NodeID indexes a node in its tree's arena.
type NodeID int32

// NoNode is the zero value for "no node".
const NoNode NodeID = -1

// Node is a process tree node. Leaves carry a Label (activity) or are
// silent (tau); operators carry children in order.
type Node struct {
	Kind     Kind
	Label    string
	Children []NodeID
}

// Tree is an arena of nodes with a designated root.
type Tree struct {
	mu    sync.Mutex
	nodes []Node
	root  NodeID
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{root: NoNode}
}

// Append validates n and adds it to the arena. Children must already be
// in the tree. The children slice is copied.
func (t *Tree) Append(n Node) (NodeID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case n.Kind == KindActivity:
		if n.Label == "" || len(n.Children) > 0 {
			return NoNode, fmt.Errorf("%w: activity leaf needs a label and no children", ErrInvalidNode)
		}
	case n.Kind == KindTau:
		if len(n.Children) > 0 {
			return NoNode, fmt.Errorf("%w: tau leaf has children", ErrInvalidNode)
		}
	case n.Kind == KindLoop:
		if len(n.Children) != 3 {
			return NoNode, fmt.Errorf("%w: loop needs 3 children, got %d", ErrInvalidNode, len(n.Children))
		}
	case n.Kind.IsOperator():
		if len(n.Children) < 2 {
			return NoNode, fmt.Errorf("%w: %s needs at least 2 children", ErrInvalidNode, n.Kind)
		}
	default:
		return NoNode, fmt.Errorf("%w: unknown kind %s", ErrInvalidNode, n.Kind)
	}
	for _, c := range n.Children {
		if c < 0 || int(c) >= len(t.nodes) {
			return NoNode, fmt.Errorf("%w: child %d does not exist", ErrInvalidNode, c)
		}
	}

	n.Children = append([]NodeID(nil), n.Children...)
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1), nil
}

// Activity appends an activity leaf.
func (t *Tree) Activity(label string) (NodeID, error) {
	return t.Append(Node{Kind: KindActivity, Label: label})
}

// Tau appends a silent leaf.
func (t *Tree) Tau() (NodeID, error) {
	return t.Append(Node{Kind: KindTau})
}

// Operator appends an operator node over existing children.
func (t *Tree) Operator(kind Kind, children ...NodeID) (NodeID, error) {
	return t.Append(Node{Kind: kind, Children: children})
}

// SetRoot designates the root.
func (t *Tree) SetRoot(id NodeID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || int(id) >= len(t.nodes) {
		return fmt.Errorf("%w: root %d does not exist", ErrInvalidNode, id)
	}
	t.root = id
	return nil
}

// Root returns the root, or NoNode before SetRoot.
func (t *Tree) Root() NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root
}

// Len returns the number of nodes in the arena, reachable or not.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes)
}

// Node returns a copy of the node with the given id.
func (t *Tree) Node(id NodeID) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.nodes[id]
	n.Children = append([]NodeID(nil), n.Children...)
	return n
}

// Walk visits the subtree under id depth-first, parents before children.
// Returning false from fn skips the node's children.
func (t *Tree) Walk(id NodeID, fn func(id NodeID, n Node, depth int) bool) {
	t.walk(id, 0, fn)
}

func (t *Tree) walk(id NodeID, depth int, fn func(NodeID, Node, int) bool) {
	n := t.Node(id)
	if !fn(id, n, depth) {
		return
	}
	for _, c := range n.Children {
		t.walk(c, depth+1, fn)
	}
}

// Stats summarises the subtree reachable from the root.
type Stats struct {
	Nodes      int          `json:"nodes"`
	Depth      int          `json:"depth"`
	Activities int          `json:"activities"`
	Taus       int          `json:"taus"`
	ByKind     map[Kind]int `json:"-"`
}

// Stats computes statistics over the reachable tree.
func (t *Tree) Stats() Stats {
	s := Stats{ByKind: make(map[Kind]int)}
	root := t.Root()
	if root == NoNode {
		return s
	}
	t.Walk(root, func(_ NodeID, n Node, depth int) bool {
		s.Nodes++
		s.ByKind[n.Kind]++
		if depth+1 > s.Depth {
			s.Depth = depth + 1
		}
		switch n.Kind {
		case KindActivity:
			s.Activities++
		case KindTau:
			s.Taus++
		}
		return true
	})
	return s
}
