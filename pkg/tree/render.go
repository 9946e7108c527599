package tree

import (
	"strings"
)

var symbols = map[Kind]string{
	KindSequence:         "->",
	KindXor:              "X",
	KindParallel:         "+",
	KindLoop:             "*",
	KindInterleaved:      "<>",
	KindMaybeInterleaved: "<>?",
}

// Symbol returns the operator symbol used in the textual notation.
func (k Kind) Symbol() string {
	if s, ok := symbols[k]; ok {
		return s
	}
	return k.String()
}

// String renders the tree from its root in the usual process tree
// notation, e.g. ->(a, X(b, tau), *(c, d, tau)).
func (t *Tree) String() string {
	root := t.Root()
	if root == NoNode {
		return "<empty>"
	}
	return t.Format(root)
}

// Format renders the subtree under id on one line.
func (t *Tree) Format(id NodeID) string {
	var sb strings.Builder
	t.format(&sb, id)
	return sb.String()
}

func (t *Tree) format(sb *strings.Builder, id NodeID) {
	n := t.Node(id)
	switch n.Kind {
	case KindActivity:
		sb.WriteString(n.Label)
	case KindTau:
		sb.WriteString("tau")
	default:
		sb.WriteString(n.Kind.Symbol())
		sb.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteString(", ")
			}
			t.format(sb, c)
		}
		sb.WriteByte(')')
	}
}

// Indented renders the tree one node per line, children indented below
// their parent. Used by the CLI.
func (t *Tree) Indented(indent string) string {
	root := t.Root()
	if root == NoNode {
		return ""
	}
	var sb strings.Builder
	t.Walk(root, func(_ NodeID, n Node, depth int) bool {
		sb.WriteString(strings.Repeat(indent, depth))
		switch n.Kind {
		case KindActivity:
			sb.WriteString(n.Label)
		case KindTau:
			sb.WriteString("tau")
		default:
			sb.WriteString(n.Kind.Symbol())
		}
		sb.WriteByte('\n')
		return true
	})
	return sb.String()
}
