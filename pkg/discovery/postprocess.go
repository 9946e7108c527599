package discovery

import (
	"context"

	"github.com/logflow/procmine/pkg/tree"
)

// flattenPostProcessor inlines children of the same associative operator:
// ->(a, ->(b, c)) becomes ->(a, b, c).
type flattenPostProcessor struct{}

func (flattenPostProcessor) Name() string { return "flatten" }

func (flattenPostProcessor) Process(ctx context.Context, n tree.Node, in *Input) (tree.Node, error) {
	switch n.Kind {
	case tree.KindSequence, tree.KindXor, tree.KindParallel:
	default:
		return n, nil
	}
	t := in.Tree()
	children := make([]tree.NodeID, 0, len(n.Children))
	for _, c := range n.Children {
		child := t.Node(c)
		if child.Kind == n.Kind {
			children = append(children, child.Children...)
		} else {
			children = append(children, c)
		}
	}
	n.Children = children
	return n, nil
}

// collapseTauPostProcessor removes redundant silent children: duplicates
// under a choice, and any under sequence or parallel while at least two
// other children remain.
type collapseTauPostProcessor struct{}

func (collapseTauPostProcessor) Name() string { return "collapse-tau" }

func (collapseTauPostProcessor) Process(ctx context.Context, n tree.Node, in *Input) (tree.Node, error) {
	t := in.Tree()
	var keep []tree.NodeID
	switch n.Kind {
	case tree.KindXor:
		seenTau := false
		for _, c := range n.Children {
			if t.Node(c).Kind == tree.KindTau {
				if seenTau {
					continue
				}
				seenTau = true
			}
			keep = append(keep, c)
		}
	case tree.KindSequence, tree.KindParallel:
		for _, c := range n.Children {
			if t.Node(c).Kind != tree.KindTau {
				keep = append(keep, c)
			}
		}
	default:
		return n, nil
	}
	if len(keep) >= 2 {
		n.Children = keep
	}
	return n, nil
}
