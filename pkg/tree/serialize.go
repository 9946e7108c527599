package tree

import (
	"encoding/json"
	"fmt"
)

// Manifest is the serializable form of the reachable part of a tree.
type Manifest struct {
	Version string        `json:"version"`
	Root    *ManifestNode `json:"root,omitempty"`
	Stats   ManifestStats `json:"stats"`
}

// ManifestStats contains serializable statistics.
type ManifestStats struct {
	Nodes      int `json:"nodes"`
	Depth      int `json:"depth"`
	Activities int `json:"activities"`
	Taus       int `json:"taus"`
}

// ManifestNode is a nested node.
type ManifestNode struct {
	Type     string          `json:"type"`
	Label    string          `json:"label,omitempty"`
	Children []*ManifestNode `json:"children,omitempty"`
}

// ToManifest converts the reachable tree to a nested Manifest.
func (t *Tree) ToManifest() *Manifest {
	st := t.Stats()
	m := &Manifest{
		Version: "1.0",
		Stats: ManifestStats{
			Nodes:      st.Nodes,
			Depth:      st.Depth,
			Activities: st.Activities,
			Taus:       st.Taus,
		},
	}
	if root := t.Root(); root != NoNode {
		m.Root = t.manifestNode(root)
	}
	return m
}

func (t *Tree) manifestNode(id NodeID) *ManifestNode {
	n := t.Node(id)
	mn := &ManifestNode{Type: n.Kind.String(), Label: n.Label}
	for _, c := range n.Children {
		mn.Children = append(mn.Children, t.manifestNode(c))
	}
	return mn
}

// MarshalJSON encodes the tree as its Manifest.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ToManifest())
}

// FromManifest rebuilds a tree, appending children before parents.
func FromManifest(m *Manifest) (*Tree, error) {
	t := New()
	if m.Root == nil {
		return t, nil
	}
	root, err := t.appendManifest(m.Root)
	if err != nil {
		return nil, err
	}
	if err := t.SetRoot(root); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) appendManifest(mn *ManifestNode) (NodeID, error) {
	kind, ok := ParseKind(mn.Type)
	if !ok {
		return NoNode, fmt.Errorf("%w: unknown node type %q", ErrInvalidNode, mn.Type)
	}
	children := make([]NodeID, 0, len(mn.Children))
	for _, c := range mn.Children {
		id, err := t.appendManifest(c)
		if err != nil {
			return NoNode, err
		}
		children = append(children, id)
	}
	return t.Append(Node{Kind: kind, Label: mn.Label, Children: children})
}

// UnmarshalJSON decodes a Manifest into t. t must be empty.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	decoded, err := FromManifest(&m)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nodes = decoded.nodes
	t.root = decoded.root
	return nil
}
