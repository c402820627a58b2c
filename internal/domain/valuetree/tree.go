// Package valuetree builds the runtime tree of values validated in one run.
// Nodes live in an arena owned by Tree and refer to each other by NodeID;
// a parent link is an index, never an owning pointer.
package valuetree

import (
	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// NodeID addresses a node within its Tree.
type NodeID int

// NoParent is the Parent of the root node.
const NoParent NodeID = -1

// Node is the runtime counterpart of a manifest node for one concrete value.
type Node struct {
	Identity any
	Response *values.ValueResponse
	// Manifest is the node declared at this position.
	Manifest *manifest.Node
	// Effective is the node whose children and rules apply (differs from
	// Manifest for recursive nodes).
	Effective *manifest.Node
	// Type is the declared type, or the matched branch's type.
	Type     string
	Path     string
	Rules    []*manifest.Rule
	Children []NodeID
	ID       NodeID
	Parent   NodeID
	// ItemIndex is the zero-based position within an enumerated collection,
	// or -1 when the node is not a collection item.
	ItemIndex int
}

// IsItem reports whether the node was produced by enumerating a collection.
func (n *Node) IsItem() bool {
	return n.ItemIndex >= 0
}

// Value returns the value read for this node (nil unless successful).
func (n *Node) Value() any {
	return n.Response.Value()
}

// At reports whether the node sits at the given manifest position.
func (n *Node) At(position *manifest.Node) bool {
	return n.Manifest == position || n.Effective == position
}

// Tree is an arena of nodes. The root is always NodeID 0.
type Tree struct {
	nodes []Node
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return &t.nodes[0]
}

// Node returns the node with the given ID.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Parent returns the parent of n, or false for the root.
func (t *Tree) Parent(n *Node) (*Node, bool) {
	if n.Parent == NoParent {
		return nil, false
	}
	return &t.nodes[n.Parent], true
}

// Children returns the children of n in order.
func (t *Tree) Children(n *Node) []*Node {
	out := make([]*Node, len(n.Children))
	for i, id := range n.Children {
		out[i] = &t.nodes[id]
	}
	return out
}

// Ancestors returns the ancestors of n, nearest first.
func (t *Tree) Ancestors(n *Node) []*Node {
	var out []*Node
	for p, ok := t.Parent(n); ok; p, ok = t.Parent(p) {
		out = append(out, p)
	}
	return out
}

// Walk visits every node depth-first, parents before children.
func (t *Tree) Walk(fn func(n *Node)) {
	if len(t.nodes) == 0 {
		return
	}
	var visit func(id NodeID)
	visit = func(id NodeID) {
		n := &t.nodes[id]
		fn(n)
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(0)
}

func (t *Tree) add(n Node) NodeID {
	id := NodeID(len(t.nodes))
	n.ID = id
	t.nodes = append(t.nodes, n)
	if n.Parent != NoParent {
		parent := &t.nodes[n.Parent]
		parent.Children = append(parent.Children, id)
	}
	return id
}
