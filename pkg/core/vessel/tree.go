package vessel

import (
	"errors"
	"slices"
)

var (
	// ErrUnknownNode is returned when a NodeID does not address a node of the tree.
	ErrUnknownNode = errors.New("unknown node")

	// ErrRootExists is returned by [Tree.SetRoot] when the tree already has a root.
	ErrRootExists = errors.New("tree already has a root")

	// ErrCycle is returned by [Tree.SetChildren] when a child is the node itself,
	// one of its ancestors, or the root.
	ErrCycle = errors.New("child would create a cycle")
)

// NodeID addresses a node inside a [Tree].
type NodeID int

// NoNode is the parent of the root and the ID of nothing.
const NoNode NodeID = -1

type node struct {
	seg      Segment
	parent   NodeID
	children []NodeID
}

// Tree owns the segments of a vascular network.
//
// The zero value is an empty tree ready for use.
type Tree struct {
	nodes []node
	root  NodeID
	init  bool
}

// New returns an empty tree.
func New() *Tree { return &Tree{root: NoNode, init: true} }

func (t *Tree) ensure() {
	if !t.init {
		t.root = NoNode
		t.init = true
	}
}

// SetRoot creates the root node holding seg.
func (t *Tree) SetRoot(seg Segment) (NodeID, error) {
	t.ensure()
	if t.root != NoNode {
		return NoNode, ErrRootExists
	}
	t.root = t.NewNode(seg)
	return t.root, nil
}

// NewNode adds a detached node holding seg and returns its ID. The node joins
// the tree once it is passed to [Tree.SetChildren].
func (t *Tree) NewNode(seg Segment) NodeID {
	t.ensure()
	t.nodes = append(t.nodes, node{seg: seg, parent: NoNode})
	return NodeID(len(t.nodes) - 1)
}

// Root returns the root ID, or NoNode for an empty tree.
func (t *Tree) Root() NodeID {
	t.ensure()
	return t.root
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.nodes) }

// Has reports whether id addresses a node.
func (t *Tree) Has(id NodeID) bool { return id >= 0 && int(id) < len(t.nodes) }

// Segment returns the payload of id. It panics on an unknown ID.
func (t *Tree) Segment(id NodeID) Segment { return t.nodes[id].seg }

// Parent returns the parent of id, or NoNode for the root and detached nodes.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// Children returns a copy of the child list of id.
func (t *Tree) Children(id NodeID) []NodeID { return slices.Clone(t.nodes[id].children) }

// IsLeaf reports whether id has no children.
func (t *Tree) IsLeaf(id NodeID) bool { return len(t.nodes[id].children) == 0 }

// SetSegment replaces the payload of id. A non-root node keeps its start
// pinned to the parent's end, and every child is re-anchored on the new end.
func (t *Tree) SetSegment(id NodeID, seg Segment) error {
	if !t.Has(id) {
		return ErrUnknownNode
	}
	if p := t.nodes[id].parent; p != NoNode {
		seg.Start = t.nodes[p].seg.End
	}
	t.nodes[id].seg = seg
	for _, c := range t.nodes[id].children {
		t.nodes[c].seg.Start = seg.End
	}
	return nil
}

// Update applies fn to the payload of id and stores the result through
// [Tree.SetSegment].
func (t *Tree) Update(id NodeID, fn func(*Segment)) error {
	if !t.Has(id) {
		return ErrUnknownNode
	}
	seg := t.nodes[id].seg
	fn(&seg)
	return t.SetSegment(id, seg)
}

// SetChildren replaces the child list of id with kids, in order.
//
// Former children that are not in kids become detached. A kid attached to
// another parent is moved. Every kid is re-anchored to start at the end of id.
func (t *Tree) SetChildren(id NodeID, kids ...NodeID) error {
	if !t.Has(id) {
		return ErrUnknownNode
	}
	for _, k := range kids {
		if !t.Has(k) {
			return ErrUnknownNode
		}
		if k == t.root || k == id || t.isAncestor(k, id) {
			return ErrCycle
		}
	}

	for _, old := range t.nodes[id].children {
		if t.nodes[old].parent == id && !slices.Contains(kids, old) {
			t.nodes[old].parent = NoNode
		}
	}
	end := t.nodes[id].seg.End
	for _, k := range kids {
		if p := t.nodes[k].parent; p != NoNode && p != id {
			t.nodes[p].children = slices.DeleteFunc(t.nodes[p].children, func(c NodeID) bool { return c == k })
		}
		t.nodes[k].parent = id
		t.nodes[k].seg.Start = end
	}
	t.nodes[id].children = slices.Clone(kids)
	return nil
}

// isAncestor reports whether a lies on the parent chain of n.
func (t *Tree) isAncestor(a, n NodeID) bool {
	for p := t.nodes[n].parent; p != NoNode; p = t.nodes[p].parent {
		if p == a {
			return true
		}
	}
	return false
}

// Walk visits every node reachable from the root in breadth-first order.
// Returning false from fn stops the walk.
func (t *Tree) Walk(fn func(id NodeID, seg Segment) bool) {
	t.WalkFrom(t.Root(), fn)
}

// WalkFrom visits the subtree rooted at start in breadth-first order.
func (t *Tree) WalkFrom(start NodeID, fn func(id NodeID, seg Segment) bool) {
	if !t.Has(start) {
		return
	}
	queue := []NodeID{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if !fn(id, t.nodes[id].seg) {
			return
		}
		queue = append(queue, t.nodes[id].children...)
	}
}

// Nodes returns the IDs reachable from the root in breadth-first order.
func (t *Tree) Nodes() []NodeID {
	ids := make([]NodeID, 0, len(t.nodes))
	t.Walk(func(id NodeID, _ Segment) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Leaves returns the terminal nodes in breadth-first order.
func (t *Tree) Leaves() []NodeID {
	var ids []NodeID
	t.Walk(func(id NodeID, _ Segment) bool {
		if t.IsLeaf(id) {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

// Ancestors returns the parent chain of id, nearest first, ending at the root.
func (t *Tree) Ancestors(id NodeID) []NodeID {
	var ids []NodeID
	for p := t.nodes[id].parent; p != NoNode; p = t.nodes[p].parent {
		ids = append(ids, p)
	}
	return ids
}

// Depth returns the number of edges between id and the root.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for p := t.nodes[id].parent; p != NoNode; p = t.nodes[p].parent {
		d++
	}
	return d
}

// Clone returns a deep copy of t. Node IDs are preserved.
func (t *Tree) Clone() *Tree {
	t.ensure()
	c := &Tree{nodes: make([]node, len(t.nodes)), root: t.root, init: true}
	for i, n := range t.nodes {
		c.nodes[i] = node{seg: n.seg, parent: n.parent, children: slices.Clone(n.children)}
	}
	return c
}
