package vessel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/arteria/pkg/core/geom"
)

func seg(x0, y0, x1, y1 float64) Segment {
	return Segment{Start: geom.Pt(x0, y0), End: geom.Pt(x1, y1), Radius: 1e-3, Flow: 1e-6}
}

func TestSetRoot(t *testing.T) {
	tr := New()
	assert.Equal(t, NoNode, tr.Root())

	root, err := tr.SetRoot(seg(0, 0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, root, tr.Root())
	assert.Equal(t, NoNode, tr.Parent(root))
	assert.True(t, tr.IsLeaf(root))

	_, err = tr.SetRoot(seg(0, 0, 2, 0))
	assert.ErrorIs(t, err, ErrRootExists)
}

func TestZeroValueTree(t *testing.T) {
	var tr Tree
	assert.Equal(t, NoNode, tr.Root())
	_, err := tr.SetRoot(seg(0, 0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Len())
}

func TestSetChildrenAnchorsStarts(t *testing.T) {
	tr := New()
	root, _ := tr.SetRoot(seg(0, 0, 5, 0))
	a := tr.NewNode(seg(9, 9, 5, 5))
	b := tr.NewNode(seg(9, 9, 5, -5))

	require.NoError(t, tr.SetChildren(root, a, b))
	assert.Equal(t, []NodeID{a, b}, tr.Children(root))
	assert.Equal(t, root, tr.Parent(a))
	assert.Equal(t, geom.Pt(5, 0), tr.Segment(a).Start)
	assert.Equal(t, geom.Pt(5, 0), tr.Segment(b).Start)
}

func TestSetSegmentReanchors(t *testing.T) {
	tr := New()
	root, _ := tr.SetRoot(seg(0, 0, 5, 0))
	a := tr.NewNode(seg(5, 0, 8, 3))
	require.NoError(t, tr.SetChildren(root, a))

	require.NoError(t, tr.SetSegment(root, seg(0, 0, 4, 1)))
	assert.Equal(t, geom.Pt(4, 1), tr.Segment(a).Start)

	// a non-root node cannot leave its parent's end
	require.NoError(t, tr.SetSegment(a, seg(100, 100, 8, 3)))
	assert.Equal(t, geom.Pt(4, 1), tr.Segment(a).Start)
}

func TestSetChildrenMovesAndDetaches(t *testing.T) {
	tr := New()
	root, _ := tr.SetRoot(seg(0, 0, 1, 0))
	a := tr.NewNode(seg(1, 0, 2, 1))
	b := tr.NewNode(seg(1, 0, 2, -1))
	require.NoError(t, tr.SetChildren(root, a, b))

	// split: a new middle node adopts root's children
	mid := tr.NewNode(seg(1, 0, 1.5, 0))
	require.NoError(t, tr.SetChildren(mid, a, b))
	leaf := tr.NewNode(seg(1, 0, 1, 3))
	require.NoError(t, tr.SetChildren(root, mid, leaf))

	assert.Equal(t, []NodeID{mid, leaf}, tr.Children(root))
	assert.Equal(t, []NodeID{a, b}, tr.Children(mid))
	assert.Equal(t, mid, tr.Parent(a))
	assert.Equal(t, mid, tr.Parent(b))
	assert.Equal(t, geom.Pt(1.5, 0), tr.Segment(a).Start)
	assert.Equal(t, 2, tr.Depth(a))
}

func TestSetChildrenRejectsCycles(t *testing.T) {
	tr := New()
	root, _ := tr.SetRoot(seg(0, 0, 1, 0))
	a := tr.NewNode(seg(1, 0, 2, 0))
	require.NoError(t, tr.SetChildren(root, a))

	assert.ErrorIs(t, tr.SetChildren(a, root), ErrCycle)
	assert.ErrorIs(t, tr.SetChildren(a, a), ErrCycle)
	assert.ErrorIs(t, tr.SetChildren(a, NodeID(42)), ErrUnknownNode)
	assert.ErrorIs(t, tr.SetChildren(NodeID(42)), ErrUnknownNode)
}

func TestWalkBreadthFirst(t *testing.T) {
	tr := New()
	root, _ := tr.SetRoot(seg(0, 0, 1, 0))
	a := tr.NewNode(seg(1, 0, 2, 1))
	b := tr.NewNode(seg(1, 0, 2, -1))
	c := tr.NewNode(seg(2, 1, 3, 1))
	require.NoError(t, tr.SetChildren(root, a, b))
	require.NoError(t, tr.SetChildren(a, c))

	assert.Equal(t, []NodeID{root, a, b, c}, tr.Nodes())
	assert.Equal(t, []NodeID{b, c}, tr.Leaves())

	var seen []NodeID
	tr.Walk(func(id NodeID, _ Segment) bool {
		seen = append(seen, id)
		return id != a
	})
	assert.Equal(t, []NodeID{root, a}, seen)
}

func TestCloneIsIndependent(t *testing.T) {
	tr := New()
	root, _ := tr.SetRoot(seg(0, 0, 1, 0))
	a := tr.NewNode(seg(1, 0, 2, 0))
	require.NoError(t, tr.SetChildren(root, a))

	c := tr.Clone()
	require.NoError(t, c.Update(a, func(s *Segment) { s.Radius = 7 }))
	require.NoError(t, c.SetChildren(root))

	assert.Equal(t, 1e-3, tr.Segment(a).Radius)
	assert.Equal(t, []NodeID{a}, tr.Children(root))
}

func TestPoiseuilleRoundTrip(t *testing.T) {
	length, flow, drop := 40.0, 2e-6, 1500.0
	r := RadiusFor(length, flow, drop)
	require.False(t, math.IsNaN(r))
	assert.InDelta(t, drop, Drop(length, flow, r), drop*1e-12)
	assert.InDelta(t, flow, FlowFor(length, r, drop), flow*1e-12)
	assert.True(t, math.IsNaN(RadiusFor(length, flow, 0)))
}

func TestSegmentDerivedValues(t *testing.T) {
	s := Segment{Start: geom.Pt(0, 0), End: geom.Pt(30, 40), Radius: 2e-3, Flow: 1e-6}
	assert.InDelta(t, 50.0, s.Length(), 1e-12)
	assert.InDelta(t, s.PressureDrop(), s.Resistance()*s.Flow, 1e-9)
	assert.InDelta(t, math.Pi*4e-6*0.5, s.Volume(), 1e-15)

	s.End = geom.Pt(0, 10)
	assert.InDelta(t, 10.0, s.Length(), 1e-12)
}

func TestAncestors(t *testing.T) {
	tr := New()
	r, _ := tr.SetRoot(seg(0, 0, 1, 0))
	a := tr.NewNode(seg(1, 0, 2, 0))
	b := tr.NewNode(seg(2, 0, 3, 0))
	require.NoError(t, tr.SetChildren(r, a))
	require.NoError(t, tr.SetChildren(a, b))

	assert.Equal(t, []NodeID{a, r}, tr.Ancestors(b))
	assert.Empty(t, tr.Ancestors(r))
	assert.Equal(t, 2, tr.Depth(b))
}
