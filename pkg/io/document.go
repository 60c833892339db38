package io

import (
	"errors"
	"fmt"

	"github.com/matzehuels/arteria/pkg/config"
	"github.com/matzehuels/arteria/pkg/core/geom"
	"github.com/matzehuels/arteria/pkg/core/vessel"
)

// ErrMalformed is returned when a document does not describe a single tree.
var ErrMalformed = errors.New("malformed tree document")

// Point is a serialized raster point.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Segment is a serialized tree node.
type Segment struct {
	ID          int     `json:"id" bson:"id"`
	Parent      int     `json:"parent" bson:"parent"`
	Children    []int   `json:"children,omitempty" bson:"children,omitempty"`
	Start       Point   `json:"start" bson:"start"`
	End         Point   `json:"end" bson:"end"`
	Radius      float64 `json:"radius" bson:"radius"`
	Flow        float64 `json:"flow" bson:"flow"`
	PressureIn  float64 `json:"pressure_in" bson:"pressure_in"`
	PressureOut float64 `json:"pressure_out" bson:"pressure_out"`
}

// Document is a grown tree with the inputs that produced it.
type Document struct {
	Params   config.Params `json:"params" bson:"params"`
	Points   []Point       `json:"points,omitempty" bson:"points,omitempty"`
	Segments []Segment     `json:"segments" bson:"segments"`
}

func toPoint(p geom.Point) Point { return Point{X: p.X, Y: p.Y} }
func (p Point) geom() geom.Point { return geom.Pt(p.X, p.Y) }

// Points converts geometry points for a document.
func Points(ps []geom.Point) []Point {
	out := make([]Point, len(ps))
	for i, p := range ps {
		out[i] = toPoint(p)
	}
	return out
}

// NewDocument captures t, renumbering its nodes densely in breadth-first
// order.
func NewDocument(params config.Params, points []geom.Point, t *vessel.Tree) *Document {
	doc := &Document{Params: params, Points: Points(points)}
	if t == nil {
		return doc
	}
	ids := t.Nodes()
	index := make(map[vessel.NodeID]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	doc.Segments = make([]Segment, len(ids))
	for i, id := range ids {
		seg := t.Segment(id)
		s := Segment{
			ID:          i,
			Parent:      -1,
			Start:       toPoint(seg.Start),
			End:         toPoint(seg.End),
			Radius:      seg.Radius,
			Flow:        seg.Flow,
			PressureIn:  seg.PressureIn,
			PressureOut: seg.PressureOut,
		}
		if p := t.Parent(id); p != vessel.NoNode {
			s.Parent = index[p]
		}
		for _, c := range t.Children(id) {
			s.Children = append(s.Children, index[c])
		}
		doc.Segments[i] = s
	}
	return doc
}

// GeomPoints returns the terminal points as geometry.
func (d *Document) GeomPoints() []geom.Point {
	out := make([]geom.Point, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.geom()
	}
	return out
}

// Tree rebuilds the vessel tree. An empty document yields an empty tree.
func (d *Document) Tree() (*vessel.Tree, error) {
	t := vessel.New()
	if len(d.Segments) == 0 {
		return t, nil
	}

	byID := make(map[int]vessel.NodeID, len(d.Segments))
	for _, s := range d.Segments {
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate segment id %d", ErrMalformed, s.ID)
		}
		seg := vessel.Segment{
			Start:       s.Start.geom(),
			End:         s.End.geom(),
			Radius:      s.Radius,
			Flow:        s.Flow,
			PressureIn:  s.PressureIn,
			PressureOut: s.PressureOut,
		}
		if s.Parent < 0 {
			id, err := t.SetRoot(seg)
			if err != nil {
				return nil, fmt.Errorf("%w: segment %d: %w", ErrMalformed, s.ID, err)
			}
			byID[s.ID] = id
			continue
		}
		byID[s.ID] = t.NewNode(seg)
	}
	if t.Root() == vessel.NoNode {
		return nil, fmt.Errorf("%w: no root segment", ErrMalformed)
	}

	claimed := make(map[int]bool, len(d.Segments))
	for _, s := range d.Segments {
		if len(s.Children) == 0 {
			continue
		}
		kids := make([]vessel.NodeID, len(s.Children))
		for i, c := range s.Children {
			id, ok := byID[c]
			if !ok {
				return nil, fmt.Errorf("%w: segment %d: unknown child %d", ErrMalformed, s.ID, c)
			}
			if claimed[c] {
				return nil, fmt.Errorf("%w: segment %d listed as a child twice", ErrMalformed, c)
			}
			claimed[c] = true
			kids[i] = id
		}
		if err := t.SetChildren(byID[s.ID], kids...); err != nil {
			return nil, fmt.Errorf("%w: segment %d: %w", ErrMalformed, s.ID, err)
		}
	}

	for _, s := range d.Segments {
		if s.Parent < 0 {
			continue
		}
		id := byID[s.ID]
		want, ok := byID[s.Parent]
		if !ok || t.Parent(id) != want {
			return nil, fmt.Errorf("%w: segment %d: parent %d does not list it", ErrMalformed, s.ID, s.Parent)
		}
	}
	if n := len(t.Nodes()); n != len(d.Segments) {
		return nil, fmt.Errorf("%w: %d of %d segments reachable from the root", ErrMalformed, n, len(d.Segments))
	}
	return t, nil
}
