package grow

import (
	"fmt"
	"math"

	"github.com/matzehuels/arteria/pkg/core/geom"
	"github.com/matzehuels/arteria/pkg/core/vessel"
)

// Site is a candidate bifurcation point on an existing segment.
type Site struct {
	Node     vessel.NodeID
	Point    geom.Point
	Offset   float64 // distance from the segment start
	Distance float64 // distance to the terminal
}

// FindSite returns the point of the tree closest to terminal among the
// candidates start + k·step·û with step ≤ k·step ≤ L − step, over every
// segment in breadth-first order. The first minimum found wins.
func (b *Builder) FindSite(terminal geom.Point) (Site, error) {
	best := Site{Node: vessel.NoNode, Distance: math.Inf(1)}
	b.tree.Walk(func(id vessel.NodeID, seg vessel.Segment) bool {
		n := int(math.Floor((seg.Length()-b.step)/b.step + 1e-9))
		for k := 1; k <= n; k++ {
			x := float64(k) * b.step
			c := geom.Along(seg.Start, seg.End, x)
			if d := geom.Distance(c, terminal); d < best.Distance {
				best = Site{Node: id, Point: c, Offset: x, Distance: d}
			}
		}
		return true
	})

	switch {
	case best.Node == vessel.NoNode:
		return best, fmt.Errorf("%w: no segment is longer than %g", ErrDegenerateGeometry, 2*b.step)
	case best.Distance == 0:
		return best, fmt.Errorf("%w: terminal lies on segment %d", ErrDegenerateGeometry, best.Node)
	}
	return best, nil
}
