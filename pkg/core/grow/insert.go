package grow

import (
	"fmt"

	"github.com/matzehuels/arteria/pkg/core/geom"
	"github.com/matzehuels/arteria/pkg/core/junction"
	"github.com/matzehuels/arteria/pkg/core/vessel"
)

// level is the re-solved junction at the outlet of one ancestor.
type level struct {
	node    vessel.NodeID
	chain   vessel.NodeID // child on the path to the split segment
	sibling vessel.NodeID
	radius  float64
	flow    float64
	// Uniform radius factors for the two child subtrees.
	chainScale   float64
	siblingScale float64
}

// plan is everything an insertion needs, computed without touching the tree.
type plan struct {
	terminal geom.Point
	site     Site
	orig     vessel.Segment
	solved   junction.Result
	levels   []level
}

func (b *Builder) insert(terminal geom.Point) (Insertion, error) {
	site, err := b.FindSite(terminal)
	if err != nil {
		return Insertion{}, &InsertionError{Index: b.count, Terminal: terminal, Segment: vessel.NoNode, Err: err}
	}
	pl, err := b.plan(site, terminal)
	if err != nil {
		return Insertion{}, &InsertionError{Index: b.count, Terminal: terminal, Segment: site.Node, Err: err}
	}
	leaf, err := b.apply(pl)
	if err != nil {
		return Insertion{}, &InsertionError{Index: b.count, Terminal: terminal, Segment: site.Node, Err: err}
	}
	return Insertion{
		Index:    b.count,
		Terminal: terminal,
		Site:     site.Node,
		Leaf:     leaf,
		Junction: b.tree.Segment(site.Node).PressureOut,
		Distance: site.Distance,
		Nodes:    b.tree.Len(),
	}, nil
}

// equivalentLength returns the raster length of a vessel with the given
// radius and flow whose Poiseuille drop equals drop.
func equivalentLength(radius, flow, drop float64) float64 {
	return drop / vessel.Drop(1, flow, radius)
}

func (b *Builder) plan(site Site, terminal geom.Point) (*plan, error) {
	t := b.tree
	pt := b.params.TerminalPressure
	s := t.Segment(site.Node)

	// The downstream half keeps the original radius for now; whatever hangs
	// below it folds into its equivalent length.
	below := max(0, s.PressureOut-pt)
	up := junction.Input{Length: geom.Distance(s.Start, site.Point), Flow: s.Flow + b.qTerm, Pressure: s.PressureIn}
	down := junction.Input{
		Length:   geom.Distance(site.Point, s.End) + equivalentLength(s.Radius, s.Flow, below),
		Flow:     s.Flow,
		Pressure: pt,
	}
	branch := junction.Input{Length: geom.Distance(site.Point, terminal), Flow: b.qTerm, Pressure: pt}

	solved, err := b.solver.Solve(up, down, branch)
	if err != nil {
		return nil, err
	}
	pl := &plan{terminal: terminal, site: site, orig: s, solved: solved}

	chain := site.Node
	chainR, chainIn, chainQ := solved.Upstream, s.PressureIn, up.Flow
	for p := t.Parent(chain); p != vessel.NoNode; chain, p = p, t.Parent(p) {
		kids := t.Children(p)
		if len(kids) != 2 {
			return nil, fmt.Errorf("node %d has %d children, want 2", p, len(kids))
		}
		sibling := kids[0]
		if sibling == chain {
			sibling = kids[1]
		}
		ps, sib := t.Segment(p), t.Segment(sibling)

		js, err := b.solver.Solve(
			junction.Input{Length: ps.Length(), Flow: ps.Flow + b.qTerm, Pressure: ps.PressureIn},
			junction.Input{Length: equivalentLength(chainR, chainQ, chainIn-pt), Flow: chainQ, Pressure: pt},
			junction.Input{Length: equivalentLength(sib.Radius, sib.Flow, sib.PressureIn-pt), Flow: sib.Flow, Pressure: pt},
		)
		if err != nil {
			return nil, fmt.Errorf("ancestor %d: %w", p, err)
		}
		pl.levels = append(pl.levels, level{
			node:         p,
			chain:        chain,
			sibling:      sibling,
			radius:       js.Upstream,
			flow:         ps.Flow + b.qTerm,
			chainScale:   js.Downstream / chainR,
			siblingScale: js.Branch / sib.Radius,
		})
		chainR, chainIn, chainQ = js.Upstream, ps.PressureIn, ps.Flow+b.qTerm
	}
	return pl, nil
}

// apply splices the plan into the tree and returns the new leaf.
func (b *Builder) apply(pl *plan) (vessel.NodeID, error) {
	t := b.tree
	id, s, x := pl.site.Node, pl.orig, pl.site.Point

	down := t.NewNode(vessel.Segment{Start: x, End: s.End, Radius: s.Radius, Flow: s.Flow})
	if err := t.SetChildren(down, t.Children(id)...); err != nil {
		return vessel.NoNode, err
	}
	leaf := t.NewNode(vessel.Segment{Start: x, End: pl.terminal, Radius: pl.solved.Branch, Flow: b.qTerm})
	if err := t.Update(id, func(seg *vessel.Segment) {
		seg.End = x
		seg.Radius = pl.solved.Upstream
		seg.Flow = s.Flow + b.qTerm
	}); err != nil {
		return vessel.NoNode, err
	}
	if err := t.SetChildren(id, down, leaf); err != nil {
		return vessel.NoNode, err
	}
	b.scale(down, pl.solved.Downstream/s.Radius)

	// Bubble up: each ancestor takes its solved radius and flow, and both of
	// its child subtrees are rescaled to the radii of that solve.
	for _, lv := range pl.levels {
		if err := t.Update(lv.node, func(seg *vessel.Segment) {
			seg.Radius = lv.radius
			seg.Flow = lv.flow
		}); err != nil {
			return vessel.NoNode, err
		}
		b.scale(lv.chain, lv.chainScale)
		b.scale(lv.sibling, lv.siblingScale)
	}

	b.settle()
	return leaf, nil
}

// scale multiplies every radius in the subtree rooted at id by f.
func (b *Builder) scale(id vessel.NodeID, f float64) {
	if f == 1 {
		return
	}
	b.tree.WalkFrom(id, func(n vessel.NodeID, seg vessel.Segment) bool {
		seg.Radius *= f
		_ = b.tree.SetSegment(n, seg)
		return true
	})
}

// settle re-derives every pressure from the root inlet down.
func (b *Builder) settle() {
	t := b.tree
	t.Walk(func(id vessel.NodeID, _ vessel.Segment) bool {
		seg := t.Segment(id)
		if p := t.Parent(id); p != vessel.NoNode {
			seg.PressureIn = t.Segment(p).PressureOut
		}
		seg.PressureOut = seg.PressureIn - seg.PressureDrop()
		_ = t.SetSegment(id, seg)
		return true
	})
}
