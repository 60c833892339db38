package grow

import (
	"context"
	"fmt"
	"math"

	"github.com/matzehuels/arteria/pkg/core/geom"
	"github.com/matzehuels/arteria/pkg/core/junction"
	"github.com/matzehuels/arteria/pkg/core/vessel"
)

// DefaultStep is the spacing of candidate sites along a segment.
const DefaultStep = 0.1

// Insertion describes one completed growth step. It is passed to the
// observer registered with [WithObserver].
type Insertion struct {
	Index    int
	Terminal geom.Point
	Site     vessel.NodeID // split segment, or the root for the first terminal
	Leaf     vessel.NodeID
	Junction float64 // junction pressure; NaN for the root
	Distance float64 // distance from the site to the terminal
	Nodes    int
}

// Option configures a [Builder].
type Option func(*Builder)

// WithStep sets the candidate spacing used by [Builder.FindSite].
func WithStep(step float64) Option {
	return func(b *Builder) {
		if step > 0 {
			b.step = step
		}
	}
}

// WithObserver registers fn to be called after every insertion.
func WithObserver(fn func(Insertion)) Option {
	return func(b *Builder) { b.observe = fn }
}

// WithSolver replaces the junction solver. Its exponent is used as given.
func WithSolver(s *junction.Solver) Option {
	return func(b *Builder) {
		if s != nil {
			b.solver = s
		}
	}
}

// Builder grows a vessel tree one terminal at a time. It is not safe for
// concurrent use.
type Builder struct {
	params  Params
	qTerm   float64
	step    float64
	solver  *junction.Solver
	observe func(Insertion)

	tree  *vessel.Tree
	count int
}

// New returns a builder for the given parameters.
func New(p Params, opts ...Option) (*Builder, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b := &Builder{
		params: p,
		qTerm:  p.TerminalFlow(),
		step:   DefaultStep,
		solver: junction.NewSolver(p.Exponent),
		tree:   vessel.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Params returns the builder's parameters.
func (b *Builder) Params() Params { return b.params }

// Tree returns the tree grown so far.
func (b *Builder) Tree() *vessel.Tree { return b.tree }

// Tolerance returns the validation tolerance matching the builder's physics.
func (b *Builder) Tolerance() vessel.Tolerance {
	tol := vessel.DefaultTolerance(b.solver.Exponent)
	tol.TerminalFlow = b.qTerm
	return tol
}

// Reset discards the current tree.
func (b *Builder) Reset() {
	b.tree = vessel.New()
	b.count = 0
}

// Grow resets the builder and inserts points in order. Cancellation is
// checked between insertions. On failure the tree holds every insertion that
// completed before the error.
func (b *Builder) Grow(ctx context.Context, points []geom.Point) (*vessel.Tree, error) {
	b.Reset()
	for _, p := range points {
		if err := ctx.Err(); err != nil {
			return b.tree, err
		}
		if _, err := b.Add(p); err != nil {
			return b.tree, err
		}
	}
	return b.tree, nil
}

// Add inserts one terminal. The first terminal creates the root. Every later
// insertion bubbles up to the root, rescaling sibling subtrees on the way.
func (b *Builder) Add(p geom.Point) (Insertion, error) {
	var (
		ins Insertion
		err error
	)
	if b.tree.Root() == vessel.NoNode {
		ins, err = b.plantRoot(p)
	} else {
		ins, err = b.insert(p)
	}
	if err != nil {
		return Insertion{}, err
	}
	b.count++
	if b.observe != nil {
		b.observe(ins)
	}
	return ins, nil
}

func (b *Builder) plantRoot(p geom.Point) (Insertion, error) {
	inlet := b.params.Inlet()
	length := geom.Distance(inlet, p)
	if length == 0 {
		return Insertion{}, &InsertionError{Index: b.count, Terminal: p, Segment: vessel.NoNode,
			Err: fmt.Errorf("%w: terminal coincides with the inlet", ErrDegenerateGeometry)}
	}
	drop := b.params.InletPressure - b.params.TerminalPressure
	root, err := b.tree.SetRoot(vessel.Segment{
		Start:       inlet,
		End:         p,
		Radius:      vessel.RadiusFor(length, b.qTerm, drop),
		Flow:        b.qTerm,
		PressureIn:  b.params.InletPressure,
		PressureOut: b.params.TerminalPressure,
	})
	if err != nil {
		return Insertion{}, err
	}
	return Insertion{
		Index:    b.count,
		Terminal: p,
		Site:     root,
		Leaf:     root,
		Junction: math.NaN(),
		Distance: length,
		Nodes:    b.tree.Len(),
	}, nil
}
