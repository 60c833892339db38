package vessel

import (
	"errors"
	"fmt"
	"math"

	"github.com/matzehuels/arteria/pkg/core/geom"
)

// Invariant names reported by [Validate].
const (
	InvariantContinuity = "continuity"
	InvariantFlow       = "flow"
	InvariantMurray     = "murray"
	InvariantPressure   = "pressure"
	InvariantPoiseuille = "poiseuille"
	InvariantTerminal   = "terminal"
)

// Tolerance configures [Validate].
type Tolerance struct {
	// Exponent is the Murray exponent y. Zero skips the Murray check.
	Exponent float64
	// TerminalFlow is the expected flow of every leaf. Zero skips the check.
	TerminalFlow float64
	// Rel is the relative tolerance for flows, radii and pressures.
	Rel float64
	// Abs is the absolute tolerance for coordinates.
	Abs float64
}

// DefaultTolerance returns tolerances suitable for trees grown with exponent y.
func DefaultTolerance(y float64) Tolerance {
	return Tolerance{Exponent: y, Rel: 1e-6, Abs: 1e-9}
}

// InvariantError describes a single invariant violation at a node.
type InvariantError struct {
	Node      NodeID
	Invariant string
	Want, Got float64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("node %d: %s invariant violated: want %g, got %g", e.Node, e.Invariant, e.Want, e.Got)
}

// Validate checks the whole-tree invariants and returns every violation joined
// into one error, or nil.
func Validate(t *Tree, tol Tolerance) error {
	if tol.Rel == 0 {
		tol.Rel = 1e-6
	}
	if tol.Abs == 0 {
		tol.Abs = 1e-9
	}
	var errs []error
	fail := func(id NodeID, inv string, want, got float64) {
		errs = append(errs, &InvariantError{Node: id, Invariant: inv, Want: want, Got: got})
	}

	t.Walk(func(id NodeID, seg Segment) bool {
		drop := seg.PressureIn - seg.PressureOut
		if want := seg.PressureDrop(); !near(want, drop, tol.Rel) {
			fail(id, InvariantPoiseuille, want, drop)
		}

		kids := t.nodes[id].children
		if len(kids) == 0 {
			if tol.TerminalFlow > 0 && !near(tol.TerminalFlow, seg.Flow, tol.Rel) {
				fail(id, InvariantTerminal, tol.TerminalFlow, seg.Flow)
			}
			return true
		}

		var flow, murray float64
		for _, c := range kids {
			cs := t.nodes[c].seg
			if !geom.Equal(cs.Start, seg.End, tol.Abs) {
				fail(c, InvariantContinuity, 0, geom.Distance(cs.Start, seg.End))
			}
			if !near(seg.PressureOut, cs.PressureIn, tol.Rel) {
				fail(c, InvariantPressure, seg.PressureOut, cs.PressureIn)
			}
			flow += cs.Flow
			if tol.Exponent > 0 {
				murray += math.Pow(cs.Radius, tol.Exponent)
			}
		}
		if !near(seg.Flow, flow, tol.Rel) {
			fail(id, InvariantFlow, seg.Flow, flow)
		}
		if tol.Exponent > 0 {
			if want := math.Pow(seg.Radius, tol.Exponent); !near(want, murray, tol.Rel) {
				fail(id, InvariantMurray, want, murray)
			}
		}
		return true
	})
	return errors.Join(errs...)
}

// near reports whether a and b agree to within rel of the larger magnitude.
func near(a, b, rel float64) bool {
	scale := max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return true
	}
	return math.Abs(a-b) <= rel*scale
}
