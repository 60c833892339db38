package vessel

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/arteria/pkg/core/geom"
)

// consistent builds a root with two leaves that satisfies every invariant.
func consistent(t *testing.T) (*Tree, NodeID, NodeID, NodeID) {
	t.Helper()
	const pTerm, pJ, pIn = 8000.0, 9000.0, 10000.0
	q := 1e-6

	a := Segment{Start: geom.Pt(0, 0), End: geom.Pt(10, 10), Flow: q, PressureIn: pJ, PressureOut: pTerm}
	a.Radius = RadiusFor(a.Length(), a.Flow, pJ-pTerm)
	b := Segment{Start: geom.Pt(0, 0), End: geom.Pt(10, -5), Flow: q, PressureIn: pJ, PressureOut: pTerm}
	b.Radius = RadiusFor(b.Length(), b.Flow, pJ-pTerm)

	root := Segment{Start: geom.Pt(-10, 0), End: geom.Pt(0, 0), Flow: 2 * q, PressureIn: pIn}
	root.Radius = math.Cbrt(math.Pow(a.Radius, 3) + math.Pow(b.Radius, 3))
	root.PressureOut = pIn - root.PressureDrop()
	// shift the junction so pressures line up with the Murray radius
	a.PressureIn, b.PressureIn = root.PressureOut, root.PressureOut
	a.Radius = RadiusFor(a.Length(), a.Flow, a.PressureIn-pTerm)
	b.Radius = RadiusFor(b.Length(), b.Flow, b.PressureIn-pTerm)
	root.Radius = math.Cbrt(math.Pow(a.Radius, 3) + math.Pow(b.Radius, 3))
	root.PressureIn = root.PressureOut + root.PressureDrop()

	tr := New()
	r, err := tr.SetRoot(root)
	require.NoError(t, err)
	ia, ib := tr.NewNode(a), tr.NewNode(b)
	require.NoError(t, tr.SetChildren(r, ia, ib))
	return tr, r, ia, ib
}

func TestValidateConsistentTree(t *testing.T) {
	tr, _, _, _ := consistent(t)
	tol := DefaultTolerance(3)
	tol.TerminalFlow = 1e-6
	assert.NoError(t, Validate(tr, tol))
}

func TestValidateReportsViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(tr *Tree, root, a, b NodeID)
		want   string
	}{
		{"flow", func(tr *Tree, root, a, b NodeID) {
			_ = tr.Update(root, func(s *Segment) { s.Flow *= 2; s.PressureIn = s.PressureOut + s.PressureDrop() })
		}, InvariantFlow},
		{"murray", func(tr *Tree, root, a, b NodeID) {
			_ = tr.Update(root, func(s *Segment) { s.Radius *= 1.1; s.PressureIn = s.PressureOut + s.PressureDrop() })
		}, InvariantMurray},
		{"pressure", func(tr *Tree, root, a, b NodeID) {
			_ = tr.Update(a, func(s *Segment) { s.PressureIn += 50; s.PressureOut += 50 })
		}, InvariantPressure},
		{"poiseuille", func(tr *Tree, root, a, b NodeID) {
			_ = tr.Update(b, func(s *Segment) { s.PressureOut -= 10 })
		}, InvariantPoiseuille},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, root, a, b := consistent(t)
			tt.mutate(tr, root, a, b)
			err := Validate(tr, DefaultTolerance(3))
			require.Error(t, err)

			var ie *InvariantError
			require.True(t, errors.As(err, &ie))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateTerminalFlow(t *testing.T) {
	tr, _, _, _ := consistent(t)
	tol := DefaultTolerance(3)
	tol.TerminalFlow = 2e-6
	err := Validate(tr, tol)
	require.Error(t, err)
	assert.Contains(t, err.Error(), InvariantTerminal)
}
