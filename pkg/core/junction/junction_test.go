package junction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/arteria/pkg/core/vessel"
)

func TestBrent(t *testing.T) {
	tests := []struct {
		name string
		f    func(float64) float64
		a, b float64
		want float64
	}{
		{"sqrt2", func(x float64) float64 { return x*x - 2 }, 0, 2, math.Sqrt2},
		{"dottie", func(x float64) float64 { return math.Cos(x) - x }, 0, 1, 0.7390851332151607},
		{"reversed bracket", func(x float64) float64 { return x - 3 }, 5, 1, 3},
		{"root at endpoint", func(x float64) float64 { return x - 1 }, 1, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Brent(tt.f, tt.a, tt.b, 1e-12, 100)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func TestBrentErrors(t *testing.T) {
	sq := func(x float64) float64 { return x*x - 2 }

	_, err := Brent(sq, 2, 3, 1e-12, 100)
	assert.ErrorIs(t, err, ErrNoBracket)

	_, err = Brent(sq, 0, 2, 1e-12, 1)
	assert.ErrorIs(t, err, ErrNoConvergence)
}

func murrayResidual(res Result, y float64) float64 {
	a := math.Pow(res.Upstream, y)
	return (a - math.Pow(res.Downstream, y) - math.Pow(res.Branch, y)) / a
}

func TestSolveSatisfiesPoiseuilleAndMurray(t *testing.T) {
	s := NewSolver(3)
	up := Input{Length: 10, Flow: 2e-6, Pressure: 100}
	down := Input{Length: 10, Flow: 1e-6, Pressure: 40}
	branch := Input{Length: 10, Flow: 1e-6, Pressure: 90}

	res, err := s.Solve(up, down, branch)
	require.NoError(t, err)
	assert.Greater(t, res.Pressure, 90.0)
	assert.Less(t, res.Pressure, 100.0)
	assert.InDelta(t, 0, murrayResidual(res, 3), 1e-9)

	assert.InEpsilon(t, up.Pressure-res.Pressure, vessel.Drop(up.Length, up.Flow, res.Upstream), 1e-9)
	assert.InEpsilon(t, res.Pressure-down.Pressure, vessel.Drop(down.Length, down.Flow, res.Downstream), 1e-9)
	assert.InEpsilon(t, res.Pressure-branch.Pressure, vessel.Drop(branch.Length, branch.Flow, res.Branch), 1e-9)
}

// The branch outlet at 90 sits only 10 below the inlet at 100. The bracket
// (90+ε, 100−ε) is still valid, so the junction solves; it fails only once
// the inlet is within 2ε of the higher outlet.
func TestSolveNarrowBranchMargin(t *testing.T) {
	up := Input{Length: 10, Flow: 2e-6, Pressure: 100}
	down := Input{Length: 10, Flow: 1e-6, Pressure: 40}
	branch := Input{Length: 10, Flow: 1e-6, Pressure: 90}

	res, err := NewSolver(3).Solve(up, down, branch)
	require.NoError(t, err)
	assert.InDelta(t, 93.718, res.Pressure, 1e-3)

	tests := []struct {
		name    string
		inlet   float64
		wantErr bool
	}{
		{"inlet at floor plus 2ε", 91, true},
		{"inlet below floor plus 2ε", 90.9, true},
		{"inlet just above floor plus 2ε", 91.5, false},
	}
	s := &Solver{Exponent: 3, Epsilon: 0.5}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := up
			in.Pressure = tt.inlet
			_, err := s.Solve(in, down, branch)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrJunctionUnsolvable)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSolveRecoversKnownJunction(t *testing.T) {
	const (
		pIn, pj      = 10000.0, 9200.0
		pOutB, pOutN = 8000.0, 8100.0
		y            = 3.0
	)
	rb, rn := 1.2e-3, 0.9e-3
	lb, ln := 30.0, 18.0
	qb := vessel.FlowFor(lb, rb, pj-pOutB)
	qn := vessel.FlowFor(ln, rn, pj-pOutN)
	ra := math.Cbrt(rb*rb*rb + rn*rn*rn)
	qa := qb + qn
	// Length that makes the upstream drop exactly pIn - pj.
	la := (pIn - pj) / vessel.Drop(1, qa, ra)

	res, err := NewSolver(y).Solve(
		Input{Length: la, Flow: qa, Pressure: pIn},
		Input{Length: lb, Flow: qb, Pressure: pOutB},
		Input{Length: ln, Flow: qn, Pressure: pOutN},
	)
	require.NoError(t, err)
	assert.InDelta(t, pj, res.Pressure, 1e-6)
	assert.InEpsilon(t, ra, res.Upstream, 1e-9)
	assert.InEpsilon(t, rb, res.Downstream, 1e-9)
	assert.InEpsilon(t, rn, res.Branch, 1e-9)
}

func TestSolveUnsolvable(t *testing.T) {
	ok := Input{Length: 10, Flow: 1e-6}
	tests := []struct {
		name   string
		solver *Solver
		up     Input
		down   Input
		branch Input
	}{
		{
			name:   "bracket collapses under wide epsilon",
			solver: &Solver{Exponent: 3, Epsilon: 5},
			up:     Input{Length: 10, Flow: 2e-6, Pressure: 100},
			down:   Input{Length: 10, Flow: 1e-6, Pressure: 40},
			branch: Input{Length: 10, Flow: 1e-6, Pressure: 90},
		},
		{
			name:   "inlet below outlet",
			solver: NewSolver(3),
			up:     Input{Length: 10, Flow: 2e-6, Pressure: 50},
			down:   Input{Length: 10, Flow: 1e-6, Pressure: 60},
			branch: Input{Length: 10, Flow: 1e-6, Pressure: 40},
		},
		{
			name:   "inlet equals outlet",
			solver: NewSolver(3),
			up:     Input{Length: 10, Flow: 2e-6, Pressure: 60},
			down:   Input{Length: 10, Flow: 1e-6, Pressure: 60},
			branch: Input{Length: 10, Flow: 1e-6, Pressure: 60},
		},
		{
			name:   "zero length",
			solver: NewSolver(3),
			up:     Input{Length: 0, Flow: 2e-6, Pressure: 100},
			down:   ok,
			branch: ok,
		},
		{
			name:   "negative flow",
			solver: NewSolver(3),
			up:     Input{Length: 10, Flow: 2e-6, Pressure: 100},
			down:   Input{Length: 10, Flow: -1e-6},
			branch: ok,
		},
		{
			name:   "zero exponent",
			solver: &Solver{},
			up:     Input{Length: 10, Flow: 2e-6, Pressure: 100},
			down:   ok,
			branch: ok,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.solver.Solve(tt.up, tt.down, tt.branch)
			assert.ErrorIs(t, err, ErrJunctionUnsolvable)
		})
	}
}

func TestSolveExponents(t *testing.T) {
	for _, y := range []float64{2, 2.7, 3} {
		res, err := NewSolver(y).Solve(
			Input{Length: 25, Flow: 3e-6, Pressure: 12000},
			Input{Length: 40, Flow: 2e-6, Pressure: 8000},
			Input{Length: 15, Flow: 1e-6, Pressure: 8000},
		)
		require.NoError(t, err, "y=%g", y)
		assert.InDelta(t, 0, murrayResidual(res, y), 1e-8, "y=%g", y)
	}
}
