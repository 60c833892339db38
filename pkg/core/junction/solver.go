package junction

import (
	"errors"
	"fmt"
	"math"

	"github.com/matzehuels/arteria/pkg/core/vessel"
)

// ErrJunctionUnsolvable is returned when no junction pressure satisfies the
// constraints: the upstream inlet does not exceed both child outlets by the
// bracket margin, or an input is not positive.
var ErrJunctionUnsolvable = errors.New("junction unsolvable")

const (
	// DefaultEpsilon keeps the bracket strictly inside the open interval.
	DefaultEpsilon = 1e-6
	// DefaultTolerance is the absolute pressure tolerance of the root search.
	DefaultTolerance = 1e-10
	// DefaultMaxIter bounds the Brent iterations.
	DefaultMaxIter = 200
)

// Input describes one vessel meeting at the junction. Pressure is the inlet
// pressure for the upstream vessel and the outlet pressure for the children.
type Input struct {
	Length   float64 // raster units
	Flow     float64
	Pressure float64
}

// Result holds the junction pressure and the radius of each vessel.
type Result struct {
	Pressure   float64
	Upstream   float64
	Downstream float64
	Branch     float64
}

// Solver solves junctions for a fixed Murray exponent.
type Solver struct {
	Exponent  float64
	Epsilon   float64
	Tolerance float64
	MaxIter   int
}

// NewSolver returns a solver with default numerics for exponent y.
func NewSolver(y float64) *Solver {
	return &Solver{Exponent: y, Epsilon: DefaultEpsilon, Tolerance: DefaultTolerance, MaxIter: DefaultMaxIter}
}

func (s *Solver) defaults() (eps, tol float64, iter int) {
	eps, tol, iter = s.Epsilon, s.Tolerance, s.MaxIter
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	if tol <= 0 {
		tol = DefaultTolerance
	}
	if iter <= 0 {
		iter = DefaultMaxIter
	}
	return eps, tol, iter
}

// Solve returns the junction pressure and radii for the three vessels.
func (s *Solver) Solve(up, down, branch Input) (Result, error) {
	if s.Exponent <= 0 || math.IsNaN(s.Exponent) {
		return Result{}, fmt.Errorf("%w: exponent %g is not positive", ErrJunctionUnsolvable, s.Exponent)
	}
	for _, in := range []struct {
		name string
		in   Input
	}{{"upstream", up}, {"downstream", down}, {"branch", branch}} {
		if !(in.in.Length > 0) || !(in.in.Flow > 0) {
			return Result{}, fmt.Errorf("%w: %s length %g and flow %g must be positive",
				ErrJunctionUnsolvable, in.name, in.in.Length, in.in.Flow)
		}
	}

	eps, tol, iter := s.defaults()
	floor := max(down.Pressure, branch.Pressure)
	if up.Pressure <= floor+2*eps {
		return Result{}, fmt.Errorf("%w: inlet pressure %g does not exceed outlet pressure %g",
			ErrJunctionUnsolvable, up.Pressure, floor)
	}

	// Work with r⁴ scaled to ΔP = 1 so the residual is a smooth power of ΔP.
	ka := vessel.Drop(up.Length, up.Flow, 1)
	kb := vessel.Drop(down.Length, down.Flow, 1)
	kn := vessel.Drop(branch.Length, branch.Flow, 1)
	q := s.Exponent / 4
	residual := func(p float64) float64 {
		ra := math.Pow(ka/(up.Pressure-p), q)
		rb := math.Pow(kb/(p-down.Pressure), q)
		rn := math.Pow(kn/(p-branch.Pressure), q)
		return ra - rb - rn
	}

	pj, err := Brent(residual, floor+eps, up.Pressure-eps, tol, iter)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrJunctionUnsolvable, err)
	}
	return Result{
		Pressure:   pj,
		Upstream:   vessel.RadiusFor(up.Length, up.Flow, up.Pressure-pj),
		Downstream: vessel.RadiusFor(down.Length, down.Flow, pj-down.Pressure),
		Branch:     vessel.RadiusFor(branch.Length, branch.Flow, pj-branch.Pressure),
	}, nil
}
