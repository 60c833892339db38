// Package sampler places terminal demand points inside the perfusion disc.
//
// Points are drawn by rejection sampling with area-corrected polar
// coordinates (θ uniform, r = R·√u), so the accepted set is uniform over the
// disc's area. No two accepted points lie closer than the exclusion radius
// R/√N, the radius obtained by sharing the disc's area equally among N points.
//
// Accepted points are indexed in a pixel-resolution occupancy grid, so each
// candidate is only compared against the points in its neighbourhood.
package sampler

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/arteria/pkg/core/geom"
)

var (
	// ErrSamplingExhausted is returned when the rejection budget is spent before
	// the requested number of points could be placed.
	ErrSamplingExhausted = errors.New("sampling exhausted")

	// ErrInvalidInput is returned for a non-positive radius or count.
	ErrInvalidInput = errors.New("radius and count must be positive")
)

// DefaultMaxRejections is the default number of consecutive rejected
// candidates tolerated before sampling gives up.
const DefaultMaxRejections = 100_000

// Options configures [Sample].
type Options struct {
	// MaxRejections bounds consecutive rejections. Zero uses DefaultMaxRejections.
	MaxRejections int
}

// ExclusionRadius returns R/√N.
func ExclusionRadius(radius float64, count int) float64 {
	return radius / math.Sqrt(float64(count))
}

// Result holds the accepted points and the grid that indexed them.
type Result struct {
	Points    []geom.Point
	Exclusion float64
	Attempts  int
	grid      *grid
}

// Occupancy returns the accepted points rasterized onto the sampling grid.
// Cell [row][col] covers x ∈ [col−R, col−R+1), y ∈ [row−R, row−R+1).
func (r *Result) Occupancy() [][]bool {
	if r.grid == nil {
		return nil
	}
	return r.grid.occupancy()
}

// Sample draws count points inside the disc of the given radius around the
// origin.
func Sample(rng *rand.Rand, radius float64, count int, opts Options) (*Result, error) {
	if radius <= 0 || count <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return nil, ErrInvalidInput
	}
	budget := opts.MaxRejections
	if budget <= 0 {
		budget = DefaultMaxRejections
	}

	excl := ExclusionRadius(radius, count)
	g := newGrid(radius)
	res := &Result{Points: make([]geom.Point, 0, count), Exclusion: excl, grid: g}

	rejected := 0
	for len(res.Points) < count {
		if rejected >= budget {
			return res, fmt.Errorf("%w: placed %d of %d points (exclusion radius %.3f) after %d consecutive rejections",
				ErrSamplingExhausted, len(res.Points), count, excl, rejected)
		}
		res.Attempts++

		p := candidate(rng, radius)
		if g.crowded(p, excl, res.Points) {
			rejected++
			continue
		}
		g.insert(p, len(res.Points))
		res.Points = append(res.Points, p)
		rejected = 0
	}
	return res, nil
}

// candidate draws a point uniformly over the disc's area.
func candidate(rng *rand.Rand, radius float64) geom.Point {
	theta := 2 * math.Pi * rng.Float64()
	r := radius * math.Sqrt(rng.Float64())
	return geom.Polar(r, theta)
}
