package sampler

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/arteria/pkg/core/geom"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

func TestSampleSpacing(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		count  int
	}{
		{"single", 100, 1},
		{"small", 50, 10},
		{"medium", 100, 50},
		{"dense", 20, 120},
		{"wide", 1e6, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Sample(newRand(7), tt.radius, tt.count, Options{})
			require.NoError(t, err)
			require.Len(t, res.Points, tt.count)

			excl := ExclusionRadius(tt.radius, tt.count)
			assert.InDelta(t, excl, res.Exclusion, 1e-12)
			for i, p := range res.Points {
				assert.LessOrEqual(t, math.Hypot(p.X, p.Y), tt.radius, "point %d outside disc", i)
				for j := i + 1; j < len(res.Points); j++ {
					d := geom.Distance(p, res.Points[j])
					assert.GreaterOrEqual(t, d, excl, "points %d and %d too close", i, j)
				}
			}
		})
	}
}

func TestSampleDeterministic(t *testing.T) {
	a, err := Sample(newRand(42), 80, 30, Options{})
	require.NoError(t, err)
	b, err := Sample(newRand(42), 80, 30, Options{})
	require.NoError(t, err)
	assert.Equal(t, a.Points, b.Points)

	c, err := Sample(newRand(43), 80, 30, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, a.Points, c.Points)
}

func TestSampleExhausted(t *testing.T) {
	res, err := Sample(newRand(1), 30, 200, Options{MaxRejections: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSamplingExhausted))
	assert.Less(t, len(res.Points), 200)
	assert.Contains(t, err.Error(), "placed")
}

func TestSampleHugeRadius(t *testing.T) {
	for _, radius := range []float64{5e4, 2e9} {
		res, err := Sample(newRand(5), radius, 1, Options{})
		require.NoError(t, err, "radius %g", radius)
		require.Len(t, res.Points, 1)
		assert.LessOrEqual(t, math.Hypot(res.Points[0].X, res.Points[0].Y), radius)
		assert.Len(t, res.grid.cells, 1, "index should hold one cell per accepted point")
	}
}

func TestSampleInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		count  int
	}{
		{"zero radius", 0, 5},
		{"negative radius", -1, 5},
		{"zero count", 10, 0},
		{"nan radius", math.NaN(), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sample(newRand(1), tt.radius, tt.count, Options{})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestOccupancy(t *testing.T) {
	res, err := Sample(newRand(3), 10, 5, Options{})
	require.NoError(t, err)

	occ := res.Occupancy()
	require.Len(t, occ, 21)
	set := 0
	for _, row := range occ {
		require.Len(t, row, 21)
		for _, v := range row {
			if v {
				set++
			}
		}
	}
	// Spacing is at least R/√N > 1 cell, so no two points share a cell.
	assert.Equal(t, 5, set)
	for _, p := range res.Points {
		col := int(math.Floor(p.X)) + 10
		row := int(math.Floor(p.Y)) + 10
		assert.True(t, occ[row][col])
	}
}
