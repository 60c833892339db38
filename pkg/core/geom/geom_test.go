package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(Pt(0, 0), Pt(3, 4)), 1e-12)
	assert.Zero(t, Distance(Pt(1, 1), Pt(1, 1)))
}

func TestAlong(t *testing.T) {
	p := Along(Pt(0, 0), Pt(10, 0), 2.5)
	assert.True(t, Equal(p, Pt(2.5, 0), 1e-12), "got %v", p)

	p = Along(Pt(1, 1), Pt(1, 5), 1)
	assert.True(t, Equal(p, Pt(1, 2), 1e-12), "got %v", p)

	// zero-length direction stays put
	p = Along(Pt(2, 3), Pt(2, 3), 7)
	assert.Equal(t, Pt(2, 3), p)
}

func TestPolar(t *testing.T) {
	p := Polar(2, math.Pi/2)
	assert.InDelta(t, 0, p.X, 1e-12)
	assert.InDelta(t, 2, p.Y, 1e-12)
}

func TestToMeters(t *testing.T) {
	assert.InDelta(t, 0.25, ToMeters(25), 1e-15)
}

func TestSegmentDistance(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want float64
	}{
		{"above middle", Pt(5, 3), 3},
		{"on segment", Pt(2, 0), 0},
		{"past end", Pt(13, 4), 5},
		{"before start", Pt(-3, -4), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SegmentDistance(tt.p, Pt(0, 0), Pt(10, 0)), 1e-12)
		})
	}
	assert.InDelta(t, 5.0, SegmentDistance(Pt(3, 4), Pt(0, 0), Pt(0, 0)), 1e-12)
}
