// Package geom holds the planar primitives shared by the sampler, the tree
// builder and the renderers.
//
// Coordinates are raster units (pixels). Physical lengths are obtained with
// [ToMeters]; one raster unit is one centimetre.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// MetersPerUnit converts raster units to metres.
const MetersPerUnit = 0.01

// Point is a location in the raster plane.
type Point = r2.Vec

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 { return r2.Norm(r2.Sub(a, b)) }

// Along returns the point at distance x from start in the direction of end.
// A zero-length direction returns start.
func Along(start, end Point, x float64) Point {
	d := r2.Sub(end, start)
	if r2.Norm(d) == 0 {
		return start
	}
	return r2.Add(start, r2.Scale(x, r2.Unit(d)))
}

// ToMeters converts a raster length to metres.
func ToMeters(units float64) float64 { return units * MetersPerUnit }

// Polar converts polar coordinates around the origin to a Point.
func Polar(r, theta float64) Point {
	return Point{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
}

// Equal reports whether a and b coincide within tol on both axes.
func Equal(a, b Point, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// SegmentDistance returns the distance from p to the closed segment a–b.
func SegmentDistance(p, a, b Point) float64 {
	d := r2.Sub(b, a)
	l2 := r2.Dot(d, d)
	if l2 == 0 {
		return Distance(p, a)
	}
	t := max(0, min(1, r2.Dot(r2.Sub(p, a), d)/l2))
	return Distance(p, r2.Add(a, r2.Scale(t, d)))
}
