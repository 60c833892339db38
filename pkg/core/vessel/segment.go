package vessel

import (
	"math"

	"github.com/matzehuels/arteria/pkg/core/geom"
)

// Viscosity is the dynamic viscosity of blood in Pa·s.
const Viscosity = 0.0035

// K is the Poiseuille resistance constant 8η/π.
var K = 8 * Viscosity / math.Pi

// Segment is a single straight vessel.
type Segment struct {
	Start       geom.Point
	End         geom.Point
	Radius      float64 // metres
	Flow        float64 // m³/s
	PressureIn  float64 // Pa
	PressureOut float64 // Pa
}

// Length returns the segment length in raster units.
func (s Segment) Length() float64 { return geom.Distance(s.Start, s.End) }

// PressureDrop returns the Poiseuille pressure drop across the segment for its
// current radius and flow.
func (s Segment) PressureDrop() float64 { return Drop(s.Length(), s.Flow, s.Radius) }

// Resistance returns the hydraulic resistance ΔP/Q of the segment.
func (s Segment) Resistance() float64 { return Drop(s.Length(), 1, s.Radius) }

// Volume returns the lumen volume in m³.
func (s Segment) Volume() float64 {
	return math.Pi * s.Radius * s.Radius * geom.ToMeters(s.Length())
}

// Drop returns the Poiseuille pressure drop for a vessel of the given raster
// length, flow and radius.
func Drop(length, flow, radius float64) float64 {
	r2 := radius * radius
	return K * geom.ToMeters(length) * flow / (r2 * r2)
}

// RadiusFor returns the radius that produces the given pressure drop for a
// vessel of the given raster length and flow. It returns NaN when drop is not
// positive.
func RadiusFor(length, flow, drop float64) float64 {
	if drop <= 0 {
		return math.NaN()
	}
	return math.Pow(K*geom.ToMeters(length)*flow/drop, 0.25)
}

// FlowFor returns the flow through a vessel of the given raster length and
// radius under the given pressure drop.
func FlowFor(length, radius, drop float64) float64 {
	r2 := radius * radius
	return drop * r2 * r2 / (K * geom.ToMeters(length))
}
