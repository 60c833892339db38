package grow

import (
	"errors"
	"fmt"
	"math"

	"github.com/matzehuels/arteria/pkg/core/geom"
)

// ErrInvalidParams is returned by [Params.Validate].
var ErrInvalidParams = errors.New("invalid growth parameters")

// Params holds the physical configuration of a growth run.
type Params struct {
	Radius           float64 // perfusion radius, raster units
	Terminals        int
	TerminalPressure float64 // Pa
	InletPressure    float64 // Pa
	InletFlow        float64 // m³/s
	Exponent         float64 // Murray exponent y
}

// Inlet returns the inlet point (−R, 0).
func (p Params) Inlet() geom.Point { return geom.Pt(-p.Radius, 0) }

// TerminalFlow returns the flow allotted to each terminal.
func (p Params) TerminalFlow() float64 { return p.InletFlow / float64(p.Terminals) }

// Validate reports the first parameter that cannot drive a growth run.
func (p Params) Validate() error {
	switch {
	case !positive(p.Radius):
		return fmt.Errorf("%w: perfusion radius %g must be positive", ErrInvalidParams, p.Radius)
	case p.Terminals <= 0:
		return fmt.Errorf("%w: terminal count %d must be positive", ErrInvalidParams, p.Terminals)
	case !positive(p.TerminalPressure):
		return fmt.Errorf("%w: terminal pressure %g must be positive", ErrInvalidParams, p.TerminalPressure)
	case !positive(p.InletPressure):
		return fmt.Errorf("%w: inlet pressure %g must be positive", ErrInvalidParams, p.InletPressure)
	case p.InletPressure <= p.TerminalPressure:
		return fmt.Errorf("%w: inlet pressure %g must exceed terminal pressure %g",
			ErrInvalidParams, p.InletPressure, p.TerminalPressure)
	case !positive(p.InletFlow):
		return fmt.Errorf("%w: inlet flow %g must be positive", ErrInvalidParams, p.InletFlow)
	case !positive(p.Exponent):
		return fmt.Errorf("%w: murray exponent %g must be positive", ErrInvalidParams, p.Exponent)
	}
	return nil
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }
