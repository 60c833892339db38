package grow

import (
	"errors"
	"fmt"

	"github.com/matzehuels/arteria/pkg/core/geom"
	"github.com/matzehuels/arteria/pkg/core/vessel"
)

// ErrDegenerateGeometry is returned when no segment of the tree admits a
// candidate bifurcation site for a terminal.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// InsertionError reports a failed insertion together with the terminal and
// the segment it was being attached to. Segment is vessel.NoNode when the
// search itself failed.
type InsertionError struct {
	Index    int
	Terminal geom.Point
	Segment  vessel.NodeID
	Err      error
}

func (e *InsertionError) Error() string {
	if e.Segment == vessel.NoNode {
		return fmt.Sprintf("terminal %d at (%.3f, %.3f): %v", e.Index, e.Terminal.X, e.Terminal.Y, e.Err)
	}
	return fmt.Sprintf("terminal %d at (%.3f, %.3f) on segment %d: %v",
		e.Index, e.Terminal.X, e.Terminal.Y, e.Segment, e.Err)
}

func (e *InsertionError) Unwrap() error { return e.Err }
