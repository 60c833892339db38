package grow_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/arteria/pkg/core/geom"
	"github.com/matzehuels/arteria/pkg/core/grow"
	"github.com/matzehuels/arteria/pkg/core/vessel"
)

func ExampleBuilder_Grow() {
	b, err := grow.New(grow.Params{
		Radius:           50,
		Terminals:        3,
		TerminalPressure: 8000,
		InletPressure:    13300,
		InletFlow:        6e-6,
		Exponent:         3,
	})
	if err != nil {
		panic(err)
	}

	points := []geom.Point{geom.Pt(30, 0), geom.Pt(0, 30), geom.Pt(0, -30)}
	tree, err := b.Grow(context.Background(), points)
	if err != nil {
		panic(err)
	}

	fmt.Println("segments:", tree.Len())
	fmt.Println("terminals:", len(tree.Leaves()))
	fmt.Println("consistent:", vessel.Validate(tree, b.Tolerance()) == nil)
	// Output:
	// segments: 5
	// terminals: 3
	// consistent: true
}
