package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/arteria/pkg/core/geom"
	"github.com/matzehuels/arteria/pkg/core/vessel"
	"github.com/matzehuels/arteria/pkg/render/nodelink"
)

func ExampleToDOT() {
	tree := vessel.New()
	root, _ := tree.SetRoot(vessel.Segment{Start: geom.Pt(-10, 0), End: geom.Pt(0, 0), Radius: 0.002})
	leaf := tree.NewNode(vessel.Segment{End: geom.Pt(5, 5), Radius: 0.0016})
	_ = tree.SetChildren(root, leaf)

	dot := nodelink.ToDOT(tree, nodelink.Options{})
	fmt.Println(strings.Count(dot, "->"), "edge")
	// Output:
	// 1 edge
}
