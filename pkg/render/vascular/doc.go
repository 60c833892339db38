// Package vascular renders the geometry of a grown tree as SVG.
//
// Each segment becomes a line whose stroke width is the vessel diameter in
// raster units (never thinner than a hairline) and whose colour runs from
// red at the inlet pressure to blue at the terminal pressure. The y axis
// points up, so the picture matches the raster sinks.
//
//	svg := vascular.RenderSVG(tree, vascular.WithFrame(100), vascular.WithPoints(points))
//	png, err := vascular.RenderPNG(tree, 2.0, vascular.WithFrame(100))
package vascular
