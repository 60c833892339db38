// Package render turns grown vessel trees into pictures.
//
// # Overview
//
// Three renderers live in subpackages:
//
//   - [vascular]: the tree geometry as SVG, stroke width by radius
//   - [raster]: boolean occupancy grids written as PNG or BMP
//   - [nodelink]: the tree topology as a Graphviz diagram
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). Both the vascular and the
// node-link renderers use them.
//
//	svg := vascular.RenderSVG(tree)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [vascular]: github.com/matzehuels/arteria/pkg/render/vascular
// [raster]: github.com/matzehuels/arteria/pkg/render/raster
// [nodelink]: github.com/matzehuels/arteria/pkg/render/nodelink
package render
