package vascular

import (
	"github.com/matzehuels/arteria/pkg/core/vessel"
	"github.com/matzehuels/arteria/pkg/render"
)

// RenderPNG renders t as PNG via SVG conversion at the given scale.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(t *vessel.Tree, scale float64, opts ...SVGOption) ([]byte, error) {
	if scale <= 0 {
		scale = 2.0
	}
	return render.ToPNG(RenderSVG(t, opts...), scale)
}

// RenderPDF renders t as PDF via SVG conversion.
func RenderPDF(t *vessel.Tree, opts ...SVGOption) ([]byte, error) {
	return render.ToPDF(RenderSVG(t, opts...))
}
