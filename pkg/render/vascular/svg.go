package vascular

import (
	"bytes"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/arteria/pkg/core/geom"
	"github.com/matzehuels/arteria/pkg/core/vessel"
)

const (
	hairline = 0.25
	margin   = 2.0
)

var (
	highColor, _ = colorful.Hex("#c0392b")
	lowColor, _  = colorful.Hex("#2e86c1")
)

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	frame    float64
	width    float64
	points   []geom.Point
	detailed bool
}

// WithFrame fixes the view to the perfusion disc of radius r and draws its
// outline. Without it the view fits the tree.
func WithFrame(r float64) SVGOption { return func(s *svgRenderer) { s.frame = r } }

// WithWidth sets the output width in pixels. The default is the view width.
func WithWidth(w float64) SVGOption { return func(s *svgRenderer) { s.width = w } }

// WithPoints marks the terminal points.
func WithPoints(ps []geom.Point) SVGOption { return func(s *svgRenderer) { s.points = ps } }

// WithDetailed adds a hover title with the hemodynamics of each segment.
func WithDetailed() SVGOption { return func(s *svgRenderer) { s.detailed = true } }

// RenderSVG draws t.
func RenderSVG(t *vessel.Tree, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	minX, minY, maxX, maxY := r.bounds(t)
	minX, minY, maxX, maxY = minX-margin, minY-margin, maxX+margin, maxY+margin
	vw, vh := maxX-minX, maxY-minY
	w := r.width
	if w <= 0 {
		w = vw
	}
	h := w * vh / vw

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.2f %.2f %.2f %.2f" width="%.0f" height="%.0f">`+"\n",
		minX, -maxY, vw, vh, w, h)
	buf.WriteString(`  <rect x="-100%" y="-100%" width="300%" height="300%" fill="white"/>` + "\n")

	if r.frame > 0 {
		fmt.Fprintf(&buf, `  <circle cx="0" cy="0" r="%.2f" fill="none" stroke="#bbbbbb" stroke-width="%.2f" stroke-dasharray="2 2"/>`+"\n",
			r.frame, hairline)
	}

	pHigh, pLow := pressureRange(t)
	buf.WriteString(`  <g stroke-linecap="round">` + "\n")
	t.Walk(func(id vessel.NodeID, s vessel.Segment) bool {
		r.renderSegment(&buf, id, s, pHigh, pLow)
		return true
	})
	buf.WriteString("  </g>\n")

	for _, p := range r.points {
		fmt.Fprintf(&buf, `  <circle cx="%.3f" cy="%.3f" r="%.2f" fill="black"/>`+"\n", p.X, -p.Y, 2*hairline)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderSegment(buf *bytes.Buffer, id vessel.NodeID, s vessel.Segment, pHigh, pLow float64) {
	width := max(hairline, 2*s.Radius/geom.MetersPerUnit)
	t := 0.0
	if pHigh > pLow {
		t = (pHigh - (s.PressureIn+s.PressureOut)/2) / (pHigh - pLow)
	}
	color := highColor.BlendLab(lowColor, math.Max(0, math.Min(1, t))).Hex()

	fmt.Fprintf(buf, `    <line id="seg-%d" x1="%.3f" y1="%.3f" x2="%.3f" y2="%.3f" stroke="%s" stroke-width="%.3f"`,
		id, s.Start.X, -s.Start.Y, s.End.X, -s.End.Y, color, width)
	if !r.detailed {
		buf.WriteString("/>\n")
		return
	}
	fmt.Fprintf(buf, "><title>segment %d\nradius %.4g mm\nflow %.4g ml/s\npressure %.0f → %.0f Pa</title></line>\n",
		id, s.Radius*1e3, s.Flow*1e6, s.PressureIn, s.PressureOut)
}

func (r *svgRenderer) bounds(t *vessel.Tree) (minX, minY, maxX, maxY float64) {
	if r.frame > 0 {
		return -r.frame, -r.frame, r.frame, r.frame
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	grow := func(p geom.Point) {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	t.Walk(func(_ vessel.NodeID, s vessel.Segment) bool {
		grow(s.Start)
		grow(s.End)
		return true
	})
	for _, p := range r.points {
		grow(p)
	}
	if math.IsInf(minX, 1) {
		return 0, 0, 0, 0
	}
	return minX, minY, maxX, maxY
}

func pressureRange(t *vessel.Tree) (high, low float64) {
	high, low = math.Inf(-1), math.Inf(1)
	t.Walk(func(_ vessel.NodeID, s vessel.Segment) bool {
		high = math.Max(high, s.PressureIn)
		low = math.Min(low, s.PressureOut)
		return true
	})
	return high, low
}
