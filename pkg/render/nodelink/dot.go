package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/arteria/pkg/core/vessel"
	"github.com/matzehuels/arteria/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds radius, flow and pressures to node labels.
	// When false, only the segment number is shown.
	Detailed bool
}

// ToDOT converts a tree to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(t *vessel.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	rootR := 0.0
	if root := t.Root(); root != vessel.NoNode {
		rootR = t.Segment(root).Radius
	}

	t.Walk(func(id vessel.NodeID, s vessel.Segment) bool {
		label := fmtLabel(id, s, opts.Detailed)
		attrs := fmtAttrs(t.IsLeaf(id), label)
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeName(id), strings.Join(attrs, ", "))
		return true
	})

	buf.WriteString("\n")
	t.Walk(func(id vessel.NodeID, _ vessel.Segment) bool {
		for _, c := range t.Children(id) {
			fmt.Fprintf(&buf, "  %q -> %q [penwidth=%.2f];\n", nodeName(id), nodeName(c), penWidth(t.Segment(c).Radius, rootR))
		}
		return true
	})

	buf.WriteString("}\n")
	return buf.String()
}

func nodeName(id vessel.NodeID) string { return "s" + strconv.Itoa(int(id)) }

func penWidth(r, rootR float64) float64 {
	if rootR <= 0 {
		return 1
	}
	return 1 + 4*r/rootR
}

func fmtLabel(id vessel.NodeID, s vessel.Segment, detailed bool) string {
	if !detailed {
		return strconv.Itoa(int(id))
	}
	parts := []string{
		fmt.Sprintf("r: %.4g mm", s.Radius*1e3),
		fmt.Sprintf("Q: %.4g ml/s", s.Flow*1e6),
		fmt.Sprintf("P: %.0f-%.0f Pa", s.PressureIn, s.PressureOut),
	}
	return strconv.Itoa(int(id)) + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(leaf bool, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if leaf {
		attrs = append(attrs, "shape=circle", "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the picture starts at the origin
// and carries explicit pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion at the given scale.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
