package pipeline

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/arteria/pkg/core/vessel"
	arteriaio "github.com/matzehuels/arteria/pkg/io"
	"github.com/matzehuels/arteria/pkg/render/nodelink"
	"github.com/matzehuels/arteria/pkg/render/raster"
	"github.com/matzehuels/arteria/pkg/render/vascular"
)

// Render generates output artifacts in the requested formats. doc supplies
// the parameters and points, tree the geometry; tree may be nil, in which
// case it is rebuilt from doc.
func Render(doc *arteriaio.Document, tree *vessel.Tree, opts Options) (map[string][]byte, error) {
	if tree == nil {
		var err error
		if tree, err = doc.Tree(); err != nil {
			return nil, fmt.Errorf("rebuild tree: %w", err)
		}
	}

	svgOpts := buildSVGOptions(doc, opts)
	radius := doc.Params.PerfusionRadius
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = vascular.RenderSVG(tree, svgOpts...)
		case FormatPNG:
			data, err = vascular.RenderPNG(tree, PNGScale, svgOpts...)
		case FormatPDF:
			data, err = vascular.RenderPDF(tree, svgOpts...)
		case FormatJSON:
			var buf bytes.Buffer
			err = arteriaio.WriteJSON(doc, &buf)
			data = buf.Bytes()
		case FormatDOT:
			data = []byte(nodelink.ToDOT(tree, nodelink.Options{Detailed: opts.Detailed}))
		case FormatTopology:
			data, err = nodelink.RenderSVG(nodelink.ToDOT(tree, nodelink.Options{Detailed: opts.Detailed}))
		case FormatBMP:
			data, err = raster.Bytes(raster.FromTree(radius, tree, raster.TreeOptions{}), raster.FormatBMP)
		case FormatRasterPNG:
			data, err = raster.Bytes(raster.FromTree(radius, tree, raster.TreeOptions{}), raster.FormatPNG)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func buildSVGOptions(doc *arteriaio.Document, opts Options) []vascular.SVGOption {
	svgOpts := []vascular.SVGOption{
		vascular.WithFrame(float64(doc.Params.PerfusionRadius)),
		vascular.WithPoints(doc.GeomPoints()),
	}
	if opts.Width > 0 {
		svgOpts = append(svgOpts, vascular.WithWidth(opts.Width))
	}
	if opts.Detailed {
		svgOpts = append(svgOpts, vascular.WithDetailed())
	}
	return svgOpts
}
