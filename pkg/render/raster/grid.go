package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/matzehuels/arteria/pkg/core/geom"
	"github.com/matzehuels/arteria/pkg/core/vessel"
)

// Grid is a square boolean raster centred on the origin.
type Grid struct {
	Radius int
	cells  []bool
}

// NewGrid returns an empty grid of side 2·radius+1.
func NewGrid(radius int) *Grid {
	radius = max(radius, 0)
	size := 2*radius + 1
	return &Grid{Radius: radius, cells: make([]bool, size*size)}
}

// FromCells wraps a square [row][col] matrix, such as a sampler occupancy
// grid. Ragged rows are truncated or padded with false.
func FromCells(cells [][]bool) *Grid {
	g := NewGrid((len(cells) - 1) / 2)
	n := g.Size()
	for row := 0; row < n && row < len(cells); row++ {
		for col := 0; col < n && col < len(cells[row]); col++ {
			g.cells[row*n+col] = cells[row][col]
		}
	}
	return g
}

// FromPoints marks the cell under each point.
func FromPoints(radius int, points []geom.Point) *Grid {
	g := NewGrid(radius)
	for _, p := range points {
		g.Set(p)
	}
	return g
}

// TreeOptions controls [FromTree].
type TreeOptions struct {
	// MinWidth is the smallest stroke half-width in raster units.
	// Zero means 0.5, one cell.
	MinWidth float64
	// Thickness multiplies the physical radius. Zero means 1.
	Thickness float64
}

// FromTree draws every segment as a thick line whose half-width is the
// vessel radius converted to raster units.
func FromTree(radius int, t *vessel.Tree, opts TreeOptions) *Grid {
	if opts.MinWidth <= 0 {
		opts.MinWidth = 0.5
	}
	if opts.Thickness <= 0 {
		opts.Thickness = 1
	}
	g := NewGrid(radius)
	t.Walk(func(_ vessel.NodeID, s vessel.Segment) bool {
		w := max(opts.MinWidth, opts.Thickness*s.Radius/geom.MetersPerUnit)
		g.stroke(s.Start, s.End, w)
		return true
	})
	return g
}

// stroke sets every cell whose centre lies within w of a–b.
func (g *Grid) stroke(a, b geom.Point, w float64) {
	c0, r0 := g.index(geom.Pt(min(a.X, b.X)-w, min(a.Y, b.Y)-w))
	c1, r1 := g.index(geom.Pt(max(a.X, b.X)+w, max(a.Y, b.Y)+w))
	n := g.Size()
	for row := max(r0, 0); row <= min(r1, n-1); row++ {
		for col := max(c0, 0); col <= min(c1, n-1); col++ {
			centre := geom.Pt(float64(col-g.Radius)+0.5, float64(row-g.Radius)+0.5)
			if geom.SegmentDistance(centre, a, b) <= w {
				g.cells[row*n+col] = true
			}
		}
	}
}

// Size returns the side length in cells.
func (g *Grid) Size() int { return 2*g.Radius + 1 }

func (g *Grid) index(p geom.Point) (col, row int) {
	return int(math.Floor(p.X)) + g.Radius, int(math.Floor(p.Y)) + g.Radius
}

// Set marks the cell under p. Points outside the grid are ignored.
func (g *Grid) Set(p geom.Point) {
	col, row := g.index(p)
	if g.inside(col, row) {
		g.cells[row*g.Size()+col] = true
	}
}

// At reports whether cell (col, row) is set.
func (g *Grid) At(col, row int) bool {
	return g.inside(col, row) && g.cells[row*g.Size()+col]
}

// Count returns the number of set cells.
func (g *Grid) Count() int {
	n := 0
	for _, c := range g.cells {
		if c {
			n++
		}
	}
	return n
}

func (g *Grid) inside(col, row int) bool {
	n := g.Size()
	return col >= 0 && row >= 0 && col < n && row < n
}

// Image returns g as a grayscale image, set cells black, y up.
func (g *Grid) Image() *image.Gray {
	n := g.Size()
	img := image.NewGray(image.Rect(0, 0, n, n))
	for row := 0; row < n; row++ {
		y := n - 1 - row
		for col := 0; col < n; col++ {
			c := color.Gray{Y: 0xff}
			if g.cells[row*n+col] {
				c = color.Gray{Y: 0}
			}
			img.SetGray(col, y, c)
		}
	}
	return img
}
