package sampler

import (
	"math"

	"github.com/matzehuels/arteria/pkg/core/geom"
)

// cellKey addresses one pixel cell as (col, row).
type cellKey [2]int

// grid buckets accepted point indices by pixel cell. Only occupied cells
// are stored, so memory grows with the number of points, not the radius.
type grid struct {
	offset int
	size   int
	cells  map[cellKey][]int
}

func newGrid(radius float64) *grid {
	offset := int(math.Ceil(radius))
	return &grid{offset: offset, size: 2*offset + 1, cells: make(map[cellKey][]int)}
}

func (g *grid) cell(p geom.Point) cellKey {
	return cellKey{g.clamp(math.Floor(p.X)), g.clamp(math.Floor(p.Y))}
}

func (g *grid) clamp(v float64) int {
	return int(max(0, min(v+float64(g.offset), float64(g.size-1))))
}

func (g *grid) insert(p geom.Point, idx int) {
	k := g.cell(p)
	g.cells[k] = append(g.cells[k], idx)
}

// crowded reports whether any accepted point within the half-width-excl box
// around p lies closer than excl. When the box spans more cells than there
// are accepted points, the points are scanned directly.
func (g *grid) crowded(p geom.Point, excl float64, points []geom.Point) bool {
	lo := g.cell(geom.Pt(p.X-excl, p.Y-excl))
	hi := g.cell(geom.Pt(p.X+excl, p.Y+excl))
	span := float64(hi[0]-lo[0]+1) * float64(hi[1]-lo[1]+1)
	if span > float64(len(points)) {
		for _, q := range points {
			if geom.Distance(p, q) < excl {
				return true
			}
		}
		return false
	}
	for row := lo[1]; row <= hi[1]; row++ {
		for col := lo[0]; col <= hi[0]; col++ {
			for _, idx := range g.cells[cellKey{col, row}] {
				if geom.Distance(p, points[idx]) < excl {
					return true
				}
			}
		}
	}
	return false
}

// occupancy expands the index into a dense [row][col] matrix.
func (g *grid) occupancy() [][]bool {
	out := make([][]bool, g.size)
	for row := range out {
		out[row] = make([]bool, g.size)
	}
	for k := range g.cells {
		out[k[1]][k[0]] = true
	}
	return out
}
