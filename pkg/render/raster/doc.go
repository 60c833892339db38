// Package raster draws point sets and vessel trees onto square boolean
// grids and writes them as bitmaps.
//
// A [Grid] of radius R has side 2R+1 and covers the plane from −R to R+1 on
// both axes, one cell per raster unit, matching the sampler's occupancy grid.
// Occupied cells are written black on white, with y pointing up.
//
//	g := raster.FromPoints(100, result.Points)
//	err := raster.FileSink{Dir: "out", Format: raster.FormatPNG}.Write(g, "points")
package raster
