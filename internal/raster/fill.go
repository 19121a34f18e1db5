// Package raster fills pixel-space polygons into 2D bitmaps and builds 3D
// region masks from per-slice contours.
package raster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// FillEvenOdd sets bitmap[y*width+x] to 1 for every pixel whose center
// (x, y) lies inside an odd number of the polygons. Crossings of all
// polygons are pooled per row, so a ring inside another ring cuts a hole
// and two identical rings cancel. Polygons with fewer than three points or
// non-finite coordinates are ignored. Pixels outside the grid are clipped.
func FillEvenOdd(bitmap []uint8, polygons [][]r2.Vec, width, height int) {
	if width <= 0 || height <= 0 || len(bitmap) < width*height {
		return
	}

	var rings [][]r2.Vec
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range polygons {
		if len(p) < 3 || !finiteRing(p) {
			continue
		}
		rings = append(rings, p)
		for _, v := range p {
			minY = math.Min(minY, v.Y)
			maxY = math.Max(maxY, v.Y)
		}
	}
	if len(rings) == 0 {
		return
	}

	y0 := int(math.Max(0, math.Ceil(minY)))
	y1 := int(math.Min(float64(height-1), math.Floor(maxY)))
	var xs []float64
	for y := y0; y <= y1; y++ {
		fy := float64(y)
		xs = xs[:0]
		for _, ring := range rings {
			for i, a := range ring {
				b := ring[(i+1)%len(ring)]
				if (a.Y > fy) != (b.Y > fy) {
					xs = append(xs, a.X+(fy-a.Y)*(b.X-a.X)/(b.Y-a.Y))
				}
			}
		}
		sort.Float64s(xs)

		row := bitmap[y*width : (y+1)*width]
		for k := 0; k+1 < len(xs); k += 2 {
			start := int(math.Min(float64(width), math.Max(0, math.Ceil(xs[k]))))
			end := int(math.Min(float64(width), math.Max(0, math.Ceil(xs[k+1]))))
			for x := start; x < end; x++ {
				row[x] = 1
			}
		}
	}
}

func finiteRing(ring []r2.Vec) bool {
	for _, v := range ring {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return false
		}
	}
	return true
}
