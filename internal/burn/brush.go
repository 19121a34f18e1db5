package burn

import (
	"math"

	"github.com/mrsinham/roiburn/internal/geometry"
	"github.com/mrsinham/roiburn/internal/raster"
	"gonum.org/v1/gonum/spatial/r2"
)

// stamp writes value into a square brush at (x, y). The side is
// round(width), at least 1. Odd sides are centered on the point, even
// sides extend right and down from it. The brush is clipped to the image.
func stamp(hu []float64, w, h, x, y int, value, width float64) {
	side := max(1, geometry.Round(width))
	x0, y0 := x, y
	if side%2 == 1 {
		x0, y0 = x-side/2, y-side/2
	}
	x1, y1 := x0+side-1, y0+side-1
	x0, y0 = max(0, x0), max(0, y0)
	x1, y1 = min(w-1, x1), min(h-1, y1)
	for yy := y0; yy <= y1; yy++ {
		row := hu[yy*w : (yy+1)*w]
		for xx := x0; xx <= x1; xx++ {
			row[xx] = value
		}
	}
}

// applyFill offsets every pixel inside the even-odd union of polys by
// delta, reading the source intensity from baseline.
func applyFill(hu, baseline []float64, w, h int, polys [][]r2.Vec, delta float64) {
	mask := make([]uint8, w*h)
	raster.FillEvenOdd(mask, polys, w, h)
	delta = math.Max(-maxFillDelta, math.Min(maxFillDelta, delta))
	for i, in := range mask {
		if in != 0 {
			hu[i] = clampHU(baseline[i] + delta)
		}
	}
}
