package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Densify resamples a closed ring so that consecutive points, including the
// wrap from last to first, are at most maxSpacing apart. Each edge is split
// into ceil(length/maxSpacing) equal steps (at least one) and its closing
// point is left to the next edge. A non-positive maxSpacing returns a copy.
func Densify(points []r3.Vec, maxSpacing float64) []r3.Vec {
	if len(points) == 0 {
		return nil
	}
	if maxSpacing <= 0 || math.IsNaN(maxSpacing) || MaxGap(points) <= maxSpacing {
		return append([]r3.Vec(nil), points...)
	}

	out := make([]r3.Vec, 0, len(points))
	for i, p0 := range points {
		p1 := points[(i+1)%len(points)]
		d := r3.Sub(p1, p0)
		steps := int(math.Ceil(r3.Norm(d) / maxSpacing))
		if steps < 1 {
			steps = 1
		}
		for k := 0; k < steps; k++ {
			t := float64(k) / float64(steps)
			out = append(out, r3.Add(p0, r3.Scale(t, d)))
		}
	}
	return out
}

// MaxGap returns the largest distance between consecutive points of a
// closed ring.
func MaxGap(points []r3.Vec) float64 {
	var gap float64
	for i, p := range points {
		if d := r3.Norm(r3.Sub(points[(i+1)%len(points)], p)); d > gap {
			gap = d
		}
	}
	return gap
}

// Area returns the unsigned shoelace area of a closed 2D ring.
func Area(ring []r2.Vec) float64 {
	var sum float64
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(sum) / 2
}
