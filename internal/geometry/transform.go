// Package geometry converts contour points between patient space and the
// pixel grid of a CT slice.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Plane describes the patient-space placement of one slice's pixel grid.
type Plane struct {
	Origin  r3.Vec // patient position of pixel (0,0)
	RowCos  r3.Vec // direction of increasing column index
	ColCos  r3.Vec // direction of increasing row index
	Spacing r2.Vec // X = column spacing, Y = row spacing (mm)
}

// DefaultPlane is the identity placement used when a slice carries no geometry.
func DefaultPlane() Plane {
	return Plane{
		RowCos:  r3.Vec{X: 1},
		ColCos:  r3.Vec{Y: 1},
		Spacing: r2.Vec{X: 1, Y: 1},
	}
}

// PatientToPixel projects a patient-space point onto the slice grid.
// The result is not rounded. A zero spacing yields a non-finite coordinate;
// callers substitute 1.0 for missing spacing before calling.
func PatientToPixel(p, origin, rowCos, colCos r3.Vec, spacing r2.Vec) r2.Vec {
	d := r3.Sub(p, origin)
	return r2.Vec{
		X: r3.Dot(d, rowCos) / spacing.X,
		Y: r3.Dot(d, colCos) / spacing.Y,
	}
}

// ToPixel projects p using the plane's placement.
func (pl Plane) ToPixel(p r3.Vec) r2.Vec {
	return PatientToPixel(p, pl.Origin, pl.RowCos, pl.ColCos, pl.Spacing)
}

// ToPixels projects every point of a ring.
func (pl Plane) ToPixels(points []r3.Vec) []r2.Vec {
	out := make([]r2.Vec, len(points))
	for i, p := range points {
		out[i] = pl.ToPixel(p)
	}
	return out
}

// Round rounds half toward positive infinity, so Round(-0.5) == 0.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}
