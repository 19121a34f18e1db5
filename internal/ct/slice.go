// Package ct models a loaded CT series: per-slice geometry, rescale
// parameters and the stored pixel arrays, plus the HU conversions used by
// the compositor.
package ct

import (
	"context"
	"log/slog"
	"math"

	"github.com/mrsinham/roiburn/internal/dicom"
	"github.com/mrsinham/roiburn/internal/geometry"
	"github.com/suyashkumar/dicom/pkg/tag"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Slice is one CT image. Stored is nil when the record carried no usable
// pixel data. Burned is attached by the compositor and never mutated after.
type Slice struct {
	Record *dicom.Record // nil for in-memory slices

	UID       string
	Rows      int
	Columns   int
	Slope     float64
	Intercept float64
	Plane     geometry.Plane
	Thickness float64
	StudyDate string

	Stored []int16
	Burned []int16
}

// NewSlice builds an in-memory slice with identity geometry, slope 1 and
// intercept 0.
func NewSlice(uid string, rows, columns int, stored []int16) *Slice {
	return &Slice{
		UID:     uid,
		Rows:    rows,
		Columns: columns,
		Slope:   1,
		Plane:   geometry.DefaultPlane(),
		Stored:  stored,
	}
}

// FromRecord reads the geometry, rescale and pixel fields of a CT record.
// Missing or malformed geometry falls back to identity values. A pixel
// payload that cannot be decoded is logged and leaves Stored nil.
func FromRecord(ctx context.Context, r *dicom.Record) *Slice {
	s := &Slice{
		Record:    r,
		UID:       r.SOPInstanceUID(),
		Rows:      r.Int(tag.Rows, 0),
		Columns:   r.Int(tag.Columns, 0),
		Slope:     r.Float(tag.RescaleSlope, 1),
		Intercept: r.Float(tag.RescaleIntercept, 0),
		Thickness: r.Float(tag.SliceThickness, 1),
		StudyDate: r.String(tag.StudyDate),
		Plane:     geometry.DefaultPlane(),
	}

	if pos := r.Floats(tag.ImagePositionPatient); len(pos) >= 3 && allFinite(pos[:3]) {
		s.Plane.Origin = r3.Vec{X: pos[0], Y: pos[1], Z: pos[2]}
	}
	if o := r.Floats(tag.ImageOrientationPatient); len(o) >= 6 && allFinite(o[:6]) {
		s.Plane.RowCos = r3.Vec{X: o[0], Y: o[1], Z: o[2]}
		s.Plane.ColCos = r3.Vec{X: o[3], Y: o[4], Z: o[5]}
	}
	// PixelSpacing is (row spacing, column spacing). A slice with X = column
	// spacing walks along a row.
	if sp := r.Floats(tag.PixelSpacing); len(sp) >= 2 {
		s.Plane.Spacing = r2.Vec{X: positiveOr(sp[1], 1), Y: positiveOr(sp[0], 1)}
	}

	px, err := r.PixelInt16()
	if err != nil {
		slog.WarnContext(ctx, "slice pixel data unavailable", "uid", s.UID, "path", r.Path, "error", err)
		return s
	}
	if s.Rows*s.Columns != len(px) {
		slog.WarnContext(ctx, "slice pixel count mismatch", "uid", s.UID, "rows", s.Rows, "columns", s.Columns, "samples", len(px))
		return s
	}
	s.Stored = px
	return s
}

// HasPixels reports whether the slice carries a stored pixel array.
func (s *Slice) HasPixels() bool {
	return len(s.Stored) > 0 && len(s.Stored) == s.Rows*s.Columns
}

// Pixels returns the burned array when present, else the stored one.
func (s *Slice) Pixels() []int16 {
	if s.Burned != nil {
		return s.Burned
	}
	return s.Stored
}

// WithBurned returns a copy of the slice carrying px as its burned array.
// The receiver is not modified.
func (s *Slice) WithBurned(px []int16) *Slice {
	c := *s
	c.Burned = px
	return &c
}

// slope returns the rescale slope, treating 0 and non-finite values as 1.
func (s *Slice) slope() float64 {
	if s.Slope == 0 || math.IsNaN(s.Slope) || math.IsInf(s.Slope, 0) {
		return 1
	}
	return s.Slope
}

// ToHU converts stored values to calibrated intensity.
func (s *Slice) ToHU(stored []int16) []float64 {
	m, b := s.slope(), s.Intercept
	hu := make([]float64, len(stored))
	for i, v := range stored {
		hu[i] = float64(v)*m + b
	}
	return hu
}

// FromHU converts intensities back to stored values, rounding half up and
// clamping to the signed 16-bit range.
func (s *Slice) FromHU(hu []float64) []int16 {
	m, b := s.slope(), s.Intercept
	out := make([]int16, len(hu))
	for i, v := range hu {
		out[i] = StoredValue(v, m, b)
	}
	return out
}

// StoredValue maps one intensity to its stored value.
func StoredValue(hu, slope, intercept float64) int16 {
	if slope == 0 {
		slope = 1
	}
	v := math.Floor((hu-intercept)/slope + 0.5)
	switch {
	case math.IsNaN(v):
		return 0
	case v < math.MinInt16:
		return math.MinInt16
	case v > math.MaxInt16:
		return math.MaxInt16
	}
	return int16(v)
}

func allFinite(v []float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func positiveOr(v, def float64) float64 {
	if v > 0 && !math.IsInf(v, 0) {
		return v
	}
	return def
}
