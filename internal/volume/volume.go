// Package volume stacks the slices of a series into a 3D array with shared
// geometry, for cross-sectional views and region navigation.
package volume

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mrsinham/roiburn/internal/ct"
	"github.com/mrsinham/roiburn/internal/geometry"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrEmpty is returned when a series has no slices with pixel data.
	ErrEmpty = errors.New("series has no pixel data")
	// ErrOutOfRange is returned for a section index outside the volume.
	ErrOutOfRange = errors.New("section index out of range")
)

// Axis selects the fixed dimension of a section.
type Axis int

const (
	// Axial holds z fixed.
	Axial Axis = iota
	// Sagittal holds x fixed.
	Sagittal
	// Coronal holds y fixed.
	Coronal
)

// String returns the string representation of an Axis.
func (a Axis) String() string {
	switch a {
	case Axial:
		return "axial"
	case Sagittal:
		return "sagittal"
	case Coronal:
		return "coronal"
	default:
		return "unknown"
	}
}

// ParseAxis parses "axial", "sagittal" or "coronal".
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "axial":
		return Axial, nil
	case "sagittal":
		return Sagittal, nil
	case "coronal":
		return Coronal, nil
	}
	return 0, fmt.Errorf("unknown axis %q (want axial, sagittal or coronal)", s)
}

// Volume is a stack of stored pixel planes, x fastest then y then z.
// Rescale, spacing and orientation come from the first slice. Thickness
// is the first slice's declared SliceThickness and is never inferred from
// positions.
type Volume struct {
	Width, Height, Depth int
	Data                 []int16

	Slope, Intercept float64
	Spacing          r2.Vec
	Thickness        float64
	RowCos, ColCos   r3.Vec
	Positions        []r3.Vec
	UIDs             []string

	index map[string]int
}

// Build stacks the series' current pixel arrays: burned when attached,
// stored otherwise. A slice without pixels or with mismatched dimensions
// contributes a zero plane.
func Build(ctx context.Context, series *ct.Series) (*Volume, error) {
	var first *ct.Slice
	for _, s := range series.Slices {
		if s.HasPixels() {
			first = s
			break
		}
	}
	if first == nil {
		return nil, ErrEmpty
	}

	ref := series.First()
	v := &Volume{
		Width:     first.Columns,
		Height:    first.Rows,
		Depth:     series.Len(),
		Slope:     ref.Slope,
		Intercept: ref.Intercept,
		Spacing:   ref.Plane.Spacing,
		Thickness: ref.Thickness,
		RowCos:    ref.Plane.RowCos,
		ColCos:    ref.Plane.ColCos,
		index:     make(map[string]int, series.Len()),
	}
	if v.Thickness <= 0 {
		v.Thickness = 1
	}

	n := v.Width * v.Height
	v.Data = make([]int16, n*v.Depth)
	for z, s := range series.Slices {
		v.Positions = append(v.Positions, s.Plane.Origin)
		v.UIDs = append(v.UIDs, s.UID)
		v.index[s.UID] = z

		px := s.Pixels()
		if len(px) != n || s.Columns != v.Width {
			if len(px) > 0 {
				slog.WarnContext(ctx, "slice dimensions differ from the series", "uid", s.UID, "rows", s.Rows, "columns", s.Columns)
			}
			continue
		}
		copy(v.Data[z*n:(z+1)*n], px)
	}
	return v, nil
}

// Dims returns width, height and depth.
func (v *Volume) Dims() (int, int, int) { return v.Width, v.Height, v.Depth }

// SliceIndex returns the z index of a slice UID.
func (v *Volume) SliceIndex(uid string) (int, bool) {
	z, ok := v.index[uid]
	return z, ok
}

// PlaneAt returns the patient placement of plane z.
func (v *Volume) PlaneAt(z int) geometry.Plane {
	p := geometry.Plane{RowCos: v.RowCos, ColCos: v.ColCos, Spacing: v.Spacing}
	if z >= 0 && z < len(v.Positions) {
		p.Origin = v.Positions[z]
	}
	return p
}

// At returns the stored value of a voxel.
func (v *Volume) At(x, y, z int) int16 {
	return v.Data[(z*v.Height+y)*v.Width+x]
}

// Extent returns the number of valid indices along an axis.
func (v *Volume) Extent(a Axis) int {
	switch a {
	case Sagittal:
		return v.Width
	case Coronal:
		return v.Height
	default:
		return v.Depth
	}
}

// Clamp limits an index to the valid range of an axis.
func (v *Volume) Clamp(a Axis, i int) int {
	return max(0, min(v.Extent(a)-1, i))
}

// Section is one plane of the volume in its local (u, v) grid. Sagittal
// sections use u = y, coronal u = x, both with v = z. Axial sections use
// u = x, v = y.
type Section struct {
	Axis   Axis
	Index  int
	Width  int // u extent
	Height int // v extent
	Data   []int16
	// PixelSize is the physical (u, v) size of one section pixel in mm.
	PixelSize r2.Vec
}

// Section extracts the plane at index along an axis.
func (v *Volume) Section(a Axis, index int) (*Section, error) {
	if index < 0 || index >= v.Extent(a) {
		return nil, fmt.Errorf("%w: %s %d not in [0,%d)", ErrOutOfRange, a, index, v.Extent(a))
	}
	s := &Section{Axis: a, Index: index}
	switch a {
	case Sagittal:
		s.Width, s.Height = v.Height, v.Depth
		s.PixelSize = r2.Vec{X: v.Spacing.Y, Y: v.Thickness}
		s.Data = make([]int16, s.Width*s.Height)
		for z := 0; z < v.Depth; z++ {
			for y := 0; y < v.Height; y++ {
				s.Data[z*s.Width+y] = v.At(index, y, z)
			}
		}
	case Coronal:
		s.Width, s.Height = v.Width, v.Depth
		s.PixelSize = r2.Vec{X: v.Spacing.X, Y: v.Thickness}
		s.Data = make([]int16, s.Width*s.Height)
		for z := 0; z < v.Depth; z++ {
			row := (z*v.Height + index) * v.Width
			copy(s.Data[z*s.Width:(z+1)*s.Width], v.Data[row:row+v.Width])
		}
	default:
		s.Width, s.Height = v.Width, v.Height
		s.PixelSize = v.Spacing
		n := v.Width * v.Height
		s.Data = append([]int16(nil), v.Data[index*n:(index+1)*n]...)
	}
	return s, nil
}

// HU converts a stored value with the volume's rescale.
func (v *Volume) HU(stored int16) float64 {
	m := v.Slope
	if m == 0 {
		m = 1
	}
	return float64(stored)*m + v.Intercept
}
