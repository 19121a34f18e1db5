// Package contour extracts boundary line segments from sagittal and
// coronal cross-sections of a region mask with marching squares.
package contour

import (
	"fmt"

	"github.com/mrsinham/roiburn/internal/raster"
	"github.com/mrsinham/roiburn/internal/volume"
	"gonum.org/v1/gonum/spatial/r2"
)

// Segment is one boundary line in section (u, v) coordinates, where u is
// the in-plane axis (y for sagittal, x for coronal) and v is the slice
// index. Endpoints fall on half-voxel positions.
type Segment struct {
	A, B r2.Vec
}

// cell edge midpoints, relative to corner v0 = (u0, v0):
//
//	v3 ---top--- v2
//	 |            |
//	left        right
//	 |            |
//	v0 --bottom-- v1
type edge int

const (
	left edge = iota
	bottom
	right
	top
)

// edgeTable lists the segments for each corner code, where bit 0 is v0,
// bit 1 is v1, bit 2 is v2 and bit 3 is v3. Saddles 5 and 10 always
// emit two segments with no disambiguation.
var edgeTable = [16][][2]edge{
	0:  nil,
	1:  {{left, bottom}},
	2:  {{bottom, right}},
	3:  {{left, right}},
	4:  {{right, top}},
	5:  {{left, bottom}, {right, top}},
	6:  {{bottom, top}},
	7:  {{left, top}},
	8:  {{left, top}},
	9:  {{bottom, top}},
	10: {{bottom, right}, {left, top}},
	11: {{right, top}},
	12: {{left, right}},
	13: {{bottom, right}},
	14: {{left, bottom}},
	15: nil,
}

func midpoint(e edge, u, v float64) r2.Vec {
	switch e {
	case left:
		return r2.Vec{X: u, Y: v + 0.5}
	case bottom:
		return r2.Vec{X: u + 0.5, Y: v}
	case right:
		return r2.Vec{X: u + 1, Y: v + 0.5}
	default:
		return r2.Vec{X: u + 0.5, Y: v + 1}
	}
}

// Extract runs marching squares over the plane of m that holds one axis
// fixed at index. Sagittal sections walk (y, z) at x = index, coronal
// sections walk (x, z) at y = index. Cells that are all set or all unset
// produce nothing.
func Extract(m *raster.Mask, axis volume.Axis, index int) ([]Segment, error) {
	var at func(u, v int) bool
	var width int
	switch axis {
	case volume.Sagittal:
		if index < 0 || index >= m.Width {
			return nil, fmt.Errorf("%w: sagittal %d", volume.ErrOutOfRange, index)
		}
		width = m.Height
		at = func(u, v int) bool { return m.At(index, u, v) }
	case volume.Coronal:
		if index < 0 || index >= m.Height {
			return nil, fmt.Errorf("%w: coronal %d", volume.ErrOutOfRange, index)
		}
		width = m.Width
		at = func(u, v int) bool { return m.At(u, index, v) }
	default:
		return nil, fmt.Errorf("cross-sections are sagittal or coronal, not %s", axis)
	}

	var segments []Segment
	for v := 0; v < m.Depth-1; v++ {
		for u := 0; u < width-1; u++ {
			code := bit(at(u, v)) | bit(at(u+1, v))<<1 | bit(at(u+1, v+1))<<2 | bit(at(u, v+1))<<3
			fu, fv := float64(u), float64(v)
			for _, e := range edgeTable[code] {
				segments = append(segments, Segment{A: midpoint(e[0], fu, fv), B: midpoint(e[1], fu, fv)})
			}
		}
	}
	return segments, nil
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
