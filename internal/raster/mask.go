package raster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mrsinham/roiburn/internal/geometry"
	"github.com/mrsinham/roiburn/internal/roi"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrNoContours is returned when a region has nothing to rasterize on the
// current series.
var ErrNoContours = errors.New("region has no contours on this series")

// DensifySpacing is the maximum patient-space gap, in mm, between contour
// points before rasterization.
const DensifySpacing = 1.0

// Geometry is the stack a region is rasterized against.
type Geometry interface {
	Dims() (width, height, depth int)
	SliceIndex(uid string) (int, bool)
	PlaneAt(z int) geometry.Plane
}

// Box is an inclusive voxel bounding box.
type Box struct {
	MinX, MinY, MinZ int
	MaxX, MaxY, MaxZ int
}

// Mask is a binary volume, x fastest then y then z.
type Mask struct {
	Width, Height, Depth int
	Bits                 []uint8
	Bounds               Box
	Voxels               int
}

// NewMask allocates an empty mask.
func NewMask(width, height, depth int) *Mask {
	return &Mask{Width: width, Height: height, Depth: depth, Bits: make([]uint8, width*height*depth)}
}

// At reports whether a voxel is set. Out-of-range voxels are unset.
func (m *Mask) At(x, y, z int) bool {
	if x < 0 || y < 0 || z < 0 || x >= m.Width || y >= m.Height || z >= m.Depth {
		return false
	}
	return m.Bits[(z*m.Height+y)*m.Width+x] != 0
}

// Set marks a voxel. Bounds and Voxels are not updated until Measure.
func (m *Mask) Set(x, y, z int) {
	m.Bits[(z*m.Height+y)*m.Width+x] = 1
}

// Plane returns the z-plane bitmap, sharing the mask storage.
func (m *Mask) Plane(z int) []uint8 {
	n := m.Width * m.Height
	return m.Bits[z*n : (z+1)*n]
}

// Center returns the rounded center of the bounding box.
func (m *Mask) Center() (x, y, z int) {
	b := m.Bounds
	return geometry.Round(float64(b.MinX+b.MaxX) / 2),
		geometry.Round(float64(b.MinY+b.MaxY) / 2),
		geometry.Round(float64(b.MinZ+b.MaxZ) / 2)
}

// Measure recomputes Voxels and Bounds.
func (m *Mask) Measure() {
	m.Voxels = 0
	b := Box{MinX: m.Width, MinY: m.Height, MinZ: m.Depth, MaxX: -1, MaxY: -1, MaxZ: -1}
	i := 0
	for z := 0; z < m.Depth; z++ {
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				if m.Bits[i] != 0 {
					m.Voxels++
					b.MinX, b.MaxX = min(b.MinX, x), max(b.MaxX, x)
					b.MinY, b.MaxY = min(b.MinY, y), max(b.MaxY, y)
					b.MinZ, b.MaxZ = min(b.MinZ, z), max(b.MaxZ, z)
				}
				i++
			}
		}
	}
	m.Bounds = b
}

// SlicePolygons returns the region's pixel-space polygons on one plane,
// densified in patient space first.
func SlicePolygons(contours []roi.Contour, plane geometry.Plane) [][]r2.Vec {
	polys := make([][]r2.Vec, 0, len(contours))
	for _, c := range contours {
		polys = append(polys, plane.ToPixels(geometry.Densify(c.Points, DensifySpacing)))
	}
	return polys
}

// RasterizeRegion fills every resolvable contour of r into a mask over g.
// Contours on the same slice are filled together with the even-odd rule.
// Contours that reference a slice missing from g are skipped.
func RasterizeRegion(ctx context.Context, r *roi.Region, g Geometry) (*Mask, error) {
	w, h, d := g.Dims()
	byPlane := make(map[int][]roi.Contour)
	for _, uid := range r.Slices() {
		z, ok := g.SliceIndex(uid)
		if !ok {
			slog.DebugContext(ctx, "skipping stale contours", "region", r.Name, "slice", uid)
			continue
		}
		byPlane[z] = append(byPlane[z], r.ContoursOn(uid)...)
	}
	if len(byPlane) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoContours, r.Name)
	}

	m := NewMask(w, h, d)
	for z, contours := range byPlane {
		FillEvenOdd(m.Plane(z), SlicePolygons(contours, g.PlaneAt(z)), w, h)
	}
	m.Measure()
	if m.Voxels == 0 {
		return nil, fmt.Errorf("%w: %s covers no pixels", ErrNoContours, r.Name)
	}
	return m, nil
}

// MaskCache memoizes region masks by name for one series. Failures are
// not cached.
type MaskCache struct {
	mu    sync.Mutex
	masks map[string]*Mask
}

// NewMaskCache returns an empty cache.
func NewMaskCache() *MaskCache {
	return &MaskCache{masks: make(map[string]*Mask)}
}

// Get returns the cached mask for r or rasterizes it.
func (c *MaskCache) Get(ctx context.Context, r *roi.Region, g Geometry) (*Mask, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.masks[r.Name]; ok {
		return m, nil
	}
	m, err := RasterizeRegion(ctx, r, g)
	if err != nil {
		return nil, err
	}
	c.masks[r.Name] = m
	return m, nil
}

// Invalidate drops every cached mask.
func (c *MaskCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.masks = make(map[string]*Mask)
}

// Len returns the number of cached masks.
func (c *MaskCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.masks)
}
