// Package roi holds the regions of a structure set and the burn settings a
// user attaches to each of them.
package roi

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Contour is one closed polygon in patient space on one slice.
type Contour struct {
	SliceUID string
	Points   []r3.Vec
}

// Region is a named structure with its contours and user settings.
type Region struct {
	Number   int    // Display number, 1..n after sorting
	ROI      int    // ROI number declared by the structure set
	Name     string
	Color    string // "#rrggbb"
	Contours []Contour
	Settings Settings
}

// ContoursOn returns the region's non-empty contours on one slice, in
// declaration order.
func (r *Region) ContoursOn(sliceUID string) []Contour {
	return contoursOn(r.Contours, sliceUID)
}

func contoursOn(contours []Contour, sliceUID string) []Contour {
	var out []Contour
	for _, c := range contours {
		if c.SliceUID == sliceUID && len(c.Points) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Slices returns the distinct slice UIDs the region has contours on.
func (r *Region) Slices() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range r.Contours {
		if !seen[c.SliceUID] {
			seen[c.SliceUID] = true
			out = append(out, c.SliceUID)
		}
	}
	return out
}

// palette colors are assigned by declaration index when a structure set
// carries no display color.
var palette = []string{
	"#ec6602",
	"#009999",
	"#ff6b6b",
	"#4ecdc4",
	"#45b7d1",
	"#96ceb4",
	"#ffeaa7",
	"#dfe6e9",
	"#a8e6cf",
	"#ff8b94",
}

// DefaultColor returns the palette color for a declaration index.
func DefaultColor(index int) string {
	if index < 0 {
		index = -index
	}
	return palette[index%len(palette)]
}

// parseDisplayColor converts a DICOM "r\g\b" color to "#rrggbb".
func parseDisplayColor(s string) (string, bool) {
	parts := strings.Split(s, `\`)
	if len(parts) != 3 {
		return "", false
	}
	var rgb [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return "", false
		}
		rgb[i] = min(max(n, 0), 255)
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]), true
}

// contourPoints groups flat x,y,z coordinates into points. A trailing
// partial triple and non-finite values are dropped.
func contourPoints(coords []float64) []r3.Vec {
	pts := make([]r3.Vec, 0, len(coords)/3)
	for i := 0; i+2 < len(coords); i += 3 {
		p := r3.Vec{X: coords[i], Y: coords[i+1], Z: coords[i+2]}
		if finite(p.X) && finite(p.Y) && finite(p.Z) {
			pts = append(pts, p)
		}
	}
	return pts
}
