package roi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mrsinham/roiburn/internal/dicom"
)

// ErrUnknownRegion is returned by lookups for a name the catalog does not hold.
var ErrUnknownRegion = errors.New("unknown region")

// Catalog holds the regions of one structure set in declaration order.
type Catalog struct {
	regions []*Region
	byName  map[string]*Region
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]*Region)}
}

// Load clears the catalog and rebuilds it from a structure set. Regions
// are created in ROI sequence order. Contours that reference an ROI number
// with no definition get a region named "ROI <n>". Contours with no points
// are dropped.
func (c *Catalog) Load(ctx context.Context, ss *dicom.StructureSet) {
	c.regions = nil
	c.byName = make(map[string]*Region)
	if ss == nil {
		return
	}

	byNumber := make(map[int]*Region)
	add := func(number int, name string) *Region {
		r := &Region{ROI: number, Name: name, Color: DefaultColor(len(c.regions))}
		c.regions = append(c.regions, r)
		byNumber[number] = r
		if _, dup := c.byName[name]; dup {
			slog.WarnContext(ctx, "duplicate region name", "name", name, "roi", number)
		} else {
			c.byName[name] = r
		}
		return r
	}
	for _, def := range ss.ROIs {
		add(def.Number, def.Name)
	}

	for _, rc := range ss.Contours {
		r, ok := byNumber[rc.ReferencedROI]
		if !ok {
			slog.WarnContext(ctx, "contour references undeclared ROI", "roi", rc.ReferencedROI)
			r = add(rc.ReferencedROI, fmt.Sprintf("ROI %d", rc.ReferencedROI))
		}
		if color, ok := parseDisplayColor(rc.Color); ok {
			r.Color = color
		}
		for _, item := range rc.Items {
			pts := contourPoints(item.Coords)
			if len(pts) == 0 {
				continue
			}
			r.Contours = append(r.Contours, Contour{SliceUID: item.SliceUID, Points: pts})
		}
	}

	for i, r := range c.Sorted() {
		r.Number = i + 1
	}
}

// Len returns the number of regions.
func (c *Catalog) Len() int { return len(c.regions) }

// Regions returns the regions in declaration order.
func (c *Catalog) Regions() []*Region {
	return append([]*Region(nil), c.regions...)
}

// Sorted returns the regions ordered by name, case-insensitively. Equal
// names keep declaration order.
func (c *Catalog) Sorted() []*Region {
	out := c.Regions()
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Names returns the sorted region names.
func (c *Catalog) Names() []string {
	var names []string
	for _, r := range c.Sorted() {
		names = append(names, r.Name)
	}
	return names
}

// Lookup finds a region by exact name.
func (c *Catalog) Lookup(name string) (*Region, error) {
	r, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
	}
	return r, nil
}

// Select marks the named regions selected and every other region
// unselected.
func (c *Catalog) Select(names ...string) error {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, err := c.Lookup(n); err != nil {
			return err
		}
		want[n] = true
	}
	for _, r := range c.regions {
		r.Settings.Selected = want[r.Name]
	}
	return nil
}

// Selected returns the selected regions in sorted order.
func (c *Catalog) Selected() []*Region {
	var out []*Region
	for _, r := range c.Sorted() {
		if r.Settings.Selected {
			out = append(out, r)
		}
	}
	return out
}
