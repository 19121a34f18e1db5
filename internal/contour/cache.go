package contour

import (
	"sync"

	"github.com/mrsinham/roiburn/internal/raster"
	"github.com/mrsinham/roiburn/internal/volume"
)

type regionSections struct {
	sagittal map[int][]Segment
	coronal  map[int][]Segment
}

// Cache memoizes sections per region name and axis index. Entries stay
// valid until Invalidate, which must accompany every mask invalidation.
type Cache struct {
	mu      sync.Mutex
	regions map[string]*regionSections
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{regions: make(map[string]*regionSections)}
}

// Get returns the cached section of region name, extracting it from m on
// first use.
func (c *Cache) Get(name string, m *raster.Mask, axis volume.Axis, index int) ([]Segment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rs, ok := c.regions[name]
	if !ok {
		rs = &regionSections{sagittal: make(map[int][]Segment), coronal: make(map[int][]Segment)}
		c.regions[name] = rs
	}
	byIndex := rs.sagittal
	if axis == volume.Coronal {
		byIndex = rs.coronal
	}
	if segs, ok := byIndex[index]; ok {
		return segs, nil
	}

	segs, err := Extract(m, axis, index)
	if err != nil {
		return nil, err
	}
	byIndex[index] = segs
	return segs, nil
}

// Invalidate drops every cached section.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regions = make(map[string]*regionSections)
}

// Len returns the number of cached (region, axis, index) entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, rs := range c.regions {
		n += len(rs.sagittal) + len(rs.coronal)
	}
	return n
}
