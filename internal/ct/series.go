package ct

import (
	"context"
	"sort"

	"github.com/mrsinham/roiburn/internal/dicom"
)

// Series is an ordered stack of slices, ascending by the z component of
// the patient position. All slices are assumed to share dimensions,
// spacing and orientation.
type Series struct {
	Slices []*Slice
	index  map[string]int
}

// NewSeries sorts slices by z and indexes them by UID. Equal z keeps the
// input order.
func NewSeries(slices []*Slice) *Series {
	sorted := append([]*Slice(nil), slices...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Plane.Origin.Z < sorted[j].Plane.Origin.Z
	})
	s := &Series{Slices: sorted, index: make(map[string]int, len(sorted))}
	for i, sl := range sorted {
		s.index[sl.UID] = i
	}
	return s
}

// LoadSeries converts CT records into a sorted series.
func LoadSeries(ctx context.Context, records []*dicom.Record) *Series {
	slices := make([]*Slice, len(records))
	for i, r := range records {
		slices[i] = FromRecord(ctx, r)
	}
	return NewSeries(slices)
}

// Len returns the number of slices.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Slices)
}

// First returns the first slice, or nil for an empty series.
func (s *Series) First() *Slice {
	if s.Len() == 0 {
		return nil
	}
	return s.Slices[0]
}

// SliceIndex returns the z index of the slice with the given UID.
func (s *Series) SliceIndex(uid string) (int, bool) {
	i, ok := s.index[uid]
	return i, ok
}

// Burned reports whether any slice carries a burned array.
func (s *Series) Burned() bool {
	if s == nil {
		return false
	}
	for _, sl := range s.Slices {
		if sl.Burned != nil {
			return true
		}
	}
	return false
}

// WithoutBurned returns the series with every burned array detached.
func (s *Series) WithoutBurned() *Series {
	slices := make([]*Slice, len(s.Slices))
	for i, sl := range s.Slices {
		slices[i] = sl.WithBurned(nil)
	}
	return &Series{Slices: slices, index: s.index}
}
