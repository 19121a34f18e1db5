// Package session owns the state of one burn workflow: the loaded series,
// the region catalog with its settings, the active view and the caches
// derived from them. A Session is not safe for concurrent mutation;
// background previews go through a Previewer.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mrsinham/roiburn/internal/burn"
	"github.com/mrsinham/roiburn/internal/contour"
	"github.com/mrsinham/roiburn/internal/ct"
	"github.com/mrsinham/roiburn/internal/dicom"
	"github.com/mrsinham/roiburn/internal/export"
	"github.com/mrsinham/roiburn/internal/raster"
	"github.com/mrsinham/roiburn/internal/roi"
	"github.com/mrsinham/roiburn/internal/volume"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNotLoaded is returned by operations that need a loaded series.
	ErrNotLoaded = errors.New("no CT series loaded")
	// ErrNoSelection is returned when a burn has no selected region.
	ErrNoSelection = errors.New("no regions selected")
)

// View selects which series the volume and sections are built from.
type View int

const (
	Original View = iota
	Burned
	Preview
)

func (v View) String() string {
	switch v {
	case Burned:
		return "burned"
	case Preview:
		return "preview"
	}
	return "original"
}

// Session is one loaded study and its burn state.
type Session struct {
	Catalog  *roi.Catalog
	Defaults roi.Defaults
	Options  burn.Options

	match    *dicom.Match
	original *ct.Series
	burned   *ct.Series
	preview  *ct.Series
	view     View

	volume   *volume.Volume
	masks    *raster.MaskCache
	contours *contour.Cache
}

// New returns an empty session with default settings.
func New() *Session {
	return &Session{
		Catalog:  roi.NewCatalog(),
		Defaults: roi.DefaultDefaults(),
		Options:  burn.DefaultOptions(),
		masks:    raster.NewMaskCache(),
		contours: contour.NewCache(),
	}
}

// Load reads a directory, pairs its structure set with a CT series and
// makes that pair current.
func (s *Session) Load(ctx context.Context, dir string, opts dicom.LoadOptions) (*dicom.Match, error) {
	study, err := dicom.LoadDir(ctx, dir, opts)
	if err != nil {
		return nil, err
	}
	for _, skipped := range study.Skipped {
		slog.DebugContext(ctx, "skipped file", "path", skipped)
	}
	m, err := study.Match()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	s.Use(ctx, ct.LoadSeries(ctx, m.Slices), m.Structure)
	s.match = m
	slog.InfoContext(ctx, "study loaded",
		"dir", dir, "series", m.SeriesUID, "slices", len(m.Slices),
		"regions", s.Catalog.Len(), "referenced", m.Overlap)
	return m, nil
}

// Use makes series and ss current, replacing any previous state. Region
// settings are reset. Burned arrays carried by series are dropped.
func (s *Session) Use(ctx context.Context, series *ct.Series, ss *dicom.StructureSet) {
	if series.Burned() {
		series = series.WithoutBurned()
	}
	s.match = nil
	s.original = series
	s.burned = nil
	s.preview = nil
	s.view = Original
	s.Catalog.Load(ctx, ss)
	s.Invalidate()
}

// Loaded reports whether a series with at least one slice is current.
func (s *Session) Loaded() bool { return s.original.Len() > 0 }

// Match returns the series pairing of the last Load, nil after Use.
func (s *Session) Match() *dicom.Match { return s.match }

// Original returns the loaded series.
func (s *Session) Original() *ct.Series { return s.original }

// BurnedSeries returns the last burn result, or nil.
func (s *Session) BurnedSeries() *ct.Series { return s.burned }

// View returns the active view.
func (s *Session) View() View { return s.view }

// Active returns the series of the active view.
func (s *Session) Active() *ct.Series {
	switch s.view {
	case Burned:
		return s.burned
	case Preview:
		return s.preview
	}
	return s.original
}

// SetView switches the active series. The volume is rebuilt on next use.
func (s *Session) SetView(v View) error {
	if !s.Loaded() {
		return ErrNotLoaded
	}
	switch {
	case v == Burned && s.burned == nil:
		return fmt.Errorf("no burned series yet")
	case v == Preview && s.preview == nil:
		return fmt.Errorf("no preview available")
	}
	if v != s.view {
		s.view = v
		s.volume = nil
	}
	return nil
}

// SetPreview installs a preview result and makes it the active view.
func (s *Session) SetPreview(series *ct.Series) {
	s.preview = series
	s.view = Preview
	s.volume = nil
}

// ClearPreview drops the preview and returns to the original view.
func (s *Session) ClearPreview() {
	s.preview = nil
	if s.view == Preview {
		s.view = Original
		s.volume = nil
	}
}

// Invalidate drops the volume, masks and cross-sections. It must follow
// any change to the series or the region set.
func (s *Session) Invalidate() {
	s.volume = nil
	s.masks.Invalidate()
	s.contours.Invalidate()
}

// Resolved returns the effective settings of every selected region in
// sorted order.
func (s *Session) Resolved() ([]roi.Resolved, error) {
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}
	resolved := roi.ResolveAll(s.Catalog.Selected(), s.Defaults)
	if len(resolved) == 0 {
		return nil, ErrNoSelection
	}
	return resolved, nil
}

// Burn composites the selected regions into the original series and makes
// the result the active view.
func (s *Session) Burn(ctx context.Context) (*ct.Series, error) {
	resolved, err := s.Resolved()
	if err != nil {
		return nil, err
	}
	out, err := burn.Burn(ctx, s.original, resolved, s.Options)
	if err != nil {
		return nil, err
	}
	s.burned = out
	s.view = Burned
	s.volume = nil
	return out, nil
}

// Export burns and writes the selected regions. Combined mode burns them
// together into one series, which also becomes the burned view. Separate
// mode burns and exports each region on its own.
func (s *Session) Export(ctx context.Context, sink export.Sink, opts export.Options) (*export.Result, error) {
	resolved, err := s.Resolved()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(resolved))
	for i, r := range resolved {
		names[i] = r.Name
	}

	var jobs []export.Job
	if opts.Separate {
		for _, r := range resolved {
			out, err := burn.Burn(ctx, s.original, []roi.Resolved{r}, s.Options)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, export.Job{Regions: []string{r.Name}, Series: out})
		}
	} else {
		out, err := s.Burn(ctx)
		if err != nil {
			return nil, err
		}
		jobs = []export.Job{{Regions: names, Series: out}}
	}
	return export.NewExporter(opts).Export(ctx, sink, jobs...)
}

// ExportDir exports the selected regions under dir. With zip set the
// folders are written into one archive named after the image set and the
// regions; otherwise they are written as plain directories.
func (s *Session) ExportDir(ctx context.Context, dir string, zip bool, opts export.Options) (res *export.Result, err error) {
	resolved, err := s.Resolved()
	if err != nil {
		return nil, err
	}
	if !zip {
		sink, err := export.NewDirSink(dir)
		if err != nil {
			return nil, err
		}
		return s.Export(ctx, sink, opts)
	}

	names := make([]string, len(resolved))
	for i, r := range resolved {
		names[i] = r.Name
	}
	base := export.NewExporter(opts).BaseName(s.original)
	sink, err := export.NewZipSink(filepath.Join(dir, export.ArchiveName(base, names)))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing archive: %w", cerr)
		}
	}()
	return s.Export(ctx, sink, opts)
}

// Volume returns the volume of the active view, building it on first use.
func (s *Session) Volume(ctx context.Context) (*volume.Volume, error) {
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}
	if s.volume != nil {
		return s.volume, nil
	}
	v, err := volume.Build(ctx, s.Active())
	if err != nil {
		return nil, err
	}
	s.volume = v
	return v, nil
}

// Mask returns the cached mask of a region. Masks depend on geometry only
// and survive view changes.
func (s *Session) Mask(ctx context.Context, name string) (*raster.Mask, error) {
	r, err := s.Catalog.Lookup(name)
	if err != nil {
		return nil, err
	}
	v, err := s.Volume(ctx)
	if err != nil {
		return nil, err
	}
	return s.masks.Get(ctx, r, v)
}

// CrossSection returns the boundary segments of a region on a sagittal or
// coronal section. The index is clamped to the volume. A region with no
// contour on the series has an empty section.
func (s *Session) CrossSection(ctx context.Context, name string, axis volume.Axis, index int) ([]contour.Segment, error) {
	m, err := s.Mask(ctx, name)
	if errors.Is(err, raster.ErrNoContours) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v, err := s.Volume(ctx)
	if err != nil {
		return nil, err
	}
	return s.contours.Get(name, m, axis, v.Clamp(axis, index))
}

// Point is a voxel position.
type Point struct {
	X, Y, Z int
}

// Navigate returns the center of a region's bounding box, clamped to the
// volume.
func (s *Session) Navigate(ctx context.Context, name string) (Point, error) {
	m, err := s.Mask(ctx, name)
	if err != nil {
		return Point{}, err
	}
	v, err := s.Volume(ctx)
	if err != nil {
		return Point{}, err
	}
	x, y, z := m.Center()
	return Point{
		X: v.Clamp(volume.Sagittal, x),
		Y: v.Clamp(volume.Coronal, y),
		Z: v.Clamp(volume.Axial, z),
	}, nil
}

// Stats summarizes the active intensities inside a region.
type Stats struct {
	Voxels   int
	VolumeCC float64
	Mean     float64
	StdDev   float64
	Min, Max float64
}

// RegionStats measures a region on the active view.
func (s *Session) RegionStats(ctx context.Context, name string) (Stats, error) {
	m, err := s.Mask(ctx, name)
	if err != nil {
		return Stats{}, err
	}
	v, err := s.Volume(ctx)
	if err != nil {
		return Stats{}, err
	}
	hu := make([]float64, 0, m.Voxels)
	for i, in := range m.Bits {
		if in != 0 {
			hu = append(hu, v.HU(v.Data[i]))
		}
	}
	st := Stats{Voxels: len(hu)}
	if len(hu) == 0 {
		return st, nil
	}
	st.Mean, st.StdDev = stat.MeanStdDev(hu, nil)
	if len(hu) == 1 {
		st.StdDev = 0
	}
	st.Min, st.Max = hu[0], hu[0]
	for _, h := range hu[1:] {
		st.Min, st.Max = min(st.Min, h), max(st.Max, h)
	}
	st.VolumeCC = float64(len(hu)) * v.Spacing.X * v.Spacing.Y * v.Thickness / 1000
	return st, nil
}
