// Package burn composites selected regions into CT slice intensities:
// interior fill offsets, outline stamps and a bottom annotation band.
package burn

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/mrsinham/roiburn/internal/ct"
	"github.com/mrsinham/roiburn/internal/geometry"
	"github.com/mrsinham/roiburn/internal/raster"
	"github.com/mrsinham/roiburn/internal/roi"
)

// Intensity bounds applied to fill results and annotation text.
const (
	MinHU = -1024
	MaxHU = 12000

	// maxFillDelta bounds a single fill offset before it is added.
	maxFillDelta = 5000

	// dotStep keeps every 6th outline point for the dotted style.
	dotStep = 6

	// maxPixel bounds projected outline points before they are rounded
	// to grid coordinates.
	maxPixel = 1 << 30
)

// Defaults of the annotation band.
const (
	DefaultFooterDelta  = 120
	DefaultAnnotationHU = 1000
)

// ProgressCallback reports the number of processed slices.
type ProgressCallback func(done, total int)

// Options control one burn pass.
type Options struct {
	// FooterDelta enables the annotation band when non-zero.
	FooterDelta float64
	// Note is free operator text, wrapped to at most five band lines.
	Note string
	// AnnotationHU is the intensity written for annotation glyphs.
	AnnotationHU float64
	// Progress is called after every slice, skipped ones included. A panic
	// inside it is logged and swallowed.
	Progress ProgressCallback
}

// DefaultOptions returns the annotation band enabled at its default
// intensity.
func DefaultOptions() Options {
	return Options{FooterDelta: DefaultFooterDelta, AnnotationHU: DefaultAnnotationHU}
}

// Burn returns a new series whose slices carry burned pixel arrays for the
// given regions, in list order. The input series is not modified. Slices
// without pixel data are passed through as is. An empty region list
// returns the slices unchanged.
//
// The context is checked between slices; a cancelled burn returns the
// context error and no series.
func Burn(ctx context.Context, series *ct.Series, regions []roi.Resolved, opts Options) (*ct.Series, error) {
	if series.Len() == 0 {
		return ct.NewSeries(nil), nil
	}
	if len(regions) == 0 {
		return ct.NewSeries(series.Slices), nil
	}

	anyFill := false
	for _, r := range regions {
		if r.Fill && finite(r.FillDelta) {
			anyFill = true
			break
		}
	}
	var band *annotation
	if opts.FooterDelta != 0 {
		band = newAnnotation(regions, opts.Note, opts.AnnotationHU)
	}

	total := series.Len()
	out := make([]*ct.Slice, 0, total)
	for i, s := range series.Slices {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("burn interrupted at slice %d/%d: %w", i+1, total, err)
		}
		if s.HasPixels() {
			s = burnSlice(s, regions, anyFill, band)
		} else {
			slog.DebugContext(ctx, "passing through slice without pixel data", "uid", s.UID)
		}
		out = append(out, s)
		report(ctx, opts.Progress, i+1, total)
	}
	return ct.NewSeries(out), nil
}

func burnSlice(s *ct.Slice, regions []roi.Resolved, anyFill bool, band *annotation) *ct.Slice {
	w, h := s.Columns, s.Rows
	hu := s.ToHU(s.Stored)

	var baseline []float64
	if anyFill {
		baseline = append([]float64(nil), hu...)
	}

	if anyFill {
		for _, r := range regions {
			if !r.Fill || !finite(r.FillDelta) {
				continue
			}
			polys := raster.SlicePolygons(r.ContoursOn(s.UID), s.Plane)
			if len(polys) == 0 {
				continue
			}
			applyFill(hu, baseline, w, h, polys, r.FillDelta)
		}
	}

	for _, r := range regions {
		if !r.Outline {
			continue
		}
		step := 1
		if r.Style == roi.Dotted {
			step = dotStep
		}
		for _, c := range r.ContoursOn(s.UID) {
			dense := geometry.Densify(c.Points, raster.DensifySpacing)
			for i, p := range dense {
				if i%step != 0 {
					continue
				}
				px := s.Plane.ToPixel(p)
				if !onGrid(px.X) || !onGrid(px.Y) {
					continue
				}
				stamp(hu, w, h, geometry.Round(px.X), geometry.Round(px.Y), r.TargetHU, r.Width)
			}
		}
	}

	if band != nil {
		band.draw(hu, w, h)
	}

	return s.WithBurned(s.FromHU(hu))
}

func onGrid(v float64) bool {
	return finite(v) && math.Abs(v) < maxPixel
}

// report calls the progress callback, containing any panic it raises.
func report(ctx context.Context, cb ProgressCallback, done, total int) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.WarnContext(ctx, "progress callback failed", "done", done, "total", total, "panic", r)
		}
	}()
	cb(done, total)
}

func clampHU(v float64) float64 {
	return math.Max(MinHU, math.Min(MaxHU, v))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
