// Package wizard provides an interactive TUI for selecting regions and
// burning them into a loaded CT series.
package wizard

import (
	"github.com/mrsinham/roiburn/cmd/roiburn/wizard/types"
	"github.com/mrsinham/roiburn/internal/config"
	"github.com/mrsinham/roiburn/internal/roi"
	"github.com/mrsinham/roiburn/internal/session"
)

// WizardState holds the complete state for the wizard interface.
type WizardState struct {
	Global  types.GlobalConfig
	Regions []types.RegionConfig
}

// NewState fills a state from the session's catalog, with every region's
// effective settings, and from the export part of cfg.
func NewState(s *session.Session, cfg *config.Config) *WizardState {
	state := &WizardState{
		Global: types.GlobalConfig{
			ImageSetName:    cfg.ImageSetName,
			OutputDir:       cfg.Output.Dir,
			Zip:             cfg.Output.Zip,
			Separate:        cfg.SeparateSeries,
			Annotation:      cfg.Annotation.Enabled,
			RecomputeWindow: cfg.Output.RecomputeWindow,
			Note:            cfg.Note,
		},
	}
	for _, r := range s.Catalog.Sorted() {
		res := roi.Resolve(r, s.Defaults)
		state.Regions = append(state.Regions, types.RegionConfig{
			Name:      r.Name,
			Color:     r.Color,
			Slices:    len(r.Slices()),
			Selected:  r.Settings.Selected,
			TargetHU:  res.TargetHU,
			Style:     string(res.Style),
			Width:     res.Width,
			Outline:   res.Outline,
			Fill:      res.Fill,
			FillDelta: res.FillDelta,
		})
	}
	return state
}

// Selected returns the indices of the selected regions.
func (st *WizardState) Selected() []int {
	var idx []int
	for i, r := range st.Regions {
		if r.Selected {
			idx = append(idx, i)
		}
	}
	return idx
}

// Apply writes the state back: export settings into cfg, burn options and
// per-region settings into the session. Every region setting is stored as
// an explicit override so that a saved configuration reproduces it.
func (st *WizardState) Apply(s *session.Session, cfg *config.Config) error {
	g := st.Global
	cfg.ImageSetName = g.ImageSetName
	cfg.Output.Dir = g.OutputDir
	cfg.Output.Zip = g.Zip
	cfg.SeparateSeries = g.Separate
	cfg.Output.RecomputeWindow = g.RecomputeWindow
	cfg.Note = g.Note
	cfg.Annotation.Enabled = g.Annotation
	s.Options = cfg.BurnOptions()

	for _, rc := range st.Regions {
		r, err := s.Catalog.Lookup(rc.Name)
		if err != nil {
			return err
		}
		if !rc.Selected {
			r.Settings.Selected = false
			continue
		}
		style, ok := roi.ParseStyle(rc.Style)
		if !ok {
			style = s.Defaults.Style
		}
		r.Settings = roi.Settings{
			Selected:  true,
			TargetHU:  roi.Float(rc.TargetHU),
			Outline:   roi.Bool(rc.Outline),
			Fill:      roi.Bool(rc.Fill),
			FillDelta: roi.Float(roi.NormalizeDelta(rc.FillDelta)),
			Style:     roi.StylePtr(style),
			Width:     roi.Float(roi.NormalizeWidth(rc.Width)),
		}
	}
	return nil
}
