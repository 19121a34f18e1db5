package roi

import (
	"math"
	"strconv"
	"strings"
)

// Style is an outline drawing style.
type Style string

const (
	Solid  Style = "solid"
	Dotted Style = "dotted"
)

// ParseStyle accepts "solid" or "dotted" in any case.
func ParseStyle(s string) (Style, bool) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case Solid:
		return Solid, true
	case Dotted:
		return Dotted, true
	}
	return "", false
}

// Title returns the style as shown in annotations.
func (s Style) Title() string {
	if s == Dotted {
		return "Dotted"
	}
	return "Solid"
}

// Limits of the per-region adjustments.
const (
	DeltaStep = 50
	MaxDelta  = 1000
	WidthStep = 0.5
	MinWidth  = 0.5
	MaxWidth  = 10.0
)

// Settings are the user adjustments attached to one region. Nil pointer
// fields fall back to the session defaults.
type Settings struct {
	Selected  bool
	TargetHU  *float64
	Outline   *bool
	Fill      *bool
	FillDelta *float64
	Style     *Style
	Width     *float64
}

// Defaults are the session-wide values used when a region does not
// override them.
type Defaults struct {
	TargetHU  float64
	Style     Style
	Width     float64
	Outline   bool
	Fill      bool
	FillDelta float64
}

// DefaultDefaults returns target 1000 HU, solid 2 px outline, fill
// disabled with a -100 HU delta.
func DefaultDefaults() Defaults {
	return Defaults{
		TargetHU:  1000,
		Style:     Solid,
		Width:     2,
		Outline:   true,
		FillDelta: -100,
	}
}

// Resolved is the effective burn configuration of one selected region.
type Resolved struct {
	Name      string
	Contours  []Contour
	TargetHU  float64
	Style     Style
	Width     float64
	Outline   bool
	Fill      bool
	FillDelta float64
}

// ContoursOn returns the non-empty contours on one slice, in declaration
// order.
func (r Resolved) ContoursOn(sliceUID string) []Contour {
	return contoursOn(r.Contours, sliceUID)
}

// Resolve merges a region's overrides with the defaults. Non-finite
// overrides are ignored. Width and delta are normalized to their steps.
func Resolve(r *Region, d Defaults) Resolved {
	s := r.Settings
	res := Resolved{
		Name:      r.Name,
		Contours:  r.Contours,
		TargetHU:  d.TargetHU,
		Style:     d.Style,
		Width:     d.Width,
		Outline:   d.Outline,
		Fill:      d.Fill,
		FillDelta: d.FillDelta,
	}
	if s.TargetHU != nil && finite(*s.TargetHU) {
		res.TargetHU = *s.TargetHU
	}
	if s.Style != nil {
		if st, ok := ParseStyle(string(*s.Style)); ok {
			res.Style = st
		}
	}
	if res.Style == "" {
		res.Style = Solid
	}
	if s.Width != nil && finite(*s.Width) {
		res.Width = *s.Width
	}
	if s.Outline != nil {
		res.Outline = *s.Outline
	}
	if s.Fill != nil {
		res.Fill = *s.Fill
	}
	if s.FillDelta != nil && finite(*s.FillDelta) {
		res.FillDelta = *s.FillDelta
	}
	res.Width = NormalizeWidth(res.Width)
	res.FillDelta = NormalizeDelta(res.FillDelta)
	return res
}

// ResolveAll resolves every selected region, preserving order.
func ResolveAll(regions []*Region, d Defaults) []Resolved {
	var out []Resolved
	for _, r := range regions {
		if r.Settings.Selected {
			out = append(out, Resolve(r, d))
		}
	}
	return out
}

// NormalizeDelta rounds to the nearest 50 HU and clamps to ±1000.
// Non-finite input yields 0.
func NormalizeDelta(v float64) float64 {
	if !finite(v) {
		return 0
	}
	v = math.Floor(v/DeltaStep+0.5) * DeltaStep
	return math.Max(-MaxDelta, math.Min(MaxDelta, v))
}

// NormalizeWidth clamps to [0.5, 10] and snaps to 0.5 px. Non-finite
// input yields the minimum width.
func NormalizeWidth(v float64) float64 {
	if !finite(v) {
		return MinWidth
	}
	v = math.Max(MinWidth, math.Min(MaxWidth, v))
	return math.Floor(v/WidthStep+0.5) * WidthStep
}

// ParseHUDelta parses values such as "+50", "-100 HU" or "250hu". Input
// that does not parse to a finite number returns fallback.
func ParseHUDelta(s string, fallback float64) float64 {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSpace(strings.TrimSuffix(s, "hu"))
	s = strings.ReplaceAll(s, " ", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return fallback
	}
	return v
}

// Float returns a pointer to v, for building Settings literals.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// StylePtr returns a pointer to s.
func StylePtr(s Style) *Style { return &s }

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
