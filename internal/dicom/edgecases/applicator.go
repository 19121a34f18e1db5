package edgecases

import "math/rand/v2"

// Applicator decides which edge cases hit each generated object
type Applicator struct {
	config Config
	rng    *rand.Rand
}

// NewApplicator creates a new edge case applicator
func NewApplicator(config Config, rng *rand.Rand) *Applicator {
	return &Applicator{config: config, rng: rng}
}

// ShouldApply returns true if a per-slice edge case should hit this slice
func (a *Applicator) ShouldApply() bool {
	return a.rng.IntN(100) < a.config.Percentage
}

// selectSliceType picks one enabled per-slice type, or "" when none is
// enabled.
func (a *Applicator) selectSliceType() EdgeCaseType {
	var enabled []EdgeCaseType
	for _, t := range sliceTypes {
		if a.config.HasType(t) {
			enabled = append(enabled, t)
		}
	}
	if len(enabled) == 0 {
		return ""
	}
	return enabled[a.rng.IntN(len(enabled))]
}

// SliceTagsToOmit returns the field names to leave out of one slice:
// one or two geometry fields, or PixelData.
func (a *Applicator) SliceTagsToOmit() []string {
	if !a.config.IsEnabled() || !a.ShouldApply() {
		return nil
	}
	switch a.selectSliceType() {
	case MissingGeometry:
		return SelectTagsToOmit(a.rng, GeometryTags, 1+a.rng.IntN(2))
	case MissingPixels:
		return []string{"PixelData"}
	}
	return nil
}

// RegionName returns an awkward replacement for a region name when
// odd-names is enabled, the original otherwise.
func (a *Applicator) RegionName(original string) string {
	if !a.config.HasType(OddNames) {
		return original
	}
	if a.rng.IntN(2) == 0 {
		return GenerateSpecialRegionName(a.rng)
	}
	return GenerateLongRegionName(original, a.rng)
}

// StudyDate returns "" when missing-date is enabled, meaning the element
// is not written.
func (a *Applicator) StudyDate(original string) string {
	if a.config.HasType(MissingDate) {
		return ""
	}
	return original
}

// StaleContours reports whether contours on unknown slices should be added.
func (a *Applicator) StaleContours() bool {
	return a.config.HasType(StaleContours)
}
