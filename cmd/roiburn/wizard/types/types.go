// Package types holds the wizard state shared by the wizard and its screens.
package types

// GlobalConfig holds the export settings of one wizard run.
type GlobalConfig struct {
	ImageSetName    string
	OutputDir       string
	Zip             bool
	Separate        bool
	Annotation      bool
	RecomputeWindow bool
	Note            string
}

// RegionConfig holds the burn settings of one region. Preset, when set,
// names the HU preset that provides TargetHU.
type RegionConfig struct {
	Name      string
	Color     string
	Slices    int
	Selected  bool
	Preset    string
	TargetHU  float64
	Style     string
	Width     float64
	Outline   bool
	Fill      bool
	FillDelta float64
}
