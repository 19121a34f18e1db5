package roi

import "strings"

// Preset is a named material intensity.
type Preset struct {
	Name string
	HU   float64
}

// Presets lists the selectable material intensities, lowest first.
var Presets = []Preset{
	{Name: "Air", HU: -1000},
	{Name: "Water", HU: 0},
	{Name: "Bolus", HU: 50},
	{Name: "Titanium", HU: 7000},
	{Name: "Co-Cr-Mo", HU: 10000},
	{Name: "Stainless Steel", HU: 11000},
}

// PresetByName finds a preset case-insensitively.
func PresetByName(name string) (Preset, bool) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Preset{}, false
}
