// Package help holds the wizard's per-field help texts.
package help

import (
	"fmt"
	"strings"

	"github.com/mrsinham/roiburn/internal/roi"
)

// HelpText contains information about a field
type HelpText struct {
	Title       string
	Description string
	Details     string
}

// Texts contains help information for the wizard fields, keyed by form key.
var Texts = map[string]HelpText{
	"image_set_name": {
		Title:       "Image set name",
		Description: "Base name of the exported series.",
		Details: `Used as the SeriesDescription prefix and the output folder name.
Empty = CT_MMDDYY_Burn from the study date.`,
	},
	"output": {
		Title:       "Output directory",
		Description: "Directory the burned series is written to.",
		Details:     "Created if it doesn't exist. One folder per series, or one zip archive.",
	},
	"zip": {
		Title:       "Zip archive",
		Description: "Write every exported folder into one archive.",
		Details:     "Named <image set>__<regions>.zip, or <image set>__NoROI.zip.",
	},
	"separate": {
		Title:       "Separate series",
		Description: "Export one series per selected region.",
		Details:     "Each region is burned alone into <image set>__<region> with its own UIDs.",
	},
	"annotation": {
		Title:       "Annotation band",
		Description: "Burn a text band at the bottom of every slice.",
		Details:     "Lists the burned regions and the NOT FOR DOSE CALCULATION warning.",
	},
	"note": {
		Title:       "Note",
		Description: "Free text shown at the top of the annotation band.",
		Details:     "Wrapped to the slice width, at most five lines.",
	},
	"recompute_window": {
		Title:       "Recompute window",
		Description: "Rewrite WindowCenter/WindowWidth from the burned range.",
		Details:     "Only written when the new value fits the existing field.",
	},
	"regions": {
		Title:       "Regions",
		Description: "Structures to burn into the series.",
		Details:     "Space toggles a region, Enter confirms the selection.",
	},
	"preset": {
		Title:       "Material preset",
		Description: "Outline intensity from a material.",
		Details:     "Custom keeps the target HU typed below.",
	},
	"target_hu": {
		Title:       "Target HU",
		Description: "Outline intensity in Hounsfield units.",
		Details:     "Burned values are clamped to [-1024, 12000].",
	},
	"style": {
		Title:       "Line style",
		Description: "Solid strokes every contour point, dotted every sixth.",
	},
	"width": {
		Title:       "Line width",
		Description: "Square brush side in pixels.",
		Details:     "0.5 to 10 in steps of 0.5, rounded to whole pixels when drawn.",
	},
	"outline": {
		Title:       "Outline",
		Description: "Draw the contour at the target HU.",
	},
	"fill": {
		Title:       "Fill",
		Description: "Offset every pixel inside the contour by the fill delta.",
		Details:     "Applied to the original intensities, before any outline.",
	},
	"fill_delta": {
		Title:       "Fill delta",
		Description: "HU offset added inside the region.",
		Details:     "e.g. +50, -100HU. Rounded to 50 HU steps within ±1000.",
	},
}

func init() {
	var sb strings.Builder
	for _, p := range roi.Presets {
		fmt.Fprintf(&sb, "%-16s %6.0f HU\n", p.Name, p.HU)
	}
	t := Texts["preset"]
	t.Details = sb.String() + t.Details
	Texts["preset"] = t
}

// Lookup returns the help text for a form key.
func Lookup(key string) (HelpText, bool) {
	t, ok := Texts[key]
	return t, ok
}
