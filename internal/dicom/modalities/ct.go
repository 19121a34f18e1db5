package modalities

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// CTGenerator generates CT (Computed Tomography) specific metadata.
type CTGenerator struct{}

// Modality returns the CT modality type.
func (g *CTGenerator) Modality() Modality {
	return CT
}

// SOPClassUID returns the CT Image Storage SOP Class UID.
func (g *CTGenerator) SOPClassUID() string {
	return "1.2.840.10008.5.1.4.1.1.2"
}

// Scanners returns available CT scanner configurations.
func (g *CTGenerator) Scanners() []Scanner {
	return []Scanner{
		{Manufacturer: "SIEMENS", Model: "SOMATOM Definition AS+", DetectorRows: 128},
		{Manufacturer: "SIEMENS", Model: "SOMATOM go.Open Pro", DetectorRows: 64},
		{Manufacturer: "GE MEDICAL SYSTEMS", Model: "Revolution CT", DetectorRows: 256},
		{Manufacturer: "GE MEDICAL SYSTEMS", Model: "Optima CT580 W", DetectorRows: 16},
		{Manufacturer: "PHILIPS", Model: "Brilliance Big Bore", DetectorRows: 16},
		{Manufacturer: "CANON", Model: "Aquilion LB", DetectorRows: 16},
	}
}

// GenerateSeriesParams draws planning CT parameters. The rescale is the
// usual slope 1, intercept -1024 so that stored 0 is -1024 HU.
func (g *CTGenerator) GenerateSeriesParams(scanner Scanner, rng *rand.Rand) SeriesParams {
	kvpOptions := []float64{100, 120, 140}
	kvp := kvpOptions[rng.IntN(len(kvpOptions))]

	kernels := []string{"SOFT", "STANDARD", "BONE"}
	kernel := kernels[rng.IntN(len(kernels))]

	center, width := 40.0, 400.0
	if kernel == "BONE" {
		center, width = 400, 2000
	}

	return SeriesParams{
		Modality:          CT,
		Scanner:           scanner,
		KVP:               kvp,
		XRayTubeCurrent:   100 + rng.IntN(301), // 100-400 mA
		ConvolutionKernel: kernel,
		RescaleIntercept:  -1024,
		RescaleSlope:      1,
		WindowCenter:      center,
		WindowWidth:       width,
	}
}

// ModalityElements returns the scanner and acquisition elements. Rescale
// and window fields are left to the caller, which owns the pixel encoding.
func (g *CTGenerator) ModalityElements(params SeriesParams) []*dicom.Element {
	values := []struct {
		t tag.Tag
		v string
	}{
		{tag.Manufacturer, params.Scanner.Manufacturer},
		{tag.ManufacturerModelName, params.Scanner.Model},
		{tag.KVP, strconv.FormatFloat(params.KVP, 'g', -1, 64)},
		{tag.XRayTubeCurrent, strconv.Itoa(params.XRayTubeCurrent)},
		{tag.ConvolutionKernel, params.ConvolutionKernel},
		{tag.GantryDetectorTilt, strconv.FormatFloat(params.GantryTilt, 'g', -1, 64)},
	}
	elements := make([]*dicom.Element, 0, len(values))
	for _, e := range values {
		elem, err := dicom.NewElement(e.t, []string{e.v})
		if err != nil {
			// Every tag above is in the standard dictionary.
			panic(fmt.Sprintf("modality element %v: %v", e.t, err))
		}
		elements = append(elements, elem)
	}
	return elements
}

// WindowPresets returns CT window presets used in radiotherapy planning.
func (g *CTGenerator) WindowPresets() []WindowPreset {
	return []WindowPreset{
		{Name: "SOFT TISSUE", Center: 40, Width: 400},
		{Name: "BONE", Center: 400, Width: 2000},
		{Name: "LUNG", Center: -600, Width: 1500},
		{Name: "BRAIN", Center: 40, Width: 80},
	}
}
