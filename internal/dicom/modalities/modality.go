// Package modalities provides the acquisition metadata written into
// synthetic image series and the modality names the loader accepts.
package modalities

import (
	"fmt"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
)

// Modality represents a DICOM modality type.
type Modality string

const (
	CT       Modality = "CT"       // Computed Tomography
	RTStruct Modality = "RTSTRUCT" // Radiotherapy Structure Set
)

// IsImage reports whether m is an image modality the burn engine reads.
func IsImage(m string) bool {
	return Modality(m) == CT
}

// Scanner represents an imaging device configuration.
type Scanner struct {
	Manufacturer string
	Model        string
	DetectorRows int
}

// SeriesParams holds the acquisition parameters of one generated series.
type SeriesParams struct {
	Modality     Modality
	Scanner      Scanner
	WindowCenter float64
	WindowWidth  float64

	KVP               float64 // Tube voltage (kV)
	XRayTubeCurrent   int     // Tube current (mA)
	ConvolutionKernel string  // Reconstruction kernel
	RescaleIntercept  float64 // HU offset
	RescaleSlope      float64 // HU scale
	GantryTilt        float64 // Gantry tilt angle
}

// WindowPreset represents a window/level preset.
type WindowPreset struct {
	Name   string
	Center float64
	Width  float64
}

// Generator defines the interface for modality-specific generators.
type Generator interface {
	// Modality returns the modality type.
	Modality() Modality

	// SOPClassUID returns the SOP Class UID for this modality.
	SOPClassUID() string

	// Scanners returns available scanner configurations.
	Scanners() []Scanner

	// GenerateSeriesParams draws the acquisition parameters of a series.
	GenerateSeriesParams(scanner Scanner, rng *rand.Rand) SeriesParams

	// ModalityElements returns the scanner and acquisition elements.
	ModalityElements(params SeriesParams) []*dicom.Element

	// WindowPresets returns default window presets for this modality.
	WindowPresets() []WindowPreset
}

// GetGenerator returns the generator for the specified modality.
func GetGenerator(m Modality) (Generator, error) {
	switch m {
	case CT:
		return &CTGenerator{}, nil
	}
	return nil, fmt.Errorf("no image generator for modality %q", m)
}
