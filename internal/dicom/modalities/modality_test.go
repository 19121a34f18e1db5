package modalities

import (
	"math/rand/v2"
	"testing"

	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestGetGenerator_CT(t *testing.T) {
	gen, err := GetGenerator(CT)
	if err != nil {
		t.Fatalf("GetGenerator(CT) error = %v", err)
	}
	if gen.Modality() != CT {
		t.Errorf("Expected CT modality, got %v", gen.Modality())
	}
	if gen.SOPClassUID() != "1.2.840.10008.5.1.4.1.1.2" {
		t.Errorf("Unexpected CT SOP Class UID: %s", gen.SOPClassUID())
	}
}

func TestGetGenerator_Unsupported(t *testing.T) {
	for _, m := range []Modality{RTStruct, "MR", ""} {
		if _, err := GetGenerator(m); err == nil {
			t.Errorf("GetGenerator(%q) error = nil, want an error", m)
		}
	}
}

func TestIsImage(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"CT", true},
		{"ct", false}, // callers upper-case first
		{"RTSTRUCT", false},
		{"MR", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsImage(tt.input); got != tt.want {
				t.Errorf("IsImage(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCTGenerator_SeriesParams(t *testing.T) {
	gen := &CTGenerator{}
	rng := rand.New(rand.NewPCG(42, 42))
	scanners := gen.Scanners()

	for i := 0; i < 20; i++ {
		params := gen.GenerateSeriesParams(scanners[i%len(scanners)], rng)
		if params.RescaleSlope != 1 || params.RescaleIntercept != -1024 {
			t.Errorf("rescale = %v/%v, want 1/-1024", params.RescaleSlope, params.RescaleIntercept)
		}
		if params.KVP < 100 || params.KVP > 140 {
			t.Errorf("KVP %v out of range", params.KVP)
		}
		if params.XRayTubeCurrent < 100 || params.XRayTubeCurrent > 400 {
			t.Errorf("XRayTubeCurrent %d out of range", params.XRayTubeCurrent)
		}
		if params.ConvolutionKernel == "BONE" && params.WindowWidth != 2000 {
			t.Errorf("BONE kernel window width = %v, want 2000", params.WindowWidth)
		}
	}
}

func TestCTGenerator_Deterministic(t *testing.T) {
	gen := &CTGenerator{}
	scanner := gen.Scanners()[0]
	a := gen.GenerateSeriesParams(scanner, rand.New(rand.NewPCG(7, 7)))
	b := gen.GenerateSeriesParams(scanner, rand.New(rand.NewPCG(7, 7)))
	if a != b {
		t.Errorf("same seed gave %+v and %+v", a, b)
	}
}

func TestCTGenerator_ModalityElements(t *testing.T) {
	gen := &CTGenerator{}
	params := gen.GenerateSeriesParams(gen.Scanners()[2], rand.New(rand.NewPCG(1, 1)))
	elems := gen.ModalityElements(params)

	want := map[tag.Tag]bool{
		tag.Manufacturer: true, tag.ManufacturerModelName: true, tag.KVP: true,
		tag.XRayTubeCurrent: true, tag.ConvolutionKernel: true, tag.GantryDetectorTilt: true,
	}
	if len(elems) != len(want) {
		t.Fatalf("got %d elements, want %d", len(elems), len(want))
	}
	for _, e := range elems {
		if !want[e.Tag] {
			t.Errorf("unexpected element %v", e.Tag)
		}
	}
}

func TestCTGenerator_WindowPresets(t *testing.T) {
	presets := (&CTGenerator{}).WindowPresets()
	if len(presets) == 0 {
		t.Fatal("no window presets")
	}
	for _, p := range presets {
		if p.Width <= 0 {
			t.Errorf("preset %s has width %v", p.Name, p.Width)
		}
	}
}
