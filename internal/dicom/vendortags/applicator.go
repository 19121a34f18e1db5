package vendortags

import (
	"fmt"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// mustNewPrivateElement creates a DICOM element with a private tag and explicit VR.
// dicom.NewElement fails on unregistered private tags.
func mustNewPrivateElement(t tag.Tag, rawVR string, data any) *dicom.Element {
	value, err := dicom.NewValue(data)
	if err != nil {
		panic(fmt.Sprintf("failed to create value for private element %v: %v", t, err))
	}
	return &dicom.Element{
		Tag:                    t,
		ValueRepresentation:    tag.GetVRKind(t, rawVR),
		RawValueRepresentation: rawVR,
		Value:                  value,
	}
}

// WriteOptions are the dicom.Write options needed once private elements
// are present in a dataset.
func WriteOptions() []dicom.WriteOption {
	return []dicom.WriteOption{dicom.SkipVRVerification(), dicom.SkipValueTypeVerification()}
}

// Applicator generates private blocks for the configured vendors.
type Applicator struct {
	config Config
	rng    *rand.Rand
}

// NewApplicator creates a new applicator.
func NewApplicator(config Config, rng *rand.Rand) *Applicator {
	return &Applicator{config: config, rng: rng}
}

// Elements returns the private elements of every enabled vendor, in
// vendor order. Each call draws fresh payloads.
func (a *Applicator) Elements() []*dicom.Element {
	var elements []*dicom.Element
	if a.config.HasVendor(Siemens) {
		elements = append(elements, siemensElements(a.rng)...)
	}
	if a.config.HasVendor(GE) {
		elements = append(elements, geElements(a.rng)...)
	}
	if a.config.HasVendor(Philips) {
		elements = append(elements, philipsElements(a.rng)...)
	}
	return elements
}
