package vendortags

import (
	"fmt"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// philipsElements generates Philips private tags, one of them a nested
// private sequence.
func philipsElements(rng *rand.Rand) []*dicom.Element {
	item := []*dicom.Element{
		mustNewPrivateElement(tag.Tag{Group: 0x01F1, Element: 0x0010}, "LO", []string{"ELSCINT1"}),
		mustNewPrivateElement(tag.Tag{Group: 0x01F1, Element: 0x1026}, "DS", []string{fmt.Sprintf("%.4f", 0.5+rng.Float64())}),
		mustNewPrivateElement(tag.Tag{Group: 0x01F1, Element: 0x1027}, "DS", []string{fmt.Sprintf("%.4f", 0.3+rng.Float64()*0.7)}),
	}

	return []*dicom.Element{
		mustNewPrivateElement(tag.Tag{Group: 0x01F1, Element: 0x0010}, "LO", []string{"ELSCINT1"}),
		mustNewPrivateElement(tag.Tag{Group: 0x01F1, Element: 0x1001}, "CS", []string{"HELICAL"}),
		mustNewPrivateElement(tag.Tag{Group: 0x01F7, Element: 0x0010}, "LO", []string{"ELSCINT1"}),
		mustNewPrivateElement(tag.Tag{Group: 0x01F7, Element: 0x1022}, "SQ", [][]*dicom.Element{item}),
	}
}
