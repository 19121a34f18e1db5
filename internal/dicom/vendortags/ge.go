package vendortags

import (
	"fmt"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// geElements generates GE GEMS identification and CT acquisition blocks.
func geElements(rng *rand.Rand) []*dicom.Element {
	softwareVersion := fmt.Sprintf("gmp_vct.%d%d", rng.IntN(10)+40, rng.IntN(10))

	// Helical pitch, table speed and rotation time as stored by GE CT
	pitch := []string{"0.516", "0.984", "1.375"}[rng.IntN(3)]
	tableSpeed := fmt.Sprintf("%.2f", 20+rng.Float64()*40)

	return []*dicom.Element{
		mustNewPrivateElement(tag.Tag{Group: 0x0009, Element: 0x0010}, "LO", []string{"GEMS_IDEN_01"}),
		mustNewPrivateElement(tag.Tag{Group: 0x0043, Element: 0x0010}, "LO", []string{"GEMS_PARM_01"}),
		mustNewPrivateElement(tag.Tag{Group: 0x0045, Element: 0x0010}, "LO", []string{"GEMS_HELIOS_01"}),
		mustNewPrivateElement(tag.Tag{Group: 0x0009, Element: 0x10E3}, "LO", []string{softwareVersion}),
		mustNewPrivateElement(tag.Tag{Group: 0x0043, Element: 0x1027}, "SH", []string{pitch}),
		mustNewPrivateElement(tag.Tag{Group: 0x0043, Element: 0x1040}, "DS", []string{tableSpeed}),
		mustNewPrivateElement(tag.Tag{Group: 0x0045, Element: 0x1001}, "SS", []int{int(rng.IntN(4)+1) * 16}),
	}
}
