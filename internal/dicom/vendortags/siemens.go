package vendortags

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// csaMagic starts every SV10 CSA header.
var csaMagic = []byte{'S', 'V', '1', '0', 0x04, 0x03, 0x02, 0x01}

// csaElement is one named entry of a CSA header.
type csaElement struct {
	Name    string
	VR      string
	SyngoDT int32
	Values  []string
}

// buildCSAHeader encodes elements in the SV10 binary layout Siemens
// scanners store at (0029,1010) and (0029,1020).
func buildCSAHeader(elements []csaElement) []byte {
	var buf bytes.Buffer
	buf.Write(csaMagic)

	// binary.Write to bytes.Buffer never fails.
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(elements)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0x4D))

	for _, elem := range elements {
		name := make([]byte, 64)
		copy(name, elem.Name)
		buf.Write(name)

		_ = binary.Write(&buf, binary.LittleEndian, int32(len(elem.Values)))

		vr := make([]byte, 4)
		copy(vr, elem.VR)
		buf.Write(vr)

		_ = binary.Write(&buf, binary.LittleEndian, elem.SyngoDT)
		_ = binary.Write(&buf, binary.LittleEndian, int32(len(elem.Values)))
		_ = binary.Write(&buf, binary.LittleEndian, uint32(0x4D))

		for _, v := range elem.Values {
			// Item length is stored four times
			n := uint32(len(v))
			for j := 0; j < 4; j++ {
				_ = binary.Write(&buf, binary.LittleEndian, n)
			}
			buf.WriteString(v)
			if pad := (4 - len(v)%4) % 4; pad > 0 {
				buf.Write(make([]byte, pad))
			}
		}
	}
	return buf.Bytes()
}

// csaImageHeader describes the slice reconstruction.
func csaImageHeader(rng *rand.Rand) []byte {
	fov := 400 + 100*rng.IntN(3)
	return buildCSAHeader([]csaElement{
		{Name: "SliceResolution", VR: "FD", SyngoDT: 4, Values: []string{"1"}},
		{Name: "ReconstructionDiameter", VR: "DS", SyngoDT: 3, Values: []string{fmt.Sprintf("%d", fov)}},
		{Name: "TablePosition", VR: "FD", SyngoDT: 4, Values: []string{fmt.Sprintf("%.1f", -rng.Float64()*1500)}},
		{Name: "ImaRelTablePosition", VR: "IS", SyngoDT: 6, Values: []string{"0", "0", "0"}},
		{Name: "SliceNormalVector", VR: "FD", SyngoDT: 4, Values: []string{"0.0", "0.0", "1.0"}},
	})
}

// csaSeriesHeader describes the acquisition protocol.
func csaSeriesHeader(rng *rand.Rand) []byte {
	protocols := []string{"RT_Thorax", "RT_Pelvis", "RT_HeadNeck"}
	return buildCSAHeader([]csaElement{
		{Name: "ProtocolName", VR: "LO", SyngoDT: 19, Values: []string{protocols[rng.IntN(len(protocols))]}},
		{Name: "CTDIvol", VR: "FD", SyngoDT: 4, Values: []string{fmt.Sprintf("%.2f", 5+rng.Float64()*15)}},
		{Name: "Isocentered", VR: "IS", SyngoDT: 6, Values: []string{"1"}},
		{Name: "TablePositionOrigin", VR: "FD", SyngoDT: 4, Values: []string{"0.0", "0.0", "0.0"}},
	})
}

// siemensElements generates the Siemens CSA private block, including a
// nested non-image sequence.
func siemensElements(rng *rand.Rand) []*dicom.Element {
	nested := make([]byte, 256+rng.IntN(256))
	for i := range nested {
		nested[i] = byte(rng.IntN(256))
	}
	item := []*dicom.Element{
		mustNewPrivateElement(tag.Tag{Group: 0x0029, Element: 0x0011}, "LO", []string{"SIEMENS CSA NON-IMAGE"}),
		mustNewPrivateElement(tag.Tag{Group: 0x0029, Element: 0x1100}, "OB", nested),
	}

	return []*dicom.Element{
		mustNewPrivateElement(tag.Tag{Group: 0x0029, Element: 0x0010}, "LO", []string{"SIEMENS CSA HEADER"}),
		mustNewPrivateElement(tag.Tag{Group: 0x0029, Element: 0x1010}, "OB", csaImageHeader(rng)),
		mustNewPrivateElement(tag.Tag{Group: 0x0029, Element: 0x1020}, "OB", csaSeriesHeader(rng)),
		mustNewPrivateElement(tag.Tag{Group: 0x0029, Element: 0x1102}, "SQ", [][]*dicom.Element{item}),
	}
}
