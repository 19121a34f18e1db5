package dicom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// Transfer syntaxes the element scanner can walk.
const (
	ImplicitVRLittleEndian = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"
)

const undefinedLength = 0xFFFFFFFF

var (
	// ErrUnsupportedSyntax is returned for big-endian or deflated encodings.
	ErrUnsupportedSyntax = errors.New("unsupported transfer syntax")
	// ErrTruncated is returned when an element header or value runs past the buffer.
	ErrTruncated = errors.New("truncated element")
)

var (
	itemTag          = tag.Tag{Group: 0xFFFE, Element: 0xE000}
	itemDelimTag     = tag.Tag{Group: 0xFFFE, Element: 0xE00D}
	sequenceDelimTag = tag.Tag{Group: 0xFFFE, Element: 0xE0DD}
)

// Span locates the value of one top-level element inside a raw file buffer.
type Span struct {
	Tag    tag.Tag
	VR     string // empty for implicit VR datasets
	Offset int    // first value byte
	Length int    // value length in bytes, -1 when undefined
}

// End returns the offset just past the value. Undefined lengths return Offset.
func (s Span) End() int {
	if s.Length < 0 {
		return s.Offset
	}
	return s.Offset + s.Length
}

// longVRs use the 12-byte explicit header: VR(2) + reserved(2) + VL(4).
func longVR(vr string) bool {
	switch vr {
	case "OB", "OD", "OF", "OL", "OV", "OW", "SQ", "SV", "UC", "UN", "UR", "UT", "UV":
		return true
	}
	return false
}

type scanner struct {
	data     []byte
	explicit bool
}

// indexElements walks the top level of a Part 10 buffer (or a bare dataset)
// and records where every element's value lives. Sequences and encapsulated
// pixel data are stepped over, not indexed.
func indexElements(data []byte) (map[tag.Tag]Span, string, error) {
	spans := make(map[tag.Tag]Span)
	pos := 0
	if len(data) >= 132 && bytes.Equal(data[128:132], []byte("DICM")) {
		pos = 132
	}

	// File meta information is always explicit VR little endian.
	meta := &scanner{data: data, explicit: true}
	syntax := ImplicitVRLittleEndian
	for pos+4 <= len(data) && binary.LittleEndian.Uint16(data[pos:]) == 0x0002 {
		span, next, err := meta.element(pos)
		if err != nil {
			return nil, "", fmt.Errorf("file meta at %d: %w", pos, err)
		}
		spans[span.Tag] = span
		if span.Tag == tag.TransferSyntaxUID && span.Length > 0 {
			syntax = strings.TrimRight(string(data[span.Offset:span.End()]), "\x00 ")
		}
		pos = next
	}

	ds := &scanner{data: data}
	switch syntax {
	case ImplicitVRLittleEndian:
	case "1.2.840.10008.1.2.2", "1.2.840.10008.1.2.1.99":
		return nil, syntax, fmt.Errorf("%w: %s", ErrUnsupportedSyntax, syntax)
	default:
		// Explicit little endian, including the encapsulated syntaxes.
		ds.explicit = true
	}

	for pos < len(data) {
		span, next, err := ds.element(pos)
		if err != nil {
			return nil, syntax, fmt.Errorf("element at %d: %w", pos, err)
		}
		spans[span.Tag] = span
		pos = next
	}
	return spans, syntax, nil
}

// element reads the element header at pos and returns its span and the
// offset of the following element.
func (s *scanner) element(pos int) (Span, int, error) {
	if pos+8 > len(s.data) {
		return Span{}, 0, ErrTruncated
	}
	t := tag.Tag{
		Group:   binary.LittleEndian.Uint16(s.data[pos:]),
		Element: binary.LittleEndian.Uint16(s.data[pos+2:]),
	}

	var vr string
	var length uint32
	header := 8
	switch {
	case t.Group == 0xFFFE:
		length = binary.LittleEndian.Uint32(s.data[pos+4:])
	case s.explicit:
		vr = string(s.data[pos+4 : pos+6])
		if longVR(vr) {
			if pos+12 > len(s.data) {
				return Span{}, 0, ErrTruncated
			}
			length = binary.LittleEndian.Uint32(s.data[pos+8:])
			header = 12
		} else {
			length = uint32(binary.LittleEndian.Uint16(s.data[pos+6:]))
		}
	default:
		length = binary.LittleEndian.Uint32(s.data[pos+4:])
	}

	span := Span{Tag: t, VR: vr, Offset: pos + header}
	if length == undefinedLength {
		span.Length = -1
		end, err := s.skipSequence(span.Offset)
		if err != nil {
			return Span{}, 0, fmt.Errorf("%v: %w", t, err)
		}
		return span, end, nil
	}

	span.Length = int(length)
	if span.End() > len(s.data) {
		return Span{}, 0, fmt.Errorf("%v: %w", t, ErrTruncated)
	}
	return span, span.End(), nil
}

// skipSequence steps over items until the sequence delimiter and returns the
// offset after it. Encapsulated pixel fragments use the same item framing.
func (s *scanner) skipSequence(pos int) (int, error) {
	for {
		if pos+8 > len(s.data) {
			return 0, ErrTruncated
		}
		t := tag.Tag{
			Group:   binary.LittleEndian.Uint16(s.data[pos:]),
			Element: binary.LittleEndian.Uint16(s.data[pos+2:]),
		}
		length := binary.LittleEndian.Uint32(s.data[pos+4:])
		switch t {
		case sequenceDelimTag:
			return pos + 8, nil
		case itemTag:
			if length == undefinedLength {
				end, err := s.skipItem(pos + 8)
				if err != nil {
					return 0, err
				}
				pos = end
				continue
			}
			pos += 8 + int(length)
			if pos > len(s.data) {
				return 0, ErrTruncated
			}
		default:
			return 0, fmt.Errorf("unexpected %v inside sequence", t)
		}
	}
}

// skipItem steps over the elements of an undefined-length item.
func (s *scanner) skipItem(pos int) (int, error) {
	for {
		if pos+8 > len(s.data) {
			return 0, ErrTruncated
		}
		if binary.LittleEndian.Uint16(s.data[pos:]) == itemDelimTag.Group &&
			binary.LittleEndian.Uint16(s.data[pos+2:]) == itemDelimTag.Element {
			return pos + 8, nil
		}
		_, next, err := s.element(pos)
		if err != nil {
			return 0, err
		}
		pos = next
	}
}
