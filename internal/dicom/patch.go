package dicom

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// ErrFieldMissing is returned when a patch targets an element the record
// does not carry. In-place patching never inserts elements.
var ErrFieldMissing = errors.New("field not present")

// Padding bytes for fixed-width values: UI values pad with NUL, text with space.
const (
	PadUID  byte = 0x00
	PadText byte = 0x20
)

// Patcher writes values into a private copy of a record's bytes without
// moving any element. Every value is bounded by the width of the field it
// replaces.
type Patcher struct {
	buf   []byte
	spans map[tag.Tag]Span
}

// NewPatcher copies the record's bytes for patching.
func NewPatcher(r *Record) *Patcher {
	buf := make([]byte, len(r.raw))
	copy(buf, r.raw)
	return &Patcher{buf: buf, spans: r.spans}
}

// Bytes returns the patched buffer.
func (p *Patcher) Bytes() []byte { return p.buf }

// Width returns the fixed byte width of a field, or 0 when absent.
func (p *Patcher) Width(t tag.Tag) int {
	s, ok := p.spans[t]
	if !ok || s.Length < 0 {
		return 0
	}
	return s.Length
}

// Has reports whether the field exists with a defined length.
func (p *Patcher) Has(t tag.Tag) bool {
	return p.Width(t) > 0
}

// PutASCII overwrites the field with value, truncated to the field width
// and padded with pad. It returns the bytes actually written.
func (p *Patcher) PutASCII(t tag.Tag, value string, pad byte) (string, error) {
	s, ok := p.spans[t]
	if !ok || s.Length < 0 {
		return "", fmt.Errorf("%w: %v", ErrFieldMissing, t)
	}
	field := p.buf[s.Offset:s.End()]
	for i := range field {
		field[i] = pad
	}
	n := copy(field, value)
	return value[:n], nil
}

// PutUID writes a UID value padded with NUL.
func (p *Patcher) PutUID(t tag.Tag, uid string) (string, error) {
	return p.PutASCII(t, uid, PadUID)
}

// PutText writes a text value padded with spaces.
func (p *Patcher) PutText(t tag.Tag, text string) (string, error) {
	return p.PutASCII(t, text, PadText)
}

// PutPixels replaces the native pixel payload. The sample count must match
// the existing payload exactly.
func (p *Patcher) PutPixels(pixels []int16) error {
	s, ok := p.spans[tag.PixelData]
	if !ok || s.Length < 0 {
		return fmt.Errorf("%w: pixel data", ErrFieldMissing)
	}
	if len(pixels)*2 != s.Length {
		return fmt.Errorf("pixel payload is %d bytes, got %d samples", s.Length, len(pixels))
	}
	for i, v := range pixels {
		binary.LittleEndian.PutUint16(p.buf[s.Offset+2*i:], uint16(v))
	}
	return nil
}
