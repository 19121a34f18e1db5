// Package dicom reads CT slices and structure sets into records that keep
// their raw bytes, writes fixed-width field patches back into those bytes,
// and generates synthetic phantom studies.
package dicom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mrsinham/roiburn/internal/util"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// ErrNoPixelData is returned when a record has no native 16-bit pixel payload.
var ErrNoPixelData = errors.New("no native 16-bit pixel data")

// Record is one parsed DICOM object together with the bytes it came from.
// Field values come from the parsed dataset. Byte offsets come from the
// element index so that export can patch the original buffer in place.
type Record struct {
	Path   string
	Syntax string

	raw   []byte
	ds    dicom.Dataset
	spans map[tag.Tag]Span
}

// ReadRecord reads and parses a DICOM file.
func ReadRecord(path string) (*Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRecord(path, raw)
}

// ParseRecord parses an in-memory DICOM buffer. The buffer is retained, not copied.
func ParseRecord(name string, raw []byte) (*Record, error) {
	spans, syntax, err := indexElements(raw)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", filepath.Base(name), err)
	}
	ds, err := parseTolerant(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(name), err)
	}
	return &Record{Path: name, Syntax: syntax, raw: raw, ds: ds, spans: spans}, nil
}

// parseTolerant parses element by element and keeps whatever was read
// before the first failure, with the file meta elements prepended.
func parseTolerant(raw []byte) (dicom.Dataset, error) {
	p, err := dicom.NewParser(bytes.NewReader(raw), int64(len(raw)), nil, dicom.SkipPixelData())
	if err != nil {
		return dicom.Dataset{}, err
	}

	var elements []*dicom.Element
	for {
		elem, err := p.Next()
		if err != nil {
			break
		}
		elements = append(elements, elem)
	}
	if len(elements) == 0 {
		return dicom.Dataset{}, fmt.Errorf("no elements parsed")
	}

	meta := p.GetMetadata()
	return dicom.Dataset{Elements: append(meta.Elements, elements...)}, nil
}

// Bytes returns the raw buffer. Callers must not modify it.
func (r *Record) Bytes() []byte { return r.raw }

// Dataset returns the parsed dataset.
func (r *Record) Dataset() dicom.Dataset { return r.ds }

// Span returns the byte location of a top-level element.
func (r *Record) Span(t tag.Tag) (Span, bool) {
	s, ok := r.spans[t]
	return s, ok
}

// PixelData returns the pixel payload location.
func (r *Record) PixelData() (Span, bool) {
	return r.Span(tag.PixelData)
}

// Strings returns all values of a top-level element, trimmed.
func (r *Record) Strings(t tag.Tag) []string {
	elem, err := r.ds.FindElementByTag(t)
	if err != nil {
		return nil
	}
	return elementStrings(elem)
}

// String returns the first value of an element or "".
func (r *Record) String(t tag.Tag) string {
	if v := r.Strings(t); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Floats parses every value of an element as a decimal. Unparseable
// values are returned as NaN so positions stay aligned.
func (r *Record) Floats(t tag.Tag) []float64 {
	return parseFloats(r.Strings(t))
}

// Float returns the first value as a float, or def when missing or not finite.
func (r *Record) Float(t tag.Tag, def float64) float64 {
	v := r.Floats(t)
	if len(v) == 0 || !finite(v[0]) {
		return def
	}
	return v[0]
}

// Int returns the first value as an int, or def when missing.
func (r *Record) Int(t tag.Tag, def int) int {
	s := r.String(t)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return def
		}
		return int(f)
	}
	return n
}

// Lookup resolves a field key such as "RescaleSlope" and returns the joined
// values in DICOM multi-value notation.
func (r *Record) Lookup(key string) (string, error) {
	info, err := util.FieldByName(key)
	if err != nil {
		return "", err
	}
	return strings.Join(r.Strings(info.Tag), `\`), nil
}

// Modality returns the record's modality, upper-cased.
func (r *Record) Modality() string {
	return strings.ToUpper(r.String(tag.Modality))
}

// SOPInstanceUID returns the record's instance UID.
func (r *Record) SOPInstanceUID() string {
	return r.String(tag.SOPInstanceUID)
}

// PixelInt16 decodes the native pixel payload as little-endian signed
// 16-bit samples. Encapsulated or non-16-bit payloads yield ErrNoPixelData.
func (r *Record) PixelInt16() ([]int16, error) {
	span, ok := r.PixelData()
	if !ok {
		return nil, ErrNoPixelData
	}
	if span.Length < 0 {
		return nil, fmt.Errorf("%w: encapsulated payload", ErrNoPixelData)
	}
	if bits := r.Int(tag.BitsAllocated, 16); bits != 16 {
		return nil, fmt.Errorf("%w: %d bits allocated", ErrNoPixelData, bits)
	}
	if span.Length%2 != 0 {
		return nil, fmt.Errorf("%w: odd payload length %d", ErrNoPixelData, span.Length)
	}

	payload := r.raw[span.Offset:span.End()]
	out := make([]int16, len(payload)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(payload[2*i:]))
	}
	return out, nil
}

func elementStrings(elem *dicom.Element) []string {
	if elem == nil || elem.Value == nil {
		return nil
	}
	switch v := elem.Value.GetValue().(type) {
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = strings.TrimRight(strings.TrimSpace(s), "\x00")
		}
		return out
	case []int:
		out := make([]string, len(v))
		for i, n := range v {
			out[i] = strconv.Itoa(n)
		}
		return out
	case []float64:
		out := make([]string, len(v))
		for i, f := range v {
			out[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return out
	}
	return nil
}

func parseFloats(values []string) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	for i, s := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			f = nan
		}
		out[i] = f
	}
	return out
}
