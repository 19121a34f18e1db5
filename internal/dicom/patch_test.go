package dicom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestPatcher_PutUID(t *testing.T) {
	ph := generateTestPhantom(t, 1)
	r, err := ReadRecord(ph.Slices[0].Path)
	require.NoError(t, err)

	p := NewPatcher(r)
	width := p.Width(tag.SOPInstanceUID)
	require.Positive(t, width)

	written, err := p.PutUID(tag.SOPInstanceUID, "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", written)

	span, _ := r.Span(tag.SOPInstanceUID)
	field := p.Bytes()[span.Offset:span.End()]
	assert.Equal(t, "1.2.3", string(field[:5]))
	assert.Equal(t, strings.Repeat("\x00", width-5), string(field[5:]))

	// The original buffer is untouched and the layout is unchanged.
	assert.Equal(t, ph.Slices[0].SOPInstanceUID, r.SOPInstanceUID())
	assert.Len(t, p.Bytes(), len(r.Bytes()))

	patched, err := ParseRecord("patched", p.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", patched.SOPInstanceUID())
}

func TestPatcher_PutTextTruncates(t *testing.T) {
	ph := generateTestPhantom(t, 1)
	r, err := ReadRecord(ph.Slices[0].Path)
	require.NoError(t, err)

	p := NewPatcher(r)
	width := p.Width(tag.SeriesDescription)
	long := strings.Repeat("X", width+10)
	written, err := p.PutText(tag.SeriesDescription, long)
	require.NoError(t, err)
	assert.Len(t, written, width)

	written, err = p.PutText(tag.SeriesDescription, "AB")
	require.NoError(t, err)
	assert.Equal(t, "AB", written)

	patched, err := ParseRecord("patched", p.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "AB", patched.String(tag.SeriesDescription))
}

func TestPatcher_MissingField(t *testing.T) {
	ph := generateTestPhantom(t, 1)
	r, err := ReadRecord(ph.Slices[0].Path)
	require.NoError(t, err)

	p := NewPatcher(r)
	assert.False(t, p.Has(tag.PatientWeight))
	_, err = p.PutText(tag.PatientWeight, "70")
	assert.ErrorIs(t, err, ErrFieldMissing)
}

func TestPatcher_PutPixels(t *testing.T) {
	ph := generateTestPhantom(t, 1)
	r, err := ReadRecord(ph.Slices[0].Path)
	require.NoError(t, err)

	px, err := r.PixelInt16()
	require.NoError(t, err)
	out := make([]int16, len(px))
	for i := range out {
		out[i] = int16(i%7) - 3
	}

	p := NewPatcher(r)
	require.NoError(t, p.PutPixels(out))
	assert.Error(t, p.PutPixels(out[:10]))

	patched, err := ParseRecord("patched", p.Bytes())
	require.NoError(t, err)
	got, err := patched.PixelInt16()
	require.NoError(t, err)
	assert.Equal(t, out, got)

	orig, err := r.PixelInt16()
	require.NoError(t, err)
	assert.Equal(t, px, orig)
}
