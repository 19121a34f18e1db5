package burn

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/mrsinham/roiburn/internal/geometry"
	"github.com/mrsinham/roiburn/internal/roi"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Annotation band layout, in pixels.
const (
	lineHeight   = 15
	lineGap      = 5
	maxNoteLines = 5
	ellipsis     = "..."

	// Disclaimer is the last line of every annotation band.
	Disclaimer = "NOT FOR DOSE CALCULATION"
)

// annotation renders the band once per image width and reuses the glyph
// mask for every slice of that width.
type annotation struct {
	note    string
	summary string
	value   float64
	face    font.Face
	glyphs  map[int]*image.Alpha
}

func newAnnotation(regions []roi.Resolved, note string, value float64) *annotation {
	return &annotation{
		note:    note,
		summary: RegionSummary(regions),
		value:   clampHU(value),
		face:    basicfont.Face7x13,
		glyphs:  make(map[int]*image.Alpha),
	}
}

// RegionSummary is the band line naming each burned region, its outline
// style and its fill offset when one applies, joined with " | ".
func RegionSummary(regions []roi.Resolved) string {
	parts := make([]string, len(regions))
	for i, r := range regions {
		name := r.Name
		if name == "" {
			name = "ROI"
		}
		s := name + ", " + r.Style.Title()
		if r.Fill && finite(r.FillDelta) && r.FillDelta != 0 {
			s += fmt.Sprintf(", %+d HU overlay", geometry.Round(r.FillDelta))
		}
		parts[i] = s
	}
	return strings.Join(parts, " | ")
}

// lines returns the band text for an image of the given width: wrapped
// note lines, then the region summary, then the disclaimer.
func (a *annotation) lines(width int) []string {
	out := wrap(a.face, a.note, width)
	return append(out, a.summary, Disclaimer)
}

// bandHeight is the pixel height of a band holding n lines.
func bandHeight(n int) int {
	return n*lineHeight + lineGap*(n+1)
}

func (a *annotation) render(width int) *image.Alpha {
	if img, ok := a.glyphs[width]; ok {
		return img
	}
	lines := a.lines(width)
	img := image.NewAlpha(image.Rect(0, 0, width, bandHeight(len(lines))))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Alpha{A: 255}),
		Face: a.face,
	}
	ascent := a.face.Metrics().Ascent.Ceil()
	top := lineGap
	for _, ln := range lines {
		d.Dot = fixed.P(0, top+ascent)
		d.DrawString(ln)
		top += lineHeight + lineGap
	}
	a.glyphs[width] = img
	return img
}

// draw overwrites glyph pixels in the bottom rows of hu. Rows of the band
// that fall above the image are dropped.
func (a *annotation) draw(hu []float64, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	img := a.render(w)
	bh := img.Bounds().Dy()
	start := h - bh
	for y := 0; y < bh; y++ {
		py := start + y
		if py < 0 || py >= h {
			continue
		}
		row := hu[py*w : (py+1)*w]
		for x := 0; x < w; x++ {
			if img.AlphaAt(x, y).A >= 128 {
				row[x] = a.value
			}
		}
	}
}

// wrap splits text into lines no wider than width, word by word. A word
// wider than the line is ellipsized. Past five lines the fifth is
// ellipsized and the rest dropped.
func wrap(face font.Face, text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	fits := func(s string) bool { return font.MeasureString(face, s).Ceil() <= width }

	var lines []string
	current := ""
	for _, w := range words {
		next := w
		if current != "" {
			next = current + " " + w
		}
		if current == "" || fits(next) {
			current = next
			continue
		}
		lines = append(lines, current)
		current = w
	}
	lines = append(lines, current)

	overflow := len(lines) > maxNoteLines
	if overflow {
		lines = lines[:maxNoteLines]
	}
	for i, ln := range lines {
		if !fits(ln) || (overflow && i == maxNoteLines-1) {
			lines[i] = ellipsize(ln, fits)
		}
	}
	return lines
}

func ellipsize(s string, fits func(string) bool) string {
	r := []rune(s)
	for len(r) > 0 && !fits(string(r)+ellipsis) {
		r = r[:len(r)-1]
	}
	return string(r) + ellipsis
}
