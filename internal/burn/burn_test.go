package burn

import (
	"context"
	"testing"

	"github.com/mrsinham/roiburn/internal/ct"
	"github.com/mrsinham/roiburn/internal/roi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func flatSlice(uid string, w, h int, value int16) *ct.Slice {
	px := make([]int16, w*h)
	for i := range px {
		px[i] = value
	}
	return ct.NewSlice(uid, h, w, px)
}

func ring(uid string, pts ...[2]float64) roi.Contour {
	c := roi.Contour{SliceUID: uid}
	for _, p := range pts {
		c.Points = append(c.Points, r3.Vec{X: p[0], Y: p[1]})
	}
	return c
}

func rect(uid string, x0, y0, x1, y1 float64) roi.Contour {
	return ring(uid, [2]float64{x0, y0}, [2]float64{x1, y0}, [2]float64{x1, y1}, [2]float64{x0, y1})
}

func burnOne(t *testing.T, s *ct.Slice, regions ...roi.Resolved) []int16 {
	t.Helper()
	out, err := Burn(context.Background(), ct.NewSeries([]*ct.Slice{s}), regions, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	require.NotNil(t, out.Slices[0].Burned)
	return out.Slices[0].Burned
}

func TestBurn_TriangleFill(t *testing.T) {
	s := flatSlice("s1", 4, 4, 0)
	px := burnOne(t, s, roi.Resolved{
		Name:      "Triangle",
		Contours:  []roi.Contour{ring("s1", [2]float64{1, 1}, [2]float64{2, 1}, [2]float64{1, 2})},
		Style:     roi.Solid,
		Width:     1,
		Fill:      true,
		FillDelta: 500,
	})

	assert.Equal(t, int16(500), px[1*4+1])
	assert.Equal(t, int16(0), px[0])
	changed := 0
	for _, v := range px {
		if v != 0 {
			changed++
		}
	}
	assert.Equal(t, 1, changed)
}

func TestBurn_SinglePointOutline(t *testing.T) {
	s := flatSlice("s1", 5, 5, 0)
	px := burnOne(t, s, roi.Resolved{
		Name:     "Point",
		Contours: []roi.Contour{ring("s1", [2]float64{2, 2})},
		TargetHU: 1000,
		Style:    roi.Solid,
		Width:    1,
		Outline:  true,
	})

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			want := int16(0)
			if x == 2 && y == 2 {
				want = 1000
			}
			assert.Equal(t, want, px[y*5+x], "pixel (%d,%d)", x, y)
		}
	}
}

func TestStamp(t *testing.T) {
	tests := []struct {
		name  string
		x, y  int
		width float64
		want  [][2]int
	}{
		{"width 1", 2, 2, 1, [][2]int{{2, 2}}},
		{"below 1 is 1", 2, 2, 0.5, [][2]int{{2, 2}}},
		{"even extends right and down", 1, 1, 2, [][2]int{{1, 1}, {2, 1}, {1, 2}, {2, 2}}},
		{"2.4 rounds to 2", 1, 1, 2.4, [][2]int{{1, 1}, {2, 1}, {1, 2}, {2, 2}}},
		{"odd is centered", 2, 2, 3, [][2]int{{1, 1}, {2, 1}, {3, 1}, {1, 2}, {2, 2}, {3, 2}, {1, 3}, {2, 3}, {3, 3}}},
		{"clipped at corner", 0, 0, 3, [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}},
		{"outside", 9, 9, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hu := make([]float64, 25)
			stamp(hu, 5, 5, tt.x, tt.y, 7, tt.width)
			want := make([]float64, 25)
			for _, p := range tt.want {
				want[p[1]*5+p[0]] = 7
			}
			assert.Equal(t, want, hu)
		})
	}
}

func TestBurn_FillUsesBaseline(t *testing.T) {
	s := flatSlice("s1", 8, 8, 0)
	px := burnOne(t, s,
		roi.Resolved{Name: "A", Contours: []roi.Contour{rect("s1", 0.5, 0.5, 5.5, 5.5)}, Style: roi.Solid, Fill: true, FillDelta: 100},
		roi.Resolved{Name: "B", Contours: []roi.Contour{rect("s1", 2.5, 2.5, 7.5, 7.5)}, Style: roi.Solid, Fill: true, FillDelta: 300},
	)

	assert.Equal(t, int16(100), px[1*8+1], "A only")
	assert.Equal(t, int16(300), px[6*8+6], "B only")
	assert.Equal(t, int16(300), px[4*8+4], "overlap takes the last region, not the sum")
	assert.Equal(t, int16(0), px[0], "outside both")
}

func TestBurn_HugePixelCoordinates(t *testing.T) {
	// A near-zero pixel spacing projects millimetre contours far off the grid.
	s := flatSlice("s1", 4, 4, 0)
	s.Plane.Spacing = r2.Vec{X: 1e-30, Y: 1}
	outside := roi.Resolved{
		Name: "Outside", Contours: []roi.Contour{rect("s1", 5, 0.5, 10, 2.5)},
		TargetHU: 1000, Style: roi.Solid, Width: 3, Outline: true, Fill: true, FillDelta: 100,
	}
	spanning := roi.Resolved{
		Name: "Spanning", Contours: []roi.Contour{rect("s1", -5, 0.5, 10, 2.5)},
		Style: roi.Solid, Width: 1, Fill: true, FillDelta: 100,
	}

	var px []int16
	require.NotPanics(t, func() { px = burnOne(t, s, outside, spanning) })
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := int16(0)
			if y == 1 || y == 2 {
				want = 100
			}
			assert.Equal(t, want, px[y*4+x], "pixel (%d,%d)", x, y)
		}
	}
}

func TestApplyFill_Clamps(t *testing.T) {
	hu := []float64{11900, 11900, 11900, 11900}
	base := append([]float64(nil), hu...)
	poly := [][]r2.Vec{{{X: -1, Y: -1}, {X: 3, Y: -1}, {X: 3, Y: 3}, {X: -1, Y: 3}}}

	applyFill(hu, base, 2, 2, poly, 9000)
	assert.Equal(t, []float64{MaxHU, MaxHU, MaxHU, MaxHU}, hu)

	hu = []float64{0, 0, 0, 0}
	applyFill(hu, []float64{0, 0, 0, 0}, 2, 2, poly, -9000)
	assert.Equal(t, []float64{MinHU, MinHU, MinHU, MinHU}, hu)
}

func TestBurn_RescaleRoundTrip(t *testing.T) {
	s := flatSlice("s1", 3, 3, 512)
	s.Slope, s.Intercept = 2, -1024
	px := burnOne(t, s, roi.Resolved{
		Name:     "P",
		Contours: []roi.Contour{ring("s1", [2]float64{1, 1})},
		TargetHU: 1000,
		Style:    roi.Solid,
		Width:    1,
		Outline:  true,
	})
	assert.Equal(t, int16(1012), px[4])
	assert.Equal(t, int16(512), px[0])
}

func TestBurn_DottedSkipsPoints(t *testing.T) {
	s := flatSlice("s1", 20, 4, 0)
	line := ring("s1", [2]float64{0, 1}, [2]float64{12, 1})
	solid := burnOne(t, s, roi.Resolved{Name: "L", Contours: []roi.Contour{line}, TargetHU: 1, Style: roi.Solid, Width: 1, Outline: true})
	dotted := burnOne(t, s, roi.Resolved{Name: "L", Contours: []roi.Contour{line}, TargetHU: 1, Style: roi.Dotted, Width: 1, Outline: true})

	count := func(px []int16) int {
		n := 0
		for _, v := range px {
			n += int(v)
		}
		return n
	}
	assert.Equal(t, 13, count(solid))
	// Densified to 24 points, forward and back: indices 0, 6, 12, 18 land
	// on x = 0, 6, 12, 6.
	assert.Equal(t, 3, count(dotted))
}

func TestBurn_PassThrough(t *testing.T) {
	withPixels := flatSlice("a", 2, 2, 42)
	without := ct.NewSlice("b", 2, 2, nil)
	series := ct.NewSeries([]*ct.Slice{withPixels, without})

	out, err := Burn(context.Background(), series, nil, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	for i, s := range out.Slices {
		assert.Nil(t, s.Burned)
		assert.Equal(t, series.Slices[i].Pixels(), s.Pixels())
	}

	regions := []roi.Resolved{{Name: "R", Contours: []roi.Contour{ring("a", [2]float64{0, 0})}, TargetHU: 9, Width: 1, Outline: true}}
	out, err = Burn(context.Background(), series, regions, Options{})
	require.NoError(t, err)
	assert.Same(t, without, out.Slices[1], "slice without pixels is passed through")
	assert.Equal(t, []int16{9, 42, 42, 42}, out.Slices[0].Burned)
	assert.Equal(t, []int16{42, 42, 42, 42}, withPixels.Stored, "input is not modified")
	assert.Nil(t, withPixels.Burned)
}

func TestBurn_SkipsOtherSlicesAndDisabledOutline(t *testing.T) {
	s := flatSlice("a", 3, 3, 0)
	px := burnOne(t, s,
		roi.Resolved{Name: "Elsewhere", Contours: []roi.Contour{ring("zz", [2]float64{1, 1})}, TargetHU: 5, Width: 1, Outline: true},
		roi.Resolved{Name: "Hidden", Contours: []roi.Contour{ring("a", [2]float64{1, 1})}, TargetHU: 5, Width: 1},
	)
	assert.Equal(t, make([]int16, 9), px)
}

func TestBurn_Progress(t *testing.T) {
	series := ct.NewSeries([]*ct.Slice{flatSlice("a", 2, 2, 0), ct.NewSlice("b", 2, 2, nil), flatSlice("c", 2, 2, 0)})
	regions := []roi.Resolved{{Name: "R", Width: 1, Outline: true}}

	var calls [][2]int
	opts := Options{Progress: func(done, total int) {
		calls = append(calls, [2]int{done, total})
		if done == 1 {
			panic("observer failure")
		}
	}}
	out, err := Burn(context.Background(), series, regions, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}

func TestBurn_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	series := ct.NewSeries([]*ct.Slice{flatSlice("a", 2, 2, 0)})
	out, err := Burn(ctx, series, []roi.Resolved{{Name: "R"}}, Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
}

func TestBurn_AnnotationBand(t *testing.T) {
	const w, h = 200, 80
	s := flatSlice("a", w, h, 0)
	regions := []roi.Resolved{{Name: "PTV", Style: roi.Solid}}
	out, err := Burn(context.Background(), ct.NewSeries([]*ct.Slice{s}), regions, DefaultOptions())
	require.NoError(t, err)
	px := out.Slices[0].Burned

	top := h - bandHeight(2)
	inBand, above := 0, 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := px[y*w+x]
			if v == 0 {
				continue
			}
			assert.Equal(t, int16(DefaultAnnotationHU), v)
			if y >= top {
				inBand++
			} else {
				above++
			}
		}
	}
	assert.Positive(t, inBand)
	assert.Zero(t, above)

	// A zero footer delta disables the band.
	opts := DefaultOptions()
	opts.FooterDelta = 0
	out, err = Burn(context.Background(), ct.NewSeries([]*ct.Slice{s}), regions, opts)
	require.NoError(t, err)
	assert.Equal(t, make([]int16, w*h), out.Slices[0].Burned)
}

func TestRegionSummary(t *testing.T) {
	got := RegionSummary([]roi.Resolved{
		{Name: "PTV", Style: roi.Dotted, Fill: true, FillDelta: 500},
		{Name: "Body", Style: roi.Solid, Fill: false, FillDelta: -100},
		{Name: "Cord", Style: roi.Solid, Fill: true, FillDelta: -100},
		{Style: roi.Solid, Fill: true},
	})
	assert.Equal(t, "PTV, Dotted, +500 HU overlay | Body, Solid | Cord, Solid, -100 HU overlay | ROI, Solid", got)
}

func TestWrap(t *testing.T) {
	face := basicfont.Face7x13 // 7 px per glyph

	assert.Nil(t, wrap(face, "   ", 100))
	assert.Equal(t, []string{"aaa bbb", "ccc"}, wrap(face, "aaa bbb ccc", 49))
	assert.Equal(t, []string{"abcd..."}, wrap(face, "abcdefghijkl", 49))

	got := wrap(face, "w1 w2 w3 w4 w5 w6 w7 w8 w9 wa wb", 35)
	assert.Equal(t, []string{"w1 w2", "w3 w4", "w5 w6", "w7 w8", "w9..."}, got)
}

func TestAnnotationLines(t *testing.T) {
	a := newAnnotation([]roi.Resolved{{Name: "PTV", Style: roi.Solid}}, "check margins", 1000)
	assert.Equal(t, []string{"check margins", "PTV, Solid", Disclaimer}, a.lines(400))
	assert.Equal(t, 3*lineHeight+4*lineGap, bandHeight(3))
}
