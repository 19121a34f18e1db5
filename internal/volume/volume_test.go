package volume

import (
	"context"
	"errors"
	"testing"

	"github.com/mrsinham/roiburn/internal/ct"
	"gonum.org/v1/gonum/spatial/r3"
)

// testSeries builds depth slices of width x height where voxel (x,y,z)
// stores 100*z + 10*y + x.
func testSeries(width, height, depth int) *ct.Series {
	var slices []*ct.Slice
	for z := 0; z < depth; z++ {
		px := make([]int16, width*height)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				px[y*width+x] = int16(100*z + 10*y + x)
			}
		}
		s := ct.NewSlice(string(rune('a'+z)), height, width, px)
		s.Plane.Origin = r3.Vec{Z: float64(z) * 2}
		s.Thickness = 3
		slices = append(slices, s)
	}
	return ct.NewSeries(slices)
}

func TestBuild(t *testing.T) {
	v, err := Build(context.Background(), testSeries(4, 3, 2))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	w, h, d := v.Dims()
	if w != 4 || h != 3 || d != 2 {
		t.Errorf("Dims() = (%d,%d,%d), want (4,3,2)", w, h, d)
	}
	if got := v.At(3, 2, 1); got != 123 {
		t.Errorf("At(3,2,1) = %d, want 123", got)
	}
	if v.Thickness != 3 {
		t.Errorf("Thickness = %v, want 3 (declared, not the 2 mm position step)", v.Thickness)
	}
	if z, ok := v.SliceIndex("b"); !ok || z != 1 {
		t.Errorf("SliceIndex(b) = %d, %v, want 1, true", z, ok)
	}
	if got := v.PlaneAt(1).Origin.Z; got != 2 {
		t.Errorf("PlaneAt(1).Origin.Z = %v, want 2", got)
	}
}

func TestBuild_UsesBurned(t *testing.T) {
	s := testSeries(2, 2, 1)
	s.Slices[0] = s.Slices[0].WithBurned([]int16{9, 9, 9, 9})
	v, err := Build(context.Background(), s)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := v.At(1, 1, 0); got != 9 {
		t.Errorf("At(1,1,0) = %d, want burned value 9", got)
	}
}

func TestBuild_MissingPixels(t *testing.T) {
	s := testSeries(2, 2, 3)
	s.Slices[1].Stored = nil
	v, err := Build(context.Background(), s)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := v.At(1, 1, 1); got != 0 {
		t.Errorf("At(1,1,1) = %d, want 0 for a slice without pixels", got)
	}

	empty := ct.NewSeries([]*ct.Slice{ct.NewSlice("x", 2, 2, nil)})
	if _, err := Build(context.Background(), empty); !errors.Is(err, ErrEmpty) {
		t.Errorf("Build(empty) error = %v, want ErrEmpty", err)
	}
}

func TestSection(t *testing.T) {
	v, err := Build(context.Background(), testSeries(4, 3, 2))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	tests := []struct {
		axis          Axis
		index         int
		width, height int
		u, vv         int
		want          int16
	}{
		{Sagittal, 2, 3, 2, 1, 1, 112},
		{Coronal, 1, 4, 2, 3, 0, 13},
		{Axial, 1, 4, 3, 0, 2, 120},
	}
	for _, tt := range tests {
		s, err := v.Section(tt.axis, tt.index)
		if err != nil {
			t.Fatalf("Section(%s, %d) error = %v", tt.axis, tt.index, err)
		}
		if s.Width != tt.width || s.Height != tt.height {
			t.Errorf("Section(%s) size = %dx%d, want %dx%d", tt.axis, s.Width, s.Height, tt.width, tt.height)
		}
		if got := s.Data[tt.vv*s.Width+tt.u]; got != tt.want {
			t.Errorf("Section(%s, %d) at (%d,%d) = %d, want %d", tt.axis, tt.index, tt.u, tt.vv, got, tt.want)
		}
	}

	if _, err := v.Section(Sagittal, 4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Section(sagittal, 4) error = %v, want ErrOutOfRange", err)
	}
	if got := v.Clamp(Coronal, 10); got != 2 {
		t.Errorf("Clamp(coronal, 10) = %d, want 2", got)
	}
	if got := v.Clamp(Axial, -3); got != 0 {
		t.Errorf("Clamp(axial, -3) = %d, want 0", got)
	}
}

func TestParseAxis(t *testing.T) {
	tests := []struct {
		in      string
		want    Axis
		wantErr bool
	}{
		{"sagittal", Sagittal, false},
		{" Coronal", Coronal, false},
		{"AXIAL", Axial, false},
		{"oblique", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseAxis(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseAxis(%q) = %v, %v, want %v (err %v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
