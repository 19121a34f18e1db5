package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func flatten(points []r3.Vec) []r2.Vec {
	out := make([]r2.Vec, len(points))
	for i, p := range points {
		out[i] = r2.Vec{X: p.X, Y: p.Y}
	}
	return out
}

func TestDensify_Triangle(t *testing.T) {
	triangle := []r3.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 7}}
	const maxSpacing = 1.5

	got := Densify(triangle, maxSpacing)
	if len(got) <= len(triangle) {
		t.Fatalf("Densify returned %d points, want more than %d", len(got), len(triangle))
	}
	if gap := MaxGap(got); gap > maxSpacing+1e-9 {
		t.Errorf("MaxGap(Densify) = %v, want <= %v", gap, maxSpacing)
	}
	if got[0] != triangle[0] {
		t.Errorf("first point = %v, want %v", got[0], triangle[0])
	}
}

func TestDensify_AlreadyDense(t *testing.T) {
	square := []r3.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	if gap := MaxGap(square); gap != 1 {
		t.Fatalf("MaxGap(square) = %v, want 1", gap)
	}
	got := Densify(square, 1)
	if len(got) != len(square) {
		t.Fatalf("Densify returned %d points, want %d", len(got), len(square))
	}
	for i := range square {
		if got[i] != square[i] {
			t.Errorf("point %d = %v, want %v", i, got[i], square[i])
		}
	}
	got[0].X = 9
	if square[0].X != 0 {
		t.Error("Densify returned the input slice instead of a copy")
	}
}

func TestDensify_StepCount(t *testing.T) {
	// A 4x4 square with spacing 1 splits each edge into exactly 4 steps.
	square := []r3.Vec{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}}
	if got := len(Densify(square, 1)); got != 16 {
		t.Errorf("len(Densify(square, 1)) = %d, want 16", got)
	}
	// ceil(4/3) = 2 steps per edge.
	if got := len(Densify(square, 3)); got != 8 {
		t.Errorf("len(Densify(square, 3)) = %d, want 8", got)
	}
}

func TestDensify_PreservesArea(t *testing.T) {
	rings := [][]r3.Vec{
		{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 7}},
		{{X: -5, Y: -5}, {X: 5, Y: -5}, {X: 5, Y: 5}, {X: -5, Y: 5}},
		{{X: 1, Y: 1}, {X: 9, Y: 2}, {X: 7, Y: 8}, {X: 4, Y: 4}, {X: 2, Y: 9}},
	}
	for i, ring := range rings {
		want := Area(flatten(ring))
		got := Area(flatten(Densify(ring, 0.7)))
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("ring %d: area after densify = %v, want %v", i, got, want)
		}
	}
}

func TestDensify_Degenerate(t *testing.T) {
	if got := Densify(nil, 1); got != nil {
		t.Errorf("Densify(nil) = %v, want nil", got)
	}

	single := []r3.Vec{{X: 2, Y: 2, Z: 0}}
	got := Densify(single, 1)
	if len(got) != 1 || got[0] != single[0] {
		t.Errorf("Densify(single) = %v, want %v", got, single)
	}

	ring := []r3.Vec{{X: 0}, {X: 5}}
	if got := Densify(ring, 0); len(got) != 2 {
		t.Errorf("Densify(ring, 0) returned %d points, want 2", len(got))
	}
}

func TestArea(t *testing.T) {
	square := []r2.Vec{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}}
	if got := Area(square); got != 4 {
		t.Errorf("Area(square) = %v, want 4", got)
	}
}
