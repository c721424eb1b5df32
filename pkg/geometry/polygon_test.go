package geometry

import (
	"math"
	"testing"
)

func unitSquare() []Point {
	return []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
}

func TestPolygonArea_UnitSquare(t *testing.T) {
	area := PolygonArea(unitSquare())
	if math.Abs(area-1.0) > 1e-9 {
		t.Errorf("expected area 1.0, got %f", area)
	}
}

func TestPolygonArea_Degenerate(t *testing.T) {
	cases := [][]Point{
		nil,
		{},
		{{0, 0}},
		{{0, 0}, {1, 1}},
	}
	for _, pts := range cases {
		if area := PolygonArea(pts); area != 0 {
			t.Errorf("expected area 0 for %d points, got %f", len(pts), area)
		}
	}
}

func TestPolygonArea_RotationAndReversal(t *testing.T) {
	poly := []Point{{0, 0}, {4, 0}, {4, 3}, {2, 5}, {0, 3}}
	want := PolygonArea(poly)

	// Every cyclic rotation yields the same area.
	for shift := 1; shift < len(poly); shift++ {
		rotated := append(append([]Point{}, poly[shift:]...), poly[:shift]...)
		if got := PolygonArea(rotated); math.Abs(got-want) > 1e-9 {
			t.Errorf("rotation by %d: expected %f, got %f", shift, want, got)
		}
	}

	// Reversing the winding order yields the same absolute area.
	reversed := make([]Point, len(poly))
	for i, p := range poly {
		reversed[len(poly)-1-i] = p
	}
	if got := PolygonArea(reversed); math.Abs(got-want) > 1e-9 {
		t.Errorf("reversal: expected %f, got %f", want, got)
	}
}

func TestPointInPolygon_UnitSquare(t *testing.T) {
	poly := unitSquare()

	if !PointInPolygon(0.5, 0.5, poly) {
		t.Error("expected (0.5, 0.5) inside unit square")
	}
	if PointInPolygon(2, 0.5, poly) {
		t.Error("expected (2, 0.5) outside unit square")
	}
	if PointInPolygon(-0.1, 0.5, poly) {
		t.Error("expected (-0.1, 0.5) outside unit square")
	}
}

func TestPointInPolygon_Degenerate(t *testing.T) {
	if PointInPolygon(0, 0, nil) {
		t.Error("nil polygon should contain nothing")
	}
	if PointInPolygon(0.5, 0.5, []Point{{0, 0}, {1, 1}}) {
		t.Error("2-point polygon should contain nothing")
	}
}

func TestPointInPolygon_Concave(t *testing.T) {
	// L-shape: the notch at the top-right is outside.
	poly := []Point{{0, 0}, {4, 0}, {4, 2}, {2, 2}, {2, 4}, {0, 4}}
	if !PointInPolygon(1, 3, poly) {
		t.Error("expected (1, 3) inside L-shape")
	}
	if PointInPolygon(3, 3, poly) {
		t.Error("expected (3, 3) in the notch, outside L-shape")
	}
}

func TestUnitsToSquareMeters(t *testing.T) {
	// 100x100 cm square in a metric project.
	poly := []Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	units2 := PolygonArea(poly)
	if units2 != 10000 {
		t.Fatalf("expected 10000 units², got %f", units2)
	}

	m2, ok := UnitsToSquareMeters(units2, true)
	if !ok {
		t.Fatal("expected m² value for metric project")
	}
	if math.Abs(m2-1.0) > 1e-9 {
		t.Errorf("expected 1.0 m², got %f", m2)
	}

	if _, ok := UnitsToSquareMeters(units2, false); ok {
		t.Error("non-metric project must not produce an m² value")
	}
}
