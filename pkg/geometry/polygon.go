// Package geometry provides the 2D polygon primitives used to place
// floorplan items inside rooms: shoelace area and ray-casting containment.
package geometry

import "math"

// Point is a 2D plan coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// epsilon guards the ray-casting division against near-horizontal edges.
const epsilon = 1e-12

// PolygonArea computes the area of a simple polygon via the shoelace
// formula. Points are treated cyclically, so the result is invariant
// under rotation of the sequence and under reversal. Polygons with
// fewer than 3 points have zero area.
func PolygonArea(points []Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}
	var s float64
	for i := 0; i < n; i++ {
		p1 := points[i]
		p2 := points[(i+1)%n]
		s += p1.X*p2.Y - p2.X*p1.Y
	}
	return math.Abs(s) / 2
}

// PointInPolygon reports whether (x, y) lies inside the polygon using
// the even-odd ray-casting test. Edges are taken cyclically. Polygons
// with fewer than 3 points contain nothing. Behavior for points exactly
// on a vertex or edge is unspecified.
func PointInPolygon(x, y float64, poly []Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i := 0; i < n; i++ {
		p1 := poly[i]
		p2 := poly[(i+1)%n]
		if (p1.Y > y) != (p2.Y > y) &&
			x < (p2.X-p1.X)*(y-p1.Y)/(p2.Y-p1.Y+epsilon)+p1.X {
			inside = !inside
		}
	}
	return inside
}

// UnitsToSquareMeters converts a raw plan area to m². Metric projects
// store coordinates in centimeters, so cm² divides by 10000. For
// non-metric projects no m² value is defined and ok is false.
func UnitsToSquareMeters(areaUnits2 float64, metric bool) (m2 float64, ok bool) {
	if !metric {
		return 0, false
	}
	return areaUnits2 / 10000.0, true
}
