package stableid

import "testing"

func TestDerive_Deterministic(t *testing.T) {
	a := Derive("room", map[string]any{"project": "p1", "area": "a1"})
	b := Derive("room", map[string]any{"area": "a1", "project": "p1"})
	if a != b {
		t.Errorf("field order must not affect the id: %s != %s", a, b)
	}

	if a != Derive("room", map[string]any{"project": "p1", "area": "a1"}) {
		t.Error("repeated derivation must reproduce the same id")
	}
}

func TestDerive_DistinctKeys(t *testing.T) {
	base := Derive("item", map[string]any{"parent": "d1", "ref": "r1"})

	cases := []struct {
		name   string
		kind   string
		fields map[string]any
	}{
		{"different kind", "room", map[string]any{"parent": "d1", "ref": "r1"}},
		{"different field value", "item", map[string]any{"parent": "d1", "ref": "r2"}},
		{"extra field", "item", map[string]any{"parent": "d1", "ref": "r1", "x": 1.0}},
	}
	for _, tc := range cases {
		if got := Derive(tc.kind, tc.fields); got == base {
			t.Errorf("%s: expected a different id", tc.name)
		}
	}
}

func TestItem_PositionChangesID(t *testing.T) {
	a := Item("design-1", "ref-1", 10, 20)
	b := Item("design-1", "ref-1", 10, 21)
	if a == b {
		t.Error("moving an item must change its id")
	}
}

func TestHash_Deterministic(t *testing.T) {
	poly := []map[string]float64{{"x": 0, "y": 0}, {"x": 1, "y": 0}}
	if Hash(poly) != Hash(poly) {
		t.Error("polygon hash must be deterministic")
	}
}
