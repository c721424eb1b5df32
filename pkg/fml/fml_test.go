package fml

import (
	"strings"
	"testing"
)

const sampleDoc = `{
	"id": 42,
	"name": "Lakehouse",
	"settings": {"useMetric": true},
	"floors": [{
		"id": 1,
		"name": "Ground",
		"level": 0,
		"height": 280,
		"designs": [{
			"name": "Option A",
			"items": [
				{"refid": "it-1", "class_name": "sofa", "name": "Leather Sofa",
				 "x": 50, "y": 50, "z": 0, "width": 200, "height": 90,
				 "brand": "Ethan Allen", "color": "brown", "productId": 9912},
				{"refid": "it-2", "class_name": "lamp"}
			],
			"areas": [
				{"refid": "ar-1", "poly": [{"x":0,"y":0},{"x":100,"y":0},{"x":100,"y":100},{"x":0,"y":100}]}
			]
		}]
	}]
}`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.Name != "Lakehouse" {
		t.Errorf("expected project name Lakehouse, got %q", doc.Name)
	}
	if !doc.Metric() {
		t.Error("expected metric project")
	}
	if len(doc.Floors) != 1 || len(doc.Floors[0].Designs) != 1 {
		t.Fatal("expected one floor with one design")
	}

	design := doc.Floors[0].Designs[0]
	if len(design.Items) != 2 || len(design.Areas) != 1 {
		t.Fatalf("expected 2 items and 1 area, got %d/%d", len(design.Items), len(design.Areas))
	}
	if len(design.Areas[0].Poly) != 4 {
		t.Errorf("expected 4 polygon points, got %d", len(design.Areas[0].Poly))
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse(strings.NewReader("{not json")); err == nil {
		t.Error("expected error for malformed document")
	}
}

func TestMetric_DefaultsTrue(t *testing.T) {
	doc, err := Parse(strings.NewReader(`{"name": "NoSettings"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !doc.Metric() {
		t.Error("missing useMetric flag should default to metric")
	}

	doc, err = Parse(strings.NewReader(`{"name": "Imperial", "settings": {"useMetric": false}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Metric() {
		t.Error("explicit useMetric=false must be honored")
	}
}

func TestArea_DropsIncompleteVertices(t *testing.T) {
	doc, err := Parse(strings.NewReader(`{
		"floors": [{"designs": [{
			"areas": [{"refid": "ar-1", "poly": [
				{"x": 0, "y": 0},
				{"x": 100},
				{"y": 100},
				{"x": 100, "y": 100}
			]}]
		}]}]
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	area := doc.Floors[0].Designs[0].Areas[0]
	if len(area.Poly) != 2 {
		t.Fatalf("expected incomplete vertices dropped, got %d points: %+v", len(area.Poly), area.Poly)
	}
	if area.Poly[1] != (AreaPoint{X: 100, Y: 100}) {
		t.Errorf("kept vertex = %+v, want (100, 100)", area.Poly[1])
	}
}

func TestItem_ExtraAttributes(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	sofa := doc.Floors[0].Designs[0].Items[0]
	if sofa.Extra["brand"] != "Ethan Allen" {
		t.Errorf("expected brand passthrough, got %q", sofa.Extra["brand"])
	}
	if sofa.Extra["productId"] != "9912" {
		t.Errorf("expected numeric extras stringified, got %q", sofa.Extra["productId"])
	}
	if _, ok := sofa.Extra["refid"]; ok {
		t.Error("core fields must not leak into Extra")
	}
}

func TestItem_DisplayNameFallbacks(t *testing.T) {
	cases := []struct {
		item Item
		want string
	}{
		{Item{Name: "Leather Sofa", ClassName: "sofa"}, "Leather Sofa"},
		{Item{ClassName: "sofa", RefID: "it-1"}, "sofa"},
		{Item{RefID: "it-1"}, "it-1"},
		{Item{}, "item"},
	}
	for _, tc := range cases {
		if got := tc.item.DisplayName(); got != tc.want {
			t.Errorf("DisplayName = %q, want %q", got, tc.want)
		}
	}
}

func TestItem_Position(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	items := doc.Floors[0].Designs[0].Items

	x, y, ok := items[0].Position()
	if !ok || x != 50 || y != 50 {
		t.Errorf("expected position (50, 50), got (%f, %f) ok=%v", x, y, ok)
	}
	if _, _, ok := items[1].Position(); ok {
		t.Error("item without coordinates must report no position")
	}
}
