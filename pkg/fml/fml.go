// Package fml parses floorplan export documents. A document is a tree
// of project → floors → designs, where each design carries placed items
// and area polygons. Missing optional fields default to their zero
// value; only malformed top-level JSON rejects a file.
package fml

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Document is the root of one floorplan export.
type Document struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Settings Settings    `json:"settings"`
	Features []string    `json:"features,omitempty"`
	Floors   []Floor     `json:"floors"`
}

// Settings holds project-level options.
type Settings struct {
	UseMetric *bool `json:"useMetric"`
}

// Metric reports whether the project uses metric units. Exports that
// omit the flag are treated as metric.
func (d *Document) Metric() bool {
	if d.Settings.UseMetric == nil {
		return true
	}
	return *d.Settings.UseMetric
}

// Floor is one level of the building.
type Floor struct {
	ID      json.Number `json:"id"`
	Name    string      `json:"name"`
	Level   int         `json:"level"`
	Height  float64     `json:"height"`
	Designs []Design    `json:"designs"`
}

// Design is one layout variant of a floor.
type Design struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
	Areas []Area `json:"areas"`
}

// Item is a placed object: furniture, fixture, or decor.
type Item struct {
	RefID     string   `json:"refid"`
	ClassName string   `json:"class_name"`
	Name      string   `json:"name"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	Z         *float64 `json:"z"`
	Width     *float64 `json:"width"`
	Height    *float64 `json:"height"`
	ZHeight   *float64 `json:"z_height"`
	Rotation  *float64 `json:"rotation"`

	// Extra captures scalar attributes beyond the core schema (brand,
	// color, sku, product ids...). They flow into item chunks for
	// filtering and comparison.
	Extra map[string]string `json:"-"`

	// Raw is the verbatim source fragment, preserved for traceability.
	Raw json.RawMessage `json:"-"`
}

// Area is a polygonal region of a design, the source of room chunks.
type Area struct {
	RefID string      `json:"refid"`
	Poly  []AreaPoint `json:"poly"`
}

// AreaPoint is one polygon vertex.
type AreaPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UnmarshalJSON decodes the polygon, dropping vertices that omit
// either coordinate. A missing coordinate is not a point at zero.
func (a *Area) UnmarshalJSON(data []byte) error {
	var raw struct {
		RefID string `json:"refid"`
		Poly  []struct {
			X *float64 `json:"x"`
			Y *float64 `json:"y"`
		} `json:"poly"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.RefID = raw.RefID
	a.Poly = a.Poly[:0]
	for _, p := range raw.Poly {
		if p.X == nil || p.Y == nil {
			continue
		}
		a.Poly = append(a.Poly, AreaPoint{X: *p.X, Y: *p.Y})
	}
	return nil
}

// coreItemKeys are the schema fields of Item, excluded from Extra.
var coreItemKeys = map[string]bool{
	"refid": true, "class_name": true, "name": true,
	"x": true, "y": true, "z": true,
	"width": true, "height": true, "z_height": true, "rotation": true,
}

// UnmarshalJSON decodes the known item fields and collects any other
// scalar attributes into Extra.
func (it *Item) UnmarshalJSON(data []byte) error {
	type alias Item
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if coreItemKeys[k] {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if s != "" {
				if a.Extra == nil {
					a.Extra = make(map[string]string)
				}
				a.Extra[k] = s
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			if a.Extra == nil {
				a.Extra = make(map[string]string)
			}
			a.Extra[k] = n.String()
		}
	}

	a.Raw = append(json.RawMessage(nil), data...)
	*it = Item(a)
	return nil
}

// DisplayName returns the human-facing name of an item, falling back
// to its class and then its ref.
func (it *Item) DisplayName() string {
	switch {
	case it.Name != "":
		return it.Name
	case it.ClassName != "":
		return it.ClassName
	case it.RefID != "":
		return it.RefID
	default:
		return "item"
	}
}

// Position returns the item's plan coordinates. ok is false when the
// export omits either coordinate; such items cannot be placed in rooms.
func (it *Item) Position() (x, y float64, ok bool) {
	if it.X == nil || it.Y == nil {
		return 0, 0, false
	}
	return *it.X, *it.Y, true
}

// Parse decodes one export document from r.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("malformed export document: %w", err)
	}
	return &doc, nil
}

// ParseFile decodes the export document at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
