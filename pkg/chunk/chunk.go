// Package chunk defines the normalized floorplan record and its
// filesystem store. One chunk exists per project, floor, design, room,
// and item; chunks are immutable snapshots identified by stable,
// content-derived ids.
package chunk

import (
	"encoding/json"
	"strings"
)

// Level identifies the entity kind a chunk represents.
type Level string

// Chunk levels, in canonical storage order.
const (
	LevelProject Level = "project"
	LevelFloor   Level = "floor"
	LevelDesign  Level = "design"
	LevelRoom    Level = "room"
	LevelItem    Level = "item"
)

// Levels lists all chunk levels in canonical order. Index artifacts are
// built in this order, so it is a correctness requirement, not cosmetic.
var Levels = []Level{LevelProject, LevelFloor, LevelDesign, LevelRoom, LevelItem}

// ValidLevel reports whether s names a known chunk level.
func ValidLevel(s string) bool {
	for _, l := range Levels {
		if string(l) == s {
			return true
		}
	}
	return false
}

// Refs holds cross-references carried by a chunk. ParentID is always
// present except on the project root.
type Refs struct {
	ParentID  string `json:"parent_id,omitempty"`
	AreaRefID string `json:"area_refid,omitempty"`
}

// Chunk is the normalized record for one floorplan entity. It is a
// tagged variant: Level selects which of the per-level attribute cases
// is populated; exactly one is non-nil.
type Chunk struct {
	ID          string `json:"chunk_id"`
	Level       Level  `json:"level"`
	ParentID    string `json:"parent_id,omitempty"`
	SummaryText string `json:"summary_text"`
	Refs        Refs   `json:"refs"`

	Project *ProjectAttrs `json:"project,omitempty"`
	Floor   *FloorAttrs   `json:"floor,omitempty"`
	Design  *DesignAttrs  `json:"design,omitempty"`
	Room    *RoomAttrs    `json:"room,omitempty"`
	Item    *ItemAttrs    `json:"item,omitempty"`

	// Raw preserves the source fragment verbatim for traceability.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// ProjectAttrs are the fields specific to project chunks.
type ProjectAttrs struct {
	Name       string `json:"name"`
	SourceID   string `json:"source_id,omitempty"`
	UseMetric  bool   `json:"use_metric"`
	FloorCount int    `json:"floor_count"`
}

// FloorAttrs are the fields specific to floor chunks.
type FloorAttrs struct {
	Name        string  `json:"name"`
	LevelNum    int     `json:"level_num"`
	Height      float64 `json:"height,omitempty"`
	DesignCount int     `json:"design_count"`
}

// DesignAttrs are the fields specific to design chunks.
type DesignAttrs struct {
	Name      string `json:"name"`
	AreaCount int    `json:"area_count"`
	ItemCount int    `json:"item_count"`
}

// RoomAttrs are the fields specific to room chunks. Items is a weak
// link: the ids of item chunks whose position fell inside this room's
// polygon at build time. It is computed, not declared ownership.
type RoomAttrs struct {
	Name       string   `json:"name"`
	RoomType   string   `json:"room_type"`
	AreaUnits2 float64  `json:"area_units2"`
	AreaM2     *float64 `json:"area_m2,omitempty"`
	ProjectID  string   `json:"project_id"`
	FloorID    string   `json:"floor_id"`
	DesignID   string   `json:"design_id"`
	Items      []string `json:"items,omitempty"`
}

// Position is an item's plan placement.
type Position struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	Z *float64 `json:"z,omitempty"`
}

// Size is an item's footprint.
type Size struct {
	Width   *float64 `json:"width,omitempty"`
	Height  *float64 `json:"height,omitempty"`
	ZHeight *float64 `json:"z_height,omitempty"`
}

// ItemAttrs are the fields specific to item chunks. RoomID is a derived
// cross-reference decided by polygon containment at build time; it is
// empty when no room polygon contained the item.
type ItemAttrs struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	RefID    string   `json:"refid,omitempty"`
	RoomID   string   `json:"room_id,omitempty"`
	Position Position `json:"position"`
	Size     Size     `json:"size"`
	Rotation *float64 `json:"rotation,omitempty"`

	// Extra carries scalar source attributes beyond the core schema
	// (brand, color, sku, product ids...).
	Extra map[string]string `json:"extra,omitempty"`
}

// Name returns the chunk's display name, empty if unnamed.
func (c *Chunk) Name() string {
	switch c.Level {
	case LevelProject:
		if c.Project != nil {
			return c.Project.Name
		}
	case LevelFloor:
		if c.Floor != nil {
			return c.Floor.Name
		}
	case LevelDesign:
		if c.Design != nil {
			return c.Design.Name
		}
	case LevelRoom:
		if c.Room != nil {
			return c.Room.Name
		}
	case LevelItem:
		if c.Item != nil {
			return c.Item.Name
		}
	}
	return ""
}

// Title returns "level: name", or just the level when unnamed.
func (c *Chunk) Title() string {
	if name := c.Name(); name != "" {
		return string(c.Level) + ": " + name
	}
	return string(c.Level)
}

// AttrStrings flattens the chunk's attributes into a lowercase-keyed
// string map for filter evaluation and signature derivation.
func (c *Chunk) AttrStrings() map[string]string {
	out := make(map[string]string)
	put := func(k, v string) {
		if v != "" {
			out[strings.ToLower(k)] = v
		}
	}

	put("name", c.Name())
	switch {
	case c.Project != nil:
		put("source_id", c.Project.SourceID)
	case c.Room != nil:
		put("room_type", c.Room.RoomType)
		put("project", c.Room.ProjectID)
		put("floor", c.Room.FloorID)
		put("design", c.Room.DesignID)
	case c.Item != nil:
		put("type", c.Item.Type)
		put("refid", c.Item.RefID)
		put("room_id", c.Item.RoomID)
		for k, v := range c.Item.Extra {
			put(k, v)
		}
	}
	return out
}
