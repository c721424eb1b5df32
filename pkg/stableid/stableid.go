// Package stableid derives deterministic chunk identifiers from
// canonical semantic keys. The same key always hashes to the same id,
// so re-normalizing unchanged input reproduces an identical chunk set.
package stableid

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Derive hashes a semantic key (kind plus identifying fields) into a
// stable hex identifier. Fields are canonicalized through compact JSON
// with sorted keys, so field order never affects the result.
func Derive(kind string, fields map[string]any) string {
	key := make(map[string]any, len(fields)+1)
	key["kind"] = kind
	for k, v := range fields {
		key[k] = v
	}
	// encoding/json marshals map keys in sorted order.
	data, err := json.Marshal(key)
	if err != nil {
		// Only non-serializable values reach here; fall back to the
		// formatted key so the id is still deterministic.
		data = []byte(fmt.Sprintf("%s|%v", kind, fields))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Project derives the id for a project chunk from its source id and name.
func Project(sourceID any, name string) string {
	return Derive("project", map[string]any{"id": sourceID, "name": name})
}

// Floor derives the id for a floor chunk scoped to its project.
func Floor(projectID, name string, level any) string {
	return Derive("floor", map[string]any{"project": projectID, "name": name, "level": level})
}

// Design derives the id for a design chunk scoped to its floor.
func Design(floorID, name string) string {
	return Derive("design", map[string]any{"floor": floorID, "name": name})
}

// Room derives the id for a room chunk. areaRef is the source area's
// refid, or a polygon hash when the export carries none.
func Room(projectID, floorID, designID, areaRef string) string {
	return Derive("room", map[string]any{
		"project": projectID,
		"floor":   floorID,
		"design":  designID,
		"area":    areaRef,
	})
}

// Item derives the id for an item chunk from its parent design, source
// ref, and position. x and y may be nil when the export omits them.
func Item(designID, ref string, x, y any) string {
	return Derive("item", map[string]any{
		"parent": designID,
		"ref":    ref,
		"x":      x,
		"y":      y,
	})
}

// Hash returns the canonical hash of an arbitrary JSON-serializable
// value. Used for polygon-derived fallback keys.
func Hash(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", v))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
