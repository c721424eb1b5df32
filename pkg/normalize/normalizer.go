// Package normalize walks a floorplan export tree and produces one
// chunk per entity: project, floor, design, room, and item. The walk is
// single-threaded and deterministic; normalizing unchanged input
// reproduces byte-identical chunks.
package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/floorgraph/floorgraph/pkg/chunk"
	"github.com/floorgraph/floorgraph/pkg/fml"
	"github.com/floorgraph/floorgraph/pkg/geometry"
	"github.com/floorgraph/floorgraph/pkg/stableid"
)

// Project normalizes one export document into a flat chunk set. The
// first chunk is the project root; every other chunk's parent id
// resolves within the returned set.
func Project(doc *fml.Document) []*chunk.Chunk {
	pid := stableid.Project(doc.ID.String(), doc.Name)
	metric := doc.Metric()

	out := []*chunk.Chunk{projectChunk(doc, pid)}
	for i := range doc.Floors {
		out = append(out, floorChunks(&doc.Floors[i], pid, metric)...)
	}
	return out
}

func projectChunk(doc *fml.Document, pid string) *chunk.Chunk {
	raw, _ := json.Marshal(map[string]any{
		"id":       doc.ID,
		"features": doc.Features,
	})
	return &chunk.Chunk{
		ID:    pid,
		Level: chunk.LevelProject,
		Project: &chunk.ProjectAttrs{
			Name:       doc.Name,
			SourceID:   doc.ID.String(),
			UseMetric:  doc.Metric(),
			FloorCount: len(doc.Floors),
		},
		SummaryText: fmt.Sprintf("Project '%s' with %d floors.", doc.Name, len(doc.Floors)),
		Refs:        chunk.Refs{},
		Raw:         raw,
	}
}

func floorChunks(fl *fml.Floor, pid string, metric bool) []*chunk.Chunk {
	fid := stableid.Floor(pid, fl.Name, fl.Level)
	raw, _ := json.Marshal(map[string]any{
		"id":    fl.ID,
		"name":  fl.Name,
		"level": fl.Level,
	})
	out := []*chunk.Chunk{{
		ID:       fid,
		Level:    chunk.LevelFloor,
		ParentID: pid,
		Floor: &chunk.FloorAttrs{
			Name:        fl.Name,
			LevelNum:    fl.Level,
			Height:      fl.Height,
			DesignCount: len(fl.Designs),
		},
		SummaryText: fmt.Sprintf("Floor '%s', level %d, %d designs.", fl.Name, fl.Level, len(fl.Designs)),
		Refs:        chunk.Refs{ParentID: pid},
		Raw:         raw,
	}}
	for i := range fl.Designs {
		out = append(out, designChunks(&fl.Designs[i], fid, pid, metric)...)
	}
	return out
}

// candidateRoom tracks one area polygon while items are assigned.
type candidateRoom struct {
	id      string
	areaRef string
	poly    []geometry.Point
	units2  float64
	items   []int // indexes into the design's item list
}

func designChunks(d *fml.Design, fid, pid string, metric bool) []*chunk.Chunk {
	did := stableid.Design(fid, d.Name)
	designName := d.Name
	if designName == "" {
		designName = "Design"
	}

	raw, _ := json.Marshal(map[string]any{
		"name": d.Name,
		"counts": map[string]int{
			"areas": len(d.Areas),
			"items": len(d.Items),
		},
	})
	out := []*chunk.Chunk{{
		ID:       did,
		Level:    chunk.LevelDesign,
		ParentID: fid,
		Design: &chunk.DesignAttrs{
			Name:      d.Name,
			AreaCount: len(d.Areas),
			ItemCount: len(d.Items),
		},
		SummaryText: fmt.Sprintf("Design '%s' with %d areas and %d items.",
			designName, len(d.Areas), len(d.Items)),
		Refs: chunk.Refs{ParentID: fid},
		Raw:  raw,
	}}

	rooms := make([]*candidateRoom, 0, len(d.Areas))
	for i := range d.Areas {
		a := &d.Areas[i]
		poly := make([]geometry.Point, len(a.Poly))
		for j, p := range a.Poly {
			poly[j] = geometry.Point{X: p.X, Y: p.Y}
		}
		areaRef := a.RefID
		if areaRef == "" {
			areaRef = stableid.Hash(poly)
		}
		rooms = append(rooms, &candidateRoom{
			id:      stableid.Room(pid, fid, did, areaRef),
			areaRef: areaRef,
			poly:    poly,
			units2:  geometry.PolygonArea(poly),
		})
	}

	// Assign each item to the smallest containing polygon. Overlapping
	// areas are common (a zone drawn inside a larger open plan); the
	// most specific polygon wins, and equal areas fall back to source
	// order so the result stays deterministic.
	itemIDs := make([]string, len(d.Items))
	itemRoom := make([]string, len(d.Items))
	for i := range d.Items {
		it := &d.Items[i]
		itemIDs[i] = itemID(did, it)

		x, y, ok := it.Position()
		if !ok {
			continue
		}
		best := -1
		for r, room := range rooms {
			if !geometry.PointInPolygon(x, y, room.poly) {
				continue
			}
			if best < 0 || room.units2 < rooms[best].units2 {
				best = r
			}
		}
		if best >= 0 {
			itemRoom[i] = rooms[best].id
			rooms[best].items = append(rooms[best].items, i)
		}
	}

	for i, room := range rooms {
		out = append(out, roomChunk(room, &d.Areas[i], d.Items, itemIDs, designName, did, fid, pid, metric))
	}
	for i := range d.Items {
		out = append(out, itemChunk(&d.Items[i], itemIDs[i], did, itemRoom[i]))
	}
	return out
}

func itemID(did string, it *fml.Item) string {
	var x, y any
	if it.X != nil {
		x = *it.X
	}
	if it.Y != nil {
		y = *it.Y
	}
	return stableid.Item(did, it.RefID, x, y)
}

func roomChunk(room *candidateRoom, area *fml.Area, items []fml.Item, itemIDs []string,
	designName, did, fid, pid string, metric bool) *chunk.Chunk {

	names := make([]string, 0, len(room.items))
	ids := make([]string, 0, len(room.items))
	for _, idx := range room.items {
		names = append(names, items[idx].DisplayName())
		ids = append(ids, itemIDs[idx])
	}
	roomType := GuessRoomType(names)

	var m2ptr *float64
	parts := []string{fmt.Sprintf("%s — %s: polygon with %d points.",
		designName, shortID(room.id), len(room.poly))}
	if m2, ok := geometry.UnitsToSquareMeters(room.units2, metric); ok {
		m2ptr = &m2
		parts = append(parts, fmt.Sprintf("Approx. area %.1f m².", m2))
	} else {
		parts = append(parts, fmt.Sprintf("Approx. area (units²) %.0f.", room.units2))
	}
	if roomType != "unknown" {
		parts = append(parts, fmt.Sprintf("Likely %s.", roomType))
	}
	if len(names) > 0 {
		parts = append(parts, "Contains: "+strings.Join(sortedUnique(names, 12), ", ")+".")
	}

	raw, _ := json.Marshal(map[string]any{"area": area})
	return &chunk.Chunk{
		ID:       room.id,
		Level:    chunk.LevelRoom,
		ParentID: did,
		Room: &chunk.RoomAttrs{
			Name:       "Area " + room.areaRef,
			RoomType:   roomType,
			AreaUnits2: room.units2,
			AreaM2:     m2ptr,
			ProjectID:  pid,
			FloorID:    fid,
			DesignID:   did,
			Items:      ids,
		},
		SummaryText: strings.Join(parts, " "),
		Refs:        chunk.Refs{ParentID: did, AreaRefID: room.areaRef},
		Raw:         raw,
	}
}

func itemChunk(it *fml.Item, id, did, roomID string) *chunk.Chunk {
	itemType := it.ClassName
	if itemType == "" {
		itemType = "item"
	}
	return &chunk.Chunk{
		ID:       id,
		Level:    chunk.LevelItem,
		ParentID: did,
		Item: &chunk.ItemAttrs{
			Name:     it.DisplayName(),
			Type:     itemType,
			RefID:    it.RefID,
			RoomID:   roomID,
			Position: chunk.Position{X: it.X, Y: it.Y, Z: it.Z},
			Size:     chunk.Size{Width: it.Width, Height: it.Height, ZHeight: it.ZHeight},
			Rotation: it.Rotation,
			Extra:    it.Extra,
		},
		SummaryText: fmt.Sprintf("Item '%s' (%s) at (%s, %s).",
			it.DisplayName(), itemType, coord(it.X), coord(it.Y)),
		Refs: chunk.Refs{ParentID: did},
		Raw:  it.Raw,
	}
}

func coord(p *float64) string {
	if p == nil {
		return "?"
	}
	return strconv.FormatFloat(*p, 'g', -1, 64)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}

func sortedUnique(names []string, limit int) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
