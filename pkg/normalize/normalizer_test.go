package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/floorgraph/floorgraph/pkg/chunk"
	"github.com/floorgraph/floorgraph/pkg/fml"
)

const exportDoc = `{
	"id": 7,
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
				{"refid": "sofa-1", "class_name": "sofa", "name": "Leather Sofa", "x": 50, "y": 50},
				{"refid": "tv-1", "class_name": "tv", "name": "TV", "x": 60, "y": 60},
				{"refid": "lamp-1", "class_name": "lamp", "name": "Floor Lamp", "x": 500, "y": 500},
				{"refid": "ghost-1", "class_name": "rug", "name": "Rug"}
			],
			"areas": [
				{"refid": "ar-1", "poly": [{"x":0,"y":0},{"x":100,"y":0},{"x":100,"y":100},{"x":0,"y":100}]}
			]
		}]
	}]
}`

func parseDoc(t *testing.T, s string) *fml.Document {
	t.Helper()
	doc, err := fml.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}

func byLevel(chunks []*chunk.Chunk, level chunk.Level) []*chunk.Chunk {
	var out []*chunk.Chunk
	for _, c := range chunks {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out
}

func TestProject_ChunkSet(t *testing.T) {
	chunks := Project(parseDoc(t, exportDoc))

	counts := map[chunk.Level]int{}
	for _, c := range chunks {
		counts[c.Level]++
	}
	want := map[chunk.Level]int{
		chunk.LevelProject: 1,
		chunk.LevelFloor:   1,
		chunk.LevelDesign:  1,
		chunk.LevelRoom:    1,
		chunk.LevelItem:    4,
	}
	for level, n := range want {
		if counts[level] != n {
			t.Errorf("expected %d %s chunks, got %d", n, level, counts[level])
		}
	}

	if chunks[0].Level != chunk.LevelProject {
		t.Error("project chunk must come first")
	}
	if chunks[0].ParentID != "" {
		t.Error("project root must have no parent")
	}
}

func TestProject_ParentsResolve(t *testing.T) {
	chunks := Project(parseDoc(t, exportDoc))

	byID := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = true
	}
	for _, c := range chunks {
		if c.Level == chunk.LevelProject {
			continue
		}
		if c.ParentID == "" {
			t.Errorf("%s chunk %s has no parent", c.Level, c.ID)
		} else if !byID[c.ParentID] {
			t.Errorf("%s chunk %s has dangling parent %s", c.Level, c.ID, c.ParentID)
		}
	}
}

func TestProject_RoomAssignment(t *testing.T) {
	chunks := Project(parseDoc(t, exportDoc))

	rooms := byLevel(chunks, chunk.LevelRoom)
	room := rooms[0].Room
	if room.RoomType != "living" {
		t.Errorf("expected living room (sofa+tv inside), got %q", room.RoomType)
	}
	if len(room.Items) != 2 {
		t.Errorf("expected 2 items weakly linked to the room, got %d", len(room.Items))
	}
	if room.AreaUnits2 != 10000 {
		t.Errorf("expected 10000 units², got %f", room.AreaUnits2)
	}
	if room.AreaM2 == nil || *room.AreaM2 != 1.0 {
		t.Errorf("expected 1.0 m² for metric project, got %v", room.AreaM2)
	}

	items := byLevel(chunks, chunk.LevelItem)
	linked := 0
	for _, c := range items {
		switch c.Item.RefID {
		case "sofa-1", "tv-1":
			if c.Item.RoomID != rooms[0].ID {
				t.Errorf("item %s should be linked to the room", c.Item.RefID)
			}
			linked++
		case "lamp-1":
			if c.Item.RoomID != "" {
				t.Error("item outside every polygon must have no room id")
			}
		case "ghost-1":
			if c.Item.RoomID != "" {
				t.Error("item without coordinates must have no room id")
			}
		}
	}
	if linked != 2 {
		t.Errorf("expected 2 linked items, got %d", linked)
	}
}

func TestProject_NonMetricArea(t *testing.T) {
	doc := parseDoc(t, strings.Replace(exportDoc, `"useMetric": true`, `"useMetric": false`, 1))
	rooms := byLevel(Project(doc), chunk.LevelRoom)
	if rooms[0].Room.AreaM2 != nil {
		t.Error("non-metric project must not populate m²")
	}
	if rooms[0].Room.AreaUnits2 != 10000 {
		t.Errorf("units² must still be populated, got %f", rooms[0].Room.AreaUnits2)
	}
}

func TestProject_Idempotent(t *testing.T) {
	a, _ := json.Marshal(Project(parseDoc(t, exportDoc)))
	b, _ := json.Marshal(Project(parseDoc(t, exportDoc)))
	if string(a) != string(b) {
		t.Error("normalizing the same input twice must be byte-identical")
	}
}

func TestProject_NestedAreaSmallestWins(t *testing.T) {
	doc := parseDoc(t, `{
		"id": 1, "name": "Nested",
		"floors": [{"id": 1, "name": "F", "level": 0, "designs": [{
			"name": "D",
			"items": [{"refid": "it-1", "name": "Chair", "x": 10, "y": 10}],
			"areas": [
				{"refid": "outer", "poly": [{"x":0,"y":0},{"x":100,"y":0},{"x":100,"y":100},{"x":0,"y":100}]},
				{"refid": "inner", "poly": [{"x":0,"y":0},{"x":20,"y":0},{"x":20,"y":20},{"x":0,"y":20}]}
			]
		}]}]
	}`)
	chunks := Project(doc)

	var inner, outer *chunk.Chunk
	for _, c := range byLevel(chunks, chunk.LevelRoom) {
		switch c.Refs.AreaRefID {
		case "inner":
			inner = c
		case "outer":
			outer = c
		}
	}
	if inner == nil || outer == nil {
		t.Fatal("missing room chunks")
	}

	item := byLevel(chunks, chunk.LevelItem)[0]
	if item.Item.RoomID != inner.ID {
		t.Error("item in overlapping areas must bind to the smallest polygon")
	}
	if len(inner.Room.Items) != 1 || len(outer.Room.Items) != 0 {
		t.Errorf("weak links should follow the assignment: inner=%d outer=%d",
			len(inner.Room.Items), len(outer.Room.Items))
	}
}

func TestProject_DegenerateArea(t *testing.T) {
	doc := parseDoc(t, `{
		"id": 1, "name": "Degenerate",
		"floors": [{"id": 1, "name": "F", "level": 0, "designs": [{
			"name": "D",
			"items": [{"refid": "it-1", "name": "Chair", "x": 0, "y": 0}],
			"areas": [{"refid": "line", "poly": [{"x":0,"y":0},{"x":10,"y":0}]}]
		}]}]
	}`)
	chunks := Project(doc)

	room := byLevel(chunks, chunk.LevelRoom)[0]
	if room.Room.AreaUnits2 != 0 {
		t.Errorf("degenerate polygon must have area 0, got %f", room.Room.AreaUnits2)
	}
	if len(room.Room.Items) != 0 {
		t.Error("degenerate polygon must contain no items")
	}
}

func TestProject_SummaryTexts(t *testing.T) {
	chunks := Project(parseDoc(t, exportDoc))

	if got := chunks[0].SummaryText; got != "Project 'Lakehouse' with 1 floors." {
		t.Errorf("project summary = %q", got)
	}
	floor := byLevel(chunks, chunk.LevelFloor)[0]
	if floor.SummaryText != "Floor 'Ground', level 0, 1 designs." {
		t.Errorf("floor summary = %q", floor.SummaryText)
	}
	design := byLevel(chunks, chunk.LevelDesign)[0]
	if design.SummaryText != "Design 'Option A' with 1 areas and 4 items." {
		t.Errorf("design summary = %q", design.SummaryText)
	}
	room := byLevel(chunks, chunk.LevelRoom)[0]
	if !strings.Contains(room.SummaryText, "Approx. area 1.0 m².") {
		t.Errorf("room summary missing area: %q", room.SummaryText)
	}
	if !strings.Contains(room.SummaryText, "Likely living.") {
		t.Errorf("room summary missing type: %q", room.SummaryText)
	}
	if !strings.Contains(room.SummaryText, "Contains: Leather Sofa, TV.") {
		t.Errorf("room summary missing items: %q", room.SummaryText)
	}
}
