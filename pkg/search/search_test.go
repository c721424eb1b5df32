package search

import (
	"context"
	"testing"

	"github.com/floorgraph/floorgraph/pkg/chunk"
	"github.com/floorgraph/floorgraph/pkg/index"
)

type fixedEmbedder struct {
	vec []float32
}

func (f *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, nil
}

// fixture builds a three-chunk store and index: a bedroom room, a sofa
// item, and a lamp item, with vectors chosen so the sofa is closest to
// the axis-aligned query.
func fixture(t *testing.T) (*index.Index, *chunk.Store) {
	t.Helper()
	store := chunk.NewStore(t.TempDir())

	chunks := []*chunk.Chunk{
		{
			ID:    "room1",
			Level: chunk.LevelRoom,
			Room:  &chunk.RoomAttrs{Name: "Area A", RoomType: "bedroom"},
		},
		{
			ID:    "item1",
			Level: chunk.LevelItem,
			Item: &chunk.ItemAttrs{
				Name: "Sofa",
				Type: "sofa",
				Extra: map[string]string{"brand": "Acme"},
			},
		},
		{
			ID:    "item2",
			Level: chunk.LevelItem,
			Item:  &chunk.ItemAttrs{Name: "Lamp", Type: "lamp"},
		},
	}
	if err := store.WriteAll(chunks); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	idx := &index.Index{
		Vectors: [][]float32{
			{0, 1, 0},
			{1, 0.2, 0},
			{0.5, 0.5, 0.5},
		},
		Meta: []index.Meta{
			{ID: "room1", Type: "room", Path: "room/room1.json", Title: "room: Area A", Breadcrumb: "project: Demo > room: Area A"},
			{ID: "item1", Type: "item", Path: "item/item1.json", Title: "item: Sofa", Breadcrumb: "project: Demo > item: Sofa"},
			{ID: "item2", Type: "item", Path: "item/item2.json", Title: "item: Lamp", Breadcrumb: "project: Demo > item: Lamp"},
		},
		Config: index.Config{Count: 3, Dims: 3},
	}
	return idx, store
}

func TestSearchTextRanksByCosine(t *testing.T) {
	idx, store := fixture(t)
	eng := NewEngine(idx, store, &fixedEmbedder{vec: []float32{1, 0, 0}})

	got, err := eng.SearchText(context.Background(), "sofa", 2, nil)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Meta.ID != "item1" {
		t.Errorf("top hit = %s, want item1", got[0].Meta.ID)
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("scores not descending: %v then %v", got[0].Score, got[1].Score)
	}
}

func TestSearchTextCapsK(t *testing.T) {
	idx, store := fixture(t)
	eng := NewEngine(idx, store, &fixedEmbedder{vec: []float32{1, 0, 0}})

	got, err := eng.SearchText(context.Background(), "anything", 50, nil)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d results, want all 3", len(got))
	}
}

func TestTypeFilter(t *testing.T) {
	idx, store := fixture(t)
	eng := NewEngine(idx, store, &fixedEmbedder{vec: []float32{1, 0, 0}})

	got, err := eng.SearchText(context.Background(), "q", 10, &Filter{Types: []string{"room"}})
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if len(got) != 1 || got[0].Meta.ID != "room1" {
		t.Fatalf("type filter got %+v, want only room1", got)
	}
}

func TestTermFilters(t *testing.T) {
	idx, store := fixture(t)
	eng := NewEngine(idx, store, &fixedEmbedder{vec: []float32{1, 0, 0}})

	tests := []struct {
		name  string
		terms []string
		want  []string
	}{
		{"key value on attr", []string{"brand:acme"}, []string{"item1"}},
		{"bare term over values", []string{"lamp"}, []string{"item2"}},
		{"bare term matches title", []string{"area a"}, []string{"room1"}},
		{"and semantics", []string{"type:sofa", "brand:acme"}, []string{"item1"}},
		{"and with miss", []string{"type:sofa", "brand:nope"}, nil},
		{"case insensitive key value", []string{"TYPE:SOFA"}, []string{"item1"}},
		{"empty value requires the key", []string{"brand:"}, []string{"item1"}},
		{"absent key never matches", []string{"sku:123"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eng.SearchText(context.Background(), "q", 10, &Filter{Terms: tt.terms})
			if err != nil {
				t.Fatalf("SearchText: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d results, want %d (%+v)", len(got), len(tt.want), got)
			}
			for i, id := range tt.want {
				if got[i].Meta.ID != id {
					t.Errorf("result %d = %s, want %s", i, got[i].Meta.ID, id)
				}
			}
		})
	}
}

func TestFilterMatchingNothingIsEmptySuccess(t *testing.T) {
	idx, store := fixture(t)
	eng := NewEngine(idx, store, &fixedEmbedder{vec: []float32{1, 0, 0}})

	got, err := eng.SearchText(context.Background(), "q", 10, &Filter{Terms: []string{"no-such-thing"}})
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}

func TestSearchChunkExcludesSeed(t *testing.T) {
	idx, store := fixture(t)
	eng := NewEngine(idx, store, &fixedEmbedder{vec: nil})

	got, err := eng.SearchChunk(context.Background(), "item/item1.json", 10, nil)
	if err != nil {
		t.Fatalf("SearchChunk: %v", err)
	}
	for _, r := range got {
		if r.Meta.ID == "item1" {
			t.Errorf("seed chunk item1 appeared in its own results")
		}
	}
	if len(got) != 2 {
		t.Errorf("got %d results, want 2", len(got))
	}
}

func TestSearchChunkUnknownPath(t *testing.T) {
	idx, store := fixture(t)
	eng := NewEngine(idx, store, &fixedEmbedder{vec: nil})

	if _, err := eng.SearchChunk(context.Background(), "item/missing.json", 5, nil); err == nil {
		t.Fatal("expected error for unindexed chunk path")
	}
}

func TestRetrieveFilterOnly(t *testing.T) {
	idx, store := fixture(t)
	eng := NewEngine(idx, store, nil)

	got := eng.Retrieve(&Filter{Types: []string{"item"}}, 1)
	if len(got) != 1 || got[0].Meta.ID != "item1" {
		t.Fatalf("Retrieve got %+v, want first item in index order", got)
	}
	if got[0].Score != 0 {
		t.Errorf("Retrieve results should be unscored")
	}
}
