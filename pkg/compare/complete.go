package compare

import (
	"fmt"
	"sort"

	"github.com/floorgraph/floorgraph/pkg/chunk"
)

// virtualSeedID marks a seed room assembled from bare item ids rather
// than loaded from the store.
const virtualSeedID = "__VIRTUAL_SEED__"

// Suggestion is one mined (brand, type) recommendation with a concrete
// example item to cite.
type Suggestion struct {
	Brand           string `json:"brand"`
	Type            string `json:"type"`
	SeenInNeighbors int    `json:"seen_in_neighbors"`
	ExampleName     string `json:"example_name"`
	ExampleItem     string `json:"example_item"`
	ExampleRoom     string `json:"example_room"`
}

// Neighbor is one room that contributed to a completion, with its
// relaxed-overlap score against the seed.
type Neighbor struct {
	Rel         string `json:"path"`
	Title       string `json:"title"`
	SharedPairs int    `json:"shared_pairs"`
	ItemCount   int    `json:"item_count"`
}

// Completion is the result of mining furnishing suggestions for a seed
// room from its most similar neighbors.
type Completion struct {
	SeedTitle   string       `json:"seed"`
	Neighbors   []Neighbor   `json:"neighbors_used"`
	Suggestions []Suggestion `json:"recommendations"`
}

// CompleteConfig bounds the completion search.
type CompleteConfig struct {
	// Neighbors is how many top-overlap rooms to mine. Suggestions is
	// the maximum number of recommendations returned.
	Neighbors   int
	Suggestions int
}

// DefaultCompleteConfig returns the standard completion bounds.
func DefaultCompleteConfig() CompleteConfig {
	return CompleteConfig{Neighbors: 12, Suggestions: 6}
}

// VirtualSeed builds an in-memory seed room from item chunk ids. Ids
// may be given as bare ids or "item/<id>.json" paths; ids without a
// stored chunk are dropped. At least one must survive.
func VirtualSeed(s *chunk.Store, ids []string) (*chunk.Chunk, error) {
	var kept []string
	for _, spec := range ids {
		id := chunk.CoerceID(spec)
		if id == "" {
			continue
		}
		if _, err := s.Read(chunk.LevelItem, id); err != nil {
			continue
		}
		kept = append(kept, id)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("no stored items among %d ids", len(ids))
	}
	return &chunk.Chunk{
		ID:    virtualSeedID,
		Level: chunk.LevelRoom,
		Room: &chunk.RoomAttrs{
			Name:     "Virtual Seed",
			RoomType: "living",
			Items:    kept,
		},
	}, nil
}

type scoredRoom struct {
	rel    string
	room   *chunk.Chunk
	sigs   []Signature
	shared int
}

// Complete mines (brand, type) pairs the seed room lacks from the
// rooms that overlap it most. Suggestions rank by how many neighbors
// carry the pair, ties by type then brand.
func Complete(s *chunk.Store, seed *chunk.Chunk, cfg CompleteConfig) (*Completion, error) {
	def := DefaultCompleteConfig()
	if cfg.Neighbors <= 0 {
		cfg.Neighbors = def.Neighbors
	}
	if cfg.Suggestions <= 0 {
		cfg.Suggestions = def.Suggestions
	}

	seedSigs := RoomSignatures(s, seed)
	seedPairs := make(map[Pair]struct{}, len(seedSigs))
	for _, sig := range seedSigs {
		seedPairs[sig.Pair()] = struct{}{}
	}
	seedRelaxed := make(map[Pair]struct{}, len(seedPairs))
	for p := range seedPairs {
		if !p.empty() {
			seedRelaxed[p] = struct{}{}
		}
	}

	rooms, err := s.Rooms()
	if err != nil {
		return nil, err
	}
	var neighbors []scoredRoom
	for _, r := range rooms {
		if r.Chunk.ID == seed.ID {
			continue
		}
		sigs := RoomSignatures(s, r.Chunk)
		shared := 0
		seen := make(map[Pair]struct{})
		for _, sig := range sigs {
			p := sig.Pair()
			if _, dup := seen[p]; dup || p.empty() {
				continue
			}
			seen[p] = struct{}{}
			if _, ok := seedRelaxed[p]; ok {
				shared++
			}
		}
		if shared > 0 {
			neighbors = append(neighbors, scoredRoom{rel: r.Rel, room: r.Chunk, sigs: sigs, shared: shared})
		}
	}
	// Rooms arrive sorted by path, so ties stay deterministic.
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].shared > neighbors[j].shared
	})
	if len(neighbors) > cfg.Neighbors {
		neighbors = neighbors[:cfg.Neighbors]
	}

	type slot struct {
		count   int
		example *Suggestion
	}
	counts := make(map[Pair]*slot)
	for _, nb := range neighbors {
		for _, sig := range nb.sigs {
			p := sig.Pair()
			if p.empty() {
				continue
			}
			if _, have := seedPairs[p]; have {
				continue
			}
			sl := counts[p]
			if sl == nil {
				sl = &slot{}
				counts[p] = sl
			}
			sl.count++
			if sl.example == nil {
				sl.example = findExample(s, nb, p)
			}
		}
	}

	pairs := make([]Pair, 0, len(counts))
	for p := range counts {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		ci, cj := counts[pairs[i]].count, counts[pairs[j]].count
		if ci != cj {
			return ci > cj
		}
		if pairs[i].Type != pairs[j].Type {
			return pairs[i].Type < pairs[j].Type
		}
		return pairs[i].Brand < pairs[j].Brand
	})
	if len(pairs) > cfg.Suggestions {
		pairs = pairs[:cfg.Suggestions]
	}

	out := &Completion{SeedTitle: seed.Title()}
	for _, nb := range neighbors {
		itemCount := 0
		if nb.room.Room != nil {
			itemCount = len(nb.room.Room.Items)
		}
		out.Neighbors = append(out.Neighbors, Neighbor{
			Rel:         nb.rel,
			Title:       nb.room.Title(),
			SharedPairs: nb.shared,
			ItemCount:   itemCount,
		})
	}
	for _, p := range pairs {
		sl := counts[p]
		sug := Suggestion{Brand: p.Brand, Type: p.Type, SeenInNeighbors: sl.count}
		if sl.example != nil {
			sug.ExampleName = sl.example.ExampleName
			sug.ExampleItem = sl.example.ExampleItem
			sug.ExampleRoom = sl.example.ExampleRoom
		}
		sug.Type = NormalizeCategory(sug.ExampleName, sug.Type)
		out.Suggestions = append(out.Suggestions, sug)
	}
	return out, nil
}

// findExample locates a concrete item in the neighbor room matching
// the pair, for citation.
func findExample(s *chunk.Store, nb scoredRoom, p Pair) *Suggestion {
	if nb.room.Room == nil {
		return nil
	}
	for _, id := range nb.room.Room.Items {
		c, err := s.Read(chunk.LevelItem, id)
		if err != nil || c.Item == nil {
			continue
		}
		sig := ItemSignature(c.Item)
		if sig.Pair() != p {
			continue
		}
		name := c.Item.Name
		if name == "" {
			name = c.Item.Extra["sku"]
		}
		if name == "" {
			name = sig.Type
		}
		if name == "" {
			name = "item"
		}
		return &Suggestion{
			ExampleName: name,
			ExampleItem: chunk.RelPath(chunk.LevelItem, id),
			ExampleRoom: nb.rel,
		}
	}
	return nil
}
