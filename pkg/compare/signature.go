// Package compare measures item-level overlap between rooms and
// projects and mines furnishing suggestions from similar rooms. All
// matching works on lowercased (name, brand, type) signatures derived
// from item chunks, so it needs no embeddings except where a cosine
// score is explicitly part of the comparison.
package compare

import (
	"sort"
	"strings"

	"github.com/floorgraph/floorgraph/pkg/chunk"
)

// Signature identifies an item for overlap purposes. All fields are
// lowercased; zero-value fields mean the attribute was absent.
type Signature struct {
	Name  string
	Brand string
	Type  string
}

// Pair is the relaxed form of a signature: brand and type only, so two
// different SKUs of the same kind still match.
type Pair struct {
	Brand string
	Type  string
}

// Pair collapses the signature to its relaxed form.
func (s Signature) Pair() Pair {
	return Pair{Brand: s.Brand, Type: s.Type}
}

func (p Pair) empty() bool {
	return p.Brand == "" && p.Type == ""
}

// ItemSignature derives the overlap signature from one item chunk.
// Brand and type are read from the first populated alias.
func ItemSignature(it *chunk.ItemAttrs) Signature {
	if it == nil {
		return Signature{}
	}
	typ := firstExtra(it.Extra, "type_guess", "category")
	if typ == "" {
		typ = strings.ToLower(strings.TrimSpace(it.Type))
	}
	if typ == "" {
		typ = firstExtra(it.Extra, "class")
	}
	return Signature{
		Name:  strings.ToLower(strings.TrimSpace(it.Name)),
		Brand: firstExtra(it.Extra, "brand", "vendor", "source"),
		Type:  typ,
	}
}

func firstExtra(extra map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(extra[k]); v != "" {
			return strings.ToLower(v)
		}
	}
	return ""
}

// RoomSignatures resolves a room's item links into signatures. Items
// whose chunk file is missing are skipped, not reported; the weak link
// list may outlive item files.
func RoomSignatures(s *chunk.Store, room *chunk.Chunk) []Signature {
	if room.Room == nil {
		return nil
	}
	out := make([]Signature, 0, len(room.Room.Items))
	for _, id := range room.Room.Items {
		c, err := s.Read(chunk.LevelItem, id)
		if err != nil {
			continue
		}
		out = append(out, ItemSignature(c.Item))
	}
	return out
}

// ProjectSignatures unions the signatures of every room belonging to
// the project chunk.
func ProjectSignatures(s *chunk.Store, project *chunk.Chunk) ([]Signature, error) {
	rooms, err := s.Rooms()
	if err != nil {
		return nil, err
	}
	seen := make(map[Signature]struct{})
	var out []Signature
	for _, r := range rooms {
		if r.Chunk.Room == nil || r.Chunk.Room.ProjectID != project.ID {
			continue
		}
		for _, sig := range RoomSignatures(s, r.Chunk) {
			if _, dup := seen[sig]; dup {
				continue
			}
			seen[sig] = struct{}{}
			out = append(out, sig)
		}
	}
	sortSignatures(out)
	return out, nil
}

func sortSignatures(sigs []Signature) {
	sort.Slice(sigs, func(i, j int) bool {
		if sigs[i].Name != sigs[j].Name {
			return sigs[i].Name < sigs[j].Name
		}
		if sigs[i].Brand != sigs[j].Brand {
			return sigs[i].Brand < sigs[j].Brand
		}
		return sigs[i].Type < sigs[j].Type
	})
}
