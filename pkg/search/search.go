// Package search ranks indexed chunks by cosine similarity and
// evaluates metadata filters. Filtering happens before ranking: only
// candidates passing every filter are scored.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/floorgraph/floorgraph/pkg/chunk"
	"github.com/floorgraph/floorgraph/pkg/index"
	"github.com/floorgraph/floorgraph/pkg/vectormath"
)

// Embedder converts query text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Filter restricts search candidates. Types is a level whitelist (empty
// = all levels). Terms are substring filters, ANDed together: a bare
// term matches any attribute value, title, or breadcrumb; "key:value"
// requires the named attribute to contain the value. All matching is
// case-insensitive. There is no OR or NOT.
type Filter struct {
	Types []string
	Terms []string
}

// Empty reports whether the filter passes everything.
func (f *Filter) Empty() bool {
	return f == nil || (len(f.Types) == 0 && len(f.Terms) == 0)
}

func (f *Filter) needsAttrs() bool {
	return f != nil && len(f.Terms) > 0
}

// Matches evaluates the filter against one metadata row and the
// chunk's flattened attributes.
func (f *Filter) Matches(m index.Meta, attrs map[string]string) bool {
	if f == nil {
		return true
	}
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if m.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.Terms) == 0 {
		return true
	}

	hay := make(map[string]string, len(attrs)+2)
	for k, v := range attrs {
		hay[strings.ToLower(k)] = strings.ToLower(v)
	}
	hay["_title"] = strings.ToLower(m.Title)
	hay["_breadcrumb"] = strings.ToLower(m.Breadcrumb)

	for _, spec := range f.Terms {
		if !strings.Contains(spec, ":") {
			needle := strings.ToLower(strings.TrimSpace(spec))
			found := false
			for _, v := range hay {
				if strings.Contains(v, needle) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			continue
		}

		key, value, _ := strings.Cut(spec, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.ToLower(strings.TrimSpace(value))
		// The key itself must be present; "brand:" matches any chunk
		// that carries a brand at all.
		v, ok := hay[key]
		if !ok || !strings.Contains(v, value) {
			return false
		}
	}
	return true
}

// Result is one ranked hit.
type Result struct {
	Meta  index.Meta
	Score float32
}

// Engine runs similarity and filter queries over a loaded index.
type Engine struct {
	idx      *index.Index
	store    *chunk.Store
	embedder Embedder
}

// NewEngine creates a search engine over a loaded index.
func NewEngine(idx *index.Index, store *chunk.Store, embedder Embedder) *Engine {
	return &Engine{idx: idx, store: store, embedder: embedder}
}

// SearchText embeds a free-text query and returns the top-k filtered
// hits. A filter matching nothing yields an empty, successful result;
// k is silently capped to the candidate count.
func (e *Engine) SearchText(ctx context.Context, text string, k int, f *Filter) ([]Result, error) {
	query, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return e.rank(query, k, f, -1), nil
}

// SearchChunk ranks chunks similar to an already-indexed chunk,
// identified by its store-relative path. The seed chunk itself is
// excluded from the results.
func (e *Engine) SearchChunk(ctx context.Context, rel string, k int, f *Filter) ([]Result, error) {
	seed := -1
	for i, m := range e.idx.Meta {
		if m.Path == rel {
			seed = i
			break
		}
	}
	if seed < 0 {
		return nil, fmt.Errorf("chunk %s is not in the index", rel)
	}
	return e.rank(e.idx.Vectors[seed], k, f, seed), nil
}

// Retrieve returns up to limit metadata rows passing the filter, in
// index order, without similarity ranking.
func (e *Engine) Retrieve(f *Filter, limit int) []Result {
	candidates := e.candidates(f)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]Result, 0, len(candidates))
	for _, i := range candidates {
		out = append(out, Result{Meta: e.idx.Meta[i]})
	}
	return out
}

// rank scores the filtered candidate set and returns the top k.
// exclude removes one index position (the seed chunk), -1 for none.
func (e *Engine) rank(query []float32, k int, f *Filter, exclude int) []Result {
	candidates := e.candidates(f)
	if exclude >= 0 {
		trimmed := candidates[:0]
		for _, i := range candidates {
			if i != exclude {
				trimmed = append(trimmed, i)
			}
		}
		candidates = trimmed
	}
	if len(candidates) == 0 {
		return nil
	}

	rows := make([][]float32, len(candidates))
	for i, c := range candidates {
		rows[i] = e.idx.Vectors[c]
	}
	scores := vectormath.CosineScores(query, rows)

	out := make([]Result, 0, k)
	for _, i := range vectormath.TopK(scores, k) {
		out = append(out, Result{Meta: e.idx.Meta[candidates[i]], Score: scores[i]})
	}
	return out
}

// candidates returns the index positions passing the filter. Chunk
// attributes are only loaded when a term filter needs them; chunks
// whose file cannot be read fail attribute filters.
func (e *Engine) candidates(f *Filter) []int {
	out := make([]int, 0, len(e.idx.Meta))
	for i, m := range e.idx.Meta {
		var attrs map[string]string
		if f.needsAttrs() {
			if c, err := e.store.ReadRel(m.Path); err == nil {
				attrs = c.AttrStrings()
			}
		}
		if f.Matches(m, attrs) {
			out = append(out, i)
		}
	}
	return out
}
