package compare

import (
	"context"
	"fmt"

	"github.com/floorgraph/floorgraph/pkg/chunk"
	"github.com/floorgraph/floorgraph/pkg/vectormath"
)

// Embedder converts text into a vector for cosine scoring.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is an optional extension; when the embedder supports
// it, both summaries go out in a single batched call.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Comparison is the full report for two chunks or two projects.
type Comparison struct {
	ARel   string `json:"a_rel"`
	BRel   string `json:"b_rel"`
	ATitle string `json:"a_title"`
	BTitle string `json:"b_title"`

	// Cosine of the two summary embeddings; zero when no embedder
	// was available.
	Cosine float64 `json:"cosine"`

	Exact   Overlap `json:"exact"`
	AggA    Rollup  `json:"agg_a"`
	AggB    Rollup  `json:"agg_b"`
	Relaxed Relaxed `json:"relaxed"`
}

// CompareChunks builds the comparison report for any two chunks.
// Item signatures come from room links, so non-room chunks contribute
// empty signature sets; the summary cosine applies at every level.
// The embedder may be nil; the cosine score is then omitted.
func CompareChunks(ctx context.Context, s *chunk.Store, embedder Embedder, a, b chunk.StoredChunk) (*Comparison, error) {
	sigsA := RoomSignatures(s, a.Chunk)
	sigsB := RoomSignatures(s, b.Chunk)

	c := &Comparison{
		ARel:    a.Rel,
		BRel:    b.Rel,
		ATitle:  a.Chunk.Title(),
		BTitle:  b.Chunk.Title(),
		Exact:   ExactOverlap(sigsA, sigsB),
		AggA:    Aggregate(sigsA),
		AggB:    Aggregate(sigsB),
		Relaxed: RelaxedOverlap(sigsA, sigsB),
	}
	if embedder != nil {
		cos, err := SummaryCosine(ctx, embedder, a.Chunk, b.Chunk)
		if err != nil {
			return nil, err
		}
		c.Cosine = cos
	}
	return c, nil
}

// CompareProjects compares the unioned room signatures of two project
// chunks using the same overlap machinery.
func CompareProjects(ctx context.Context, s *chunk.Store, embedder Embedder, a, b *chunk.Chunk) (*Comparison, error) {
	sigsA, err := ProjectSignatures(s, a)
	if err != nil {
		return nil, err
	}
	sigsB, err := ProjectSignatures(s, b)
	if err != nil {
		return nil, err
	}

	c := &Comparison{
		ARel:    chunk.RelPath(chunk.LevelProject, a.ID),
		BRel:    chunk.RelPath(chunk.LevelProject, b.ID),
		ATitle:  a.Title(),
		BTitle:  b.Title(),
		Exact:   ExactOverlap(sigsA, sigsB),
		AggA:    Aggregate(sigsA),
		AggB:    Aggregate(sigsB),
		Relaxed: RelaxedOverlap(sigsA, sigsB),
	}
	if embedder != nil {
		cos, err := SummaryCosine(ctx, embedder, a, b)
		if err != nil {
			return nil, err
		}
		c.Cosine = cos
	}
	return c, nil
}

// SummaryCosine embeds both chunks' summary texts and returns their
// cosine similarity. Embedders that implement BatchEmbedder get one
// batched call instead of two.
func SummaryCosine(ctx context.Context, embedder Embedder, a, b *chunk.Chunk) (float64, error) {
	if batcher, ok := embedder.(BatchEmbedder); ok {
		vecs, err := batcher.EmbedBatch(ctx, []string{a.SummaryText, b.SummaryText})
		if err != nil {
			return 0, fmt.Errorf("failed to embed %s, %s: %w", a.ID, b.ID, err)
		}
		if len(vecs) != 2 {
			return 0, fmt.Errorf("embed batch returned %d vectors, want 2", len(vecs))
		}
		return float64(vectormath.CosineScores(vecs[0], [][]float32{vecs[1]})[0]), nil
	}
	va, err := embedder.Embed(ctx, a.SummaryText)
	if err != nil {
		return 0, fmt.Errorf("failed to embed %s: %w", a.ID, err)
	}
	vb, err := embedder.Embed(ctx, b.SummaryText)
	if err != nil {
		return 0, fmt.Errorf("failed to embed %s: %w", b.ID, err)
	}
	return float64(vectormath.CosineScores(va, [][]float32{vb})[0]), nil
}
