package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/floorgraph/floorgraph/pkg/chunk"
)

// defaultMaxChars truncates long payloads before embedding.
const defaultMaxChars = 1200

// Embedder converts one text into a vector. Supplied externally; the
// builder never computes vectors itself.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedModel() string
}

// BuilderConfig holds index build settings.
type BuilderConfig struct {
	// MaxChars truncates each embedding payload (0 = default 1200).
	MaxChars int

	// OnEmbed, if set, is called after each text is embedded.
	OnEmbed func(done, total int)
}

// Builder assembles a retrieval index from a chunk store. Texts are
// embedded one call at a time, strictly in store order, so vector row i
// always matches metadata line i.
type Builder struct {
	store    *chunk.Store
	embedder Embedder
	cfg      BuilderConfig
}

// NewBuilder creates an index builder.
func NewBuilder(store *chunk.Store, embedder Embedder, cfg BuilderConfig) *Builder {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = defaultMaxChars
	}
	return &Builder{store: store, embedder: embedder, cfg: cfg}
}

// Build embeds every chunk in the store and writes the index artifacts
// to dir. Returns the number of indexed chunks.
func (b *Builder) Build(ctx context.Context, dir string) (int, error) {
	paths, err := b.store.ListAll()
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 0, fmt.Errorf("no chunk files found under %s", b.store.Root())
	}

	byID, err := b.store.ByID()
	if err != nil {
		return 0, err
	}

	meta := make([]Meta, 0, len(paths))
	texts := make([]string, 0, len(paths))
	for _, rel := range paths {
		c, err := b.store.ReadRel(rel)
		if err != nil {
			return 0, fmt.Errorf("failed to read chunk %s: %w", rel, err)
		}
		crumb := chunk.Breadcrumb(c, byID)
		meta = append(meta, Meta{
			ID:         c.ID,
			Type:       string(c.Level),
			Path:       rel,
			Title:      c.Title(),
			Breadcrumb: crumb,
		})
		texts = append(texts, EmbedText(c, crumb, b.cfg.MaxChars))
	}

	vectors := make([][]float32, 0, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		vec, err := b.embedder.Embed(ctx, t)
		if err != nil {
			return 0, fmt.Errorf("embedding chunk %s (%d/%d): %w", meta[i].ID, i+1, len(texts), err)
		}
		if len(vectors) > 0 && len(vec) != len(vectors[0]) {
			return 0, fmt.Errorf("%w: chunk %s embedded to %d dims, expected %d",
				ErrCorrupt, meta[i].ID, len(vec), len(vectors[0]))
		}
		vectors = append(vectors, vec)
		if b.cfg.OnEmbed != nil {
			b.cfg.OnEmbed(i+1, len(texts))
		}
	}

	if err := Write(dir, vectors, meta, b.store.Root(), b.embedder.EmbedModel()); err != nil {
		return 0, err
	}
	return len(vectors), nil
}

// EmbedText composes the retrieval payload for one chunk: breadcrumb
// trail, summary text, and a few attributes that help keyword recall,
// truncated to maxChars.
func EmbedText(c *chunk.Chunk, crumb string, maxChars int) string {
	parts := []string{"[breadcrumb] " + crumb, c.SummaryText}

	attrs := c.AttrStrings()
	var extras []string
	for _, key := range []string{"name", "type", "room_type", "brand", "color"} {
		if v := attrs[key]; v != "" {
			extras = append(extras, key+": "+v)
		}
	}
	if len(extras) > 0 {
		parts = append(parts, "[attrs] "+strings.Join(extras, " | "))
	}

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars]
	}
	return text
}
