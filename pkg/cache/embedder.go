package cache

import "context"

// Embedder is the embedding client the wrapper fronts.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedModel() string
}

// CachedEmbedder serves embeddings from the cache and falls through
// to the wrapped client on a miss.
type CachedEmbedder struct {
	inner Embedder
	cache *VectorCache
}

// WrapEmbedder puts a vector cache in front of an embedding client.
func WrapEmbedder(inner Embedder, cfg Config) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		cache: NewVectorCache(cfg),
	}
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Key(e.inner.EmbedModel(), text)
	if vec, err := e.cache.Get(key); err == nil {
		return vec, nil
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(key, vec)
	return vec, nil
}

func (e *CachedEmbedder) EmbedModel() string {
	return e.inner.EmbedModel()
}

// Stats exposes the underlying cache counters.
func (e *CachedEmbedder) Stats() Stats {
	return e.cache.Stats()
}
