// Package cache provides an in-memory LRU cache for embedding vectors.
// Re-indexing the same export re-embeds mostly unchanged summaries, so
// caching by content hash avoids repeated round trips to the embedder.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

var ErrNotFound = errors.New("key not found")

// Stats holds cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Evictions int64
	Size      int64
	SizeBytes int64
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Config holds cache limits.
type Config struct {
	// MaxEntries is the maximum number of vectors (0 = unlimited).
	MaxEntries int64

	// MaxBytes is the maximum memory in bytes (0 = unlimited).
	MaxBytes int64

	// TTL expires entries after this duration (0 = never).
	TTL time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxEntries: 10000,
		MaxBytes:   64 * 1024 * 1024, // 64MB
	}
}

// Key derives a cache key from the embed model and the text. Two
// chunks with identical summaries share a vector, which is what we
// want for lookup purposes.
func Key(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

type entry struct {
	key       string
	vector    []float32
	expiresAt time.Time
	size      int64
}

func (e entry) expired() bool {
	if e.expiresAt.IsZero() {
		return false
	}
	return time.Now().After(e.expiresAt)
}
