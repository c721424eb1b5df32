package cache

import (
	"container/list"
	"sync"
	"time"
)

// VectorCache is an in-memory LRU cache of embedding vectors.
type VectorCache struct {
	mu    sync.Mutex
	items map[string]*list.Element
	lru   *list.List
	cfg   Config
	stats Stats
}

// NewVectorCache creates an LRU vector cache.
func NewVectorCache(cfg Config) *VectorCache {
	return &VectorCache{
		items: make(map[string]*list.Element),
		lru:   list.New(),
		cfg:   cfg,
	}
}

// Get retrieves a vector by key. Returns ErrNotFound if absent or expired.
func (c *VectorCache) Get(key string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, ErrNotFound
	}

	e := elem.Value.(*entry)
	if e.expired() {
		c.removeElement(elem)
		c.stats.Misses++
		return nil, ErrNotFound
	}

	c.lru.MoveToFront(elem)
	c.stats.Hits++
	return e.vector, nil
}

// Set stores a vector. The vector is not copied; callers must not
// mutate it after handing it over.
func (c *VectorCache) Set(key string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(len(key) + 4*len(vector))
	if c.cfg.MaxBytes > 0 && size > c.cfg.MaxBytes {
		// Would never fit; evicting the whole cache for it helps nobody.
		return
	}
	var expiresAt time.Time
	if c.cfg.TTL > 0 {
		expiresAt = time.Now().Add(c.cfg.TTL)
	}

	if elem, ok := c.items[key]; ok {
		old := elem.Value.(*entry)
		c.stats.SizeBytes += size - old.size
		elem.Value = &entry{key: key, vector: vector, expiresAt: expiresAt, size: size}
		c.lru.MoveToFront(elem)
		c.stats.Sets++
		return
	}

	for c.lru.Len() > 0 && c.needsEviction(size) {
		c.evictOldest()
	}

	elem := c.lru.PushFront(&entry{key: key, vector: vector, expiresAt: expiresAt, size: size})
	c.items[key] = elem
	c.stats.Size++
	c.stats.SizeBytes += size
	c.stats.Sets++
}

// Stats returns a snapshot of the counters.
func (c *VectorCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *VectorCache) needsEviction(additional int64) bool {
	if c.cfg.MaxEntries > 0 && c.stats.Size >= c.cfg.MaxEntries {
		return true
	}
	if c.cfg.MaxBytes > 0 && c.stats.SizeBytes+additional > c.cfg.MaxBytes {
		return true
	}
	return false
}

func (c *VectorCache) evictOldest() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	c.removeElement(elem)
	c.stats.Evictions++
}

func (c *VectorCache) removeElement(elem *list.Element) {
	e := elem.Value.(*entry)
	delete(c.items, e.key)
	c.lru.Remove(elem)
	c.stats.Size--
	c.stats.SizeBytes -= e.size
}
