package script

import (
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/inful/mdfp"
)

// Cache holds compiled templates keyed by CacheKey. groupcache's lru is
// not goroutine-safe, so every access takes the mutex.
//
// Clear bumps a generation counter; Add ignores entries whose compilation
// started before the most recent Clear.
type Cache struct {
	mu         sync.Mutex
	lru        *lru.Cache
	generation uint64
}

// NewCache creates a cache bounded to maxEntries; zero or negative is unbounded.
func NewCache(maxEntries int) *Cache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Cache{lru: lru.New(maxEntries)}
}

// CacheKey identifies a compiled unit by file path and a fingerprint of its
// translated source.
func CacheKey(path, source string) string {
	return path + "@" + mdfp.CalculateFingerprintFromParts("", source)
}

// Get returns the cached template for key.
func (c *Cache) Get(key string) (*Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Template), true
}

// Generation returns the current clear generation.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Add stores t under key unless the cache was cleared after gen was read.
func (c *Cache) Add(key string, t *Template, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.lru.Add(key, t)
	return true
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
	c.generation++
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
