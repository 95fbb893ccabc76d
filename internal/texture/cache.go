package texture

import (
	"image"
	"path/filepath"
	"sync"
)

// Cache is a concurrency-safe texture cache keyed by cleaned path.
// Failed loads are cached too, so a bad file is read once.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]*cacheEntry)}
}

// Get returns the decoded texture at path, loading it on first use.
func (c *Cache) Get(path string) (*image.NRGBA, error) {
	key := filepath.Clean(path)

	// Fast path: read lock
	c.mu.RLock()
	if entry, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return entry.img, entry.err
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	img, err := Load(key)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.items[key]; ok {
		return entry.img, entry.err
	}
	c.items[key] = &cacheEntry{img: img, err: err}
	return img, err
}

// Len returns the number of cached paths.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
