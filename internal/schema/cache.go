package schema

import (
	"sync"
	"time"

	"github.com/queryforge/queryforge/internal/domain"
)

// cacheEntry is a cached analysis with its expiry.
type cacheEntry struct {
	analysis  *domain.SchemaAnalysis
	expiresAt time.Time
}

// Cache provides thread-safe caching of index-pattern → analysis mappings
// with a time-based expiry. Expired entries are kept until evicted so
// callers can fall back to stale values when a refresh fails.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	maxSize int
}

// NewCache creates a cache with the given TTL and size bound.
func NewCache(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a fresh value. The second return is false when the entry
// is missing or expired.
func (c *Cache) Get(indexPattern string) (*domain.SchemaAnalysis, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[indexPattern]
	if !exists {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.analysis, true
}

// GetStale retrieves a value regardless of expiry. Used as a fallback
// when a fresh fetch fails.
func (c *Cache) GetStale(indexPattern string) (*domain.SchemaAnalysis, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[indexPattern]
	if !exists {
		return nil, false
	}
	return entry.analysis, true
}

// Put stores a value, evicting when over capacity.
func (c *Cache) Put(indexPattern string, analysis *domain.SchemaAnalysis) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evict()
	}

	c.entries[indexPattern] = &cacheEntry{
		analysis:  analysis,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate removes a single entry.
func (c *Cache) Invalidate(indexPattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, indexPattern)
}

// evict removes expired entries first, then trims 10% if still full.
// Caller must hold the write lock.
func (c *Cache) evict() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}

	if len(c.entries) >= c.maxSize {
		target := c.maxSize / 10
		if target < 1 {
			target = 1
		}
		count := 0
		for key := range c.entries {
			delete(c.entries, key)
			count++
			if count >= target {
				break
			}
		}
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Size returns the current number of entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
