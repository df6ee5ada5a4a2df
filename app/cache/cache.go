package cache

import (
	"sync"
	"time"
)

// Entry is one cached registry lookup. The TTL is captured at creation, so
// changing the cache default later never shortens or extends the lifetime of
// entries that already exist.
type Entry struct {
	LatestVersion string
	PublishedAt   *time.Time
	CachedAt      time.Time
	TTLMinutes    int
}

// Expired reports whether the entry has outlived its TTL.
func (e Entry) Expired() bool {
	return time.Since(e.CachedAt) > time.Duration(e.TTLMinutes)*time.Minute
}

// Cache holds the most recent registry lookup per software id. Reads are
// shared, writes exclusive. Expired entries read as absent; they are not
// purged eagerly because Set overwrites them on the next successful fetch.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttlMinutes int
}

func New(ttlMinutes int) *Cache {
	return &Cache{
		entries:    make(map[string]Entry),
		ttlMinutes: ttlMinutes,
	}
}

// Get returns the entry for key, or false when it is missing or expired.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || entry.Expired() {
		return Entry{}, false
	}
	return entry, true
}

// Set stores a fresh entry for key with the current default TTL.
func (c *Cache) Set(key string, latestVersion string, publishedAt *time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{
		LatestVersion: latestVersion,
		PublishedAt:   publishedAt,
		CachedAt:      time.Now(),
		TTLMinutes:    c.ttlMinutes,
	}
}

// Invalidate removes the entry for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
}

// SetTTL changes the default TTL for entries created afterwards. Existing
// entries keep the TTL they were created with.
func (c *Cache) SetTTL(ttlMinutes int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ttlMinutes = ttlMinutes
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
