package geo

import (
	"sync"
	"time"
)

const (
	defaultCacheTTL     = 30 * time.Minute
	defaultCacheMaxSize = 100
)

type cacheEntry struct {
	address   string
	expiresAt time.Time
}

// addressCache is a bounded TTL cache for reverse-geocoded addresses
// keyed by rounded coordinates. Saving several places at the same spot
// should not re-query the API.
type addressCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

func newAddressCache(ttl time.Duration, maxSize int) *addressCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = defaultCacheMaxSize
	}
	return &addressCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (c *addressCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return "", false
	}
	return entry.address, true
}

func (c *addressCache) put(key, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{
		address:   address,
		expiresAt: c.now().Add(c.ttl),
	}
}

// evictLocked drops expired entries first; if the cache is still full,
// it drops the entry closest to expiry.
func (c *addressCache) evictLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) < c.maxSize {
		return
	}

	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

func (c *addressCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
