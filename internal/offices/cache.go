package offices

import (
	"context"
	"sync"
	"time"
)

// DirectoryLoader fetches the office directory from the remote system
type DirectoryLoader func(ctx context.Context) ([]Office, error)

// DirectoryCache keeps recently fetched office directories in memory
type DirectoryCache struct {
	data    map[string]*cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
	cleanup *time.Ticker
	done    chan struct{}

	hits   int64
	misses int64
}

// cacheEntry represents a cache entry with expiration
type cacheEntry struct {
	offices    []Office
	expiration time.Time
}

// CacheStats reports cache usage
type CacheStats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// NewDirectoryCache creates a new directory cache
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	cache := &DirectoryCache{
		data:    make(map[string]*cacheEntry),
		ttl:     ttl,
		cleanup: time.NewTicker(time.Minute),
		done:    make(chan struct{}),
	}

	go cache.cleanupLoop()

	return cache
}

// Get retrieves a fresh directory from the cache
func (c *DirectoryCache) Get(key string) ([]Office, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok || time.Now().After(entry.expiration) {
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.offices, true
}

// Set stores a directory in the cache
func (c *DirectoryCache) Set(key string, offices []Office) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &cacheEntry{
		offices:    append([]Office{}, offices...),
		expiration: time.Now().Add(c.ttl),
	}
}

// Delete removes a directory from the cache
func (c *DirectoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
}

// GetOrLoad returns the cached directory or loads and stores it.
// When loading fails an expired entry is still served so the view degrades
// instead of failing.
func (c *DirectoryCache) GetOrLoad(ctx context.Context, key string, load DirectoryLoader) ([]Office, error) {
	if offices, ok := c.Get(key); ok {
		return offices, nil
	}

	offices, err := load(ctx)
	if err != nil {
		c.mu.RLock()
		stale, ok := c.data[key]
		c.mu.RUnlock()
		if ok {
			return stale.offices, nil
		}
		return nil, err
	}

	c.Set(key, offices)
	return offices, nil
}

// Stats returns cache statistics
func (c *DirectoryCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Size:    len(c.data),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
	}
}

// cleanupLoop periodically removes entries that are far past expiry.
// Recently expired entries are kept as a stale fallback for GetOrLoad.
func (c *DirectoryCache) cleanupLoop() {
	for {
		select {
		case <-c.cleanup.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *DirectoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.ttl)
	for key, entry := range c.data {
		if entry.expiration.Before(cutoff) {
			delete(c.data, key)
		}
	}
}

// Stop stops the cleanup goroutine
func (c *DirectoryCache) Stop() {
	c.cleanup.Stop()
	close(c.done)
}
