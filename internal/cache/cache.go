// Package cache provides the in-memory response cache for the kiosk.
// Entries are keyed by a fingerprint of the normalized query plus the
// recent conversation context, expire after a TTL, and are evicted
// oldest-first when the cache reaches capacity.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// Entry represents a cached response
type Entry struct {
	Response  string
	CreatedAt time.Time
	Hits      int
}

// Stats represents cache performance statistics
type Stats struct {
	Size      int     `json:"size"`
	TotalHits int     `json:"total_hits"`
	HitRate   float64 `json:"hit_rate"`
}

// Cache is a TTL and capacity bounded response cache
type Cache struct {
	ttl     time.Duration
	maxSize int
	entries map[string]*Entry
	mu      sync.Mutex
	now     func() time.Time
}

// New creates a new cache with the given TTL and maximum size
func New(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Key computes the cache fingerprint for a query and context
func Key(query, context string) string {
	combined := strings.ToLower(strings.TrimSpace(query)) + context
	sum := md5.Sum([]byte(combined))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached response for the query and context, if present
// and not expired. Expired entries are evicted on the spot.
func (c *Cache) Get(query, context string) (string, bool) {
	key := Key(query, context)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.CreatedAt) >= c.ttl {
		delete(c.entries, key)
		return "", false
	}
	entry.Hits++
	return entry.Response, true
}

// Set stores a response. When the cache is at capacity the entry with the
// oldest creation time is evicted first.
func (c *Cache) Set(query, response, context string) {
	key := Key(query, context)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = &Entry{
		Response:  response,
		CreatedAt: c.now(),
	}
}

// evictOldest removes the single entry with the oldest creation time.
// Caller must hold the lock.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.CreatedAt.Before(oldest) {
			oldestKey = key
			oldest = entry.CreatedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Stats returns cache performance statistics
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	totalHits := 0
	for _, entry := range c.entries {
		totalHits += entry.Hits
	}
	size := len(c.entries)
	denom := size
	if denom < 1 {
		denom = 1
	}
	return Stats{
		Size:      size,
		TotalHits: totalHits,
		HitRate:   float64(totalHits) / float64(denom),
	}
}
