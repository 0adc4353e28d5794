package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/ternarybob/specto/internal/models"
)

// Cache holds recent analysis results keyed by input content. Entries
// expire after the TTL; when capacity is exceeded the oldest entry is
// evicted. The clock is injectable so expiry is testable.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

type cacheEntry struct {
	result    *models.AnalysisResult
	expiresAt time.Time
	storedAt  time.Time
}

// NewCache creates a result cache with the given capacity and TTL
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 64
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{
		entries:  make(map[string]cacheEntry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// CacheKey derives a stable key from the analysis inputs
func CacheKey(text, companyName, reportType string) string {
	h := sha256.New()
	h.Write([]byte(companyName))
	h.Write([]byte{0})
	h.Write([]byte(reportType))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached result for a key, or nil if absent or expired
func (c *Cache) Get(key string) *models.AnalysisResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	return entry.result
}

// Put stores a result, evicting the oldest entry at capacity
func (c *Cache) Put(key string, result *models.AnalysisResult) {
	if result == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}

	c.entries[key] = cacheEntry{
		result:    result,
		expiresAt: now.Add(c.ttl),
		storedAt:  now,
	}
}

// Len returns the number of live entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
