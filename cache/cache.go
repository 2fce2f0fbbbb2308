package cache

import (
	"sync"
	"time"

	"github.com/use-agent/pagechat/models"
)

// DefaultTTL is how long an extraction stays servable.
const DefaultTTL = 30 * time.Minute

// entry holds a cached extraction with its creation timestamp.
type entry struct {
	extraction *models.PageExtraction
	storedAt   time.Time
}

// Cache is an in-memory, URL-keyed store of extraction results with a fixed
// time-to-live. It is safe for concurrent use.
//
// Failed extractions are cached like any other result, so a broken URL is
// not retried until its entry expires.
type Cache struct {
	mu         sync.Mutex
	store      map[string]*entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache. A ttl <= 0 falls back to DefaultTTL; maxEntries <= 0
// means unbounded.
func New(ttl time.Duration, maxEntries int, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		store:      make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the extraction stored for url if it is younger than the TTL.
// An expired entry is evicted on lookup.
func (c *Cache) Get(url string) (*models.PageExtraction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store[url]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.store, url)
		return nil, false
	}
	return e.extraction, true
}

// Put stores x under url, overwriting any existing entry. If the cache is at
// capacity the oldest entry is evicted to make room.
func (c *Cache) Put(url string, x *models.PageExtraction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[url]; !exists && c.maxEntries > 0 && len(c.store) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.store[url] = &entry{extraction: x, storedAt: c.now()}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.store {
		if first || e.storedAt.Before(oldest) {
			oldestKey, oldest, first = k, e.storedAt, false
		}
	}
	if !first {
		delete(c.store, oldestKey)
	}
}
