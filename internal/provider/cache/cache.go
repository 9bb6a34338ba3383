package cache

import (
	"sync"
	"time"
)

// Entry is a cached price together with the time it was fetched upstream.
type Entry struct {
	Price     float64
	FetchedAt time.Time
}

// Cache holds the last fetched price per symbol. An entry is fresh while
// now - FetchedAt < TTL; stale entries are ignored by Get and overwritten by
// the next Put. Callers pass the current time so tests control the clock.
type Cache struct {
	TTL      time.Duration
	MaxItems int // 0 means unbounded

	mu    sync.RWMutex
	items map[string]Entry // key: symbol
}

func New(ttl time.Duration, maxItems int) *Cache {
	return &Cache{TTL: ttl, MaxItems: maxItems, items: make(map[string]Entry)}
}

// Get returns the entry for symbol if it is still fresh at now.
func (c *Cache) Get(symbol string, now time.Time) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.items[symbol]
	c.mu.RUnlock()
	if !ok || !c.fresh(e, now) {
		return Entry{}, false
	}
	return e, true
}

// Put stores e for symbol, replacing any previous entry. When the cache is
// full, stale entries go first, then the oldest fetches.
func (c *Cache) Put(symbol string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string]Entry)
	}
	if _, exists := c.items[symbol]; !exists && c.MaxItems > 0 && len(c.items) >= c.MaxItems {
		c.evictLocked(e.FetchedAt)
	}
	c.items[symbol] = e
}

// Sweep deletes every entry that is stale at now and reports how many went.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.items {
		if !c.fresh(e, now) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) fresh(e Entry, now time.Time) bool {
	return now.Sub(e.FetchedAt) < c.TTL
}

// evictLocked makes room for one more entry. Caller holds c.mu.
func (c *Cache) evictLocked(now time.Time) {
	for k, e := range c.items {
		if !c.fresh(e, now) {
			delete(c.items, k)
		}
	}
	for len(c.items) >= c.MaxItems {
		var oldestKey string
		var oldest time.Time
		first := true
		for k, e := range c.items {
			if first || e.FetchedAt.Before(oldest) {
				oldestKey, oldest, first = k, e.FetchedAt, false
			}
		}
		delete(c.items, oldestKey)
	}
}
