package crm

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Cache is a byte-oriented key/value backend for the query store.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheEntry is one stored value. A zero ExpiresAt never expires. Version lets a
// reader tell which write produced the data.
type CacheEntry struct {
	Data      []byte    `json:"data"`
	Version   uint64    `json:"version,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// CacheStats counts cache traffic.
type CacheStats struct {
	Hits      int64 `json:"hits"      yaml:"hits"`
	Misses    int64 `json:"misses"    yaml:"misses"`
	Sets      int64 `json:"sets"      yaml:"sets"`
	Evictions int64 `json:"evictions" yaml:"evictions"`
}

// GetHitRate returns hits / (hits + misses), or 0 when nothing was read.
func (s *CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

type memoryItem struct {
	key   string
	entry *CacheEntry
}

// MemoryCache is a size-bounded LRU cache.
type MemoryCache struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List
	items   map[string]*list.Element
	stats   CacheStats
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1
	}

	return &MemoryCache{
		maxSize: maxSize,
		order:   list.New(),
		items:   make(map[string]*list.Element),
	}
}

// Get returns a copy of the entry stored under key.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.items[key]
	if !ok {
		c.stats.Misses++

		return nil, ErrKeyNotFound
	}

	item, _ := element.Value.(*memoryItem)
	if item.entry.Expired(time.Now()) {
		c.removeElement(element)
		c.stats.Misses++

		return nil, ErrEntryExpired
	}

	c.order.MoveToFront(element)
	c.stats.Hits++

	return cloneEntry(item.entry), nil
}

// Set stores a copy of entry, evicting the least recently used entry when full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Sets++

	if element, ok := c.items[key]; ok {
		item, _ := element.Value.(*memoryItem)
		item.entry = cloneEntry(entry)
		c.order.MoveToFront(element)

		return nil
	}

	for c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}

		c.removeElement(oldest)
		c.stats.Evictions++
	}

	c.items[key] = c.order.PushFront(&memoryItem{key: key, entry: cloneEntry(entry)})

	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.items[key]; ok {
		c.removeElement(element)
	}

	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)

	return nil
}

// Has reports whether a live entry exists for key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.items[key]
	if !ok {
		return false
	}

	item, _ := element.Value.(*memoryItem)

	return !item.entry.Expired(time.Now())
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Cleanup drops every expired entry.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	for element := c.order.Back(); element != nil; {
		previous := element.Prev()

		item, _ := element.Value.(*memoryItem)
		if item.entry.Expired(now) {
			c.removeElement(element)
		}

		element = previous
	}
}

// Stats returns a snapshot of the cache counters.
func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats
}

func (c *MemoryCache) removeElement(element *list.Element) {
	item, _ := element.Value.(*memoryItem)
	delete(c.items, item.key)
	c.order.Remove(element)
}

func cloneEntry(entry *CacheEntry) *CacheEntry {
	clone := *entry
	clone.Data = append([]byte(nil), entry.Data...)

	return &clone
}
