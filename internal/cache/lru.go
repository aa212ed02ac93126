// Package cache memoises extraction results keyed by text digest. The
// in-process LRU serves single nodes and is the first tier of TwoPhaseCache.
package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opensource-finance/tradescan/internal/domain"
)

const defaultLRUSize = 1000

// LRUCache bounds memory by entry count and evicts the least recently read
// entry first. A non-positive ttl on Set stores an entry that never expires.
type LRUCache struct {
	capacity int

	mu    sync.Mutex
	index map[string]*list.Element
	lru   *list.List // front is most recent

	hits   atomic.Uint64
	misses atomic.Uint64
}

type lruEntry struct {
	key     string
	value   []byte
	expires time.Time // zero means no expiry
}

func (e *lruEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

var _ domain.Cache = (*LRUCache)(nil)

// NewLRUCache returns a cache holding at most capacity entries.
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = defaultLRUSize
	}
	return &LRUCache{
		capacity: capacity,
		index:    make(map[string]*list.Element, capacity),
		lru:      list.New(),
	}
}

// Get returns nil, nil on a miss or an expired entry.
func (c *LRUCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if !ok {
		c.misses.Add(1)
		return nil, nil
	}
	e := el.Value.(*lruEntry)
	if e.expired(time.Now()) {
		c.drop(el)
		c.misses.Add(1)
		return nil, nil
	}
	c.lru.MoveToFront(el)
	c.hits.Add(1)
	return e.value, nil
}

// Set inserts or refreshes key, evicting from the cold end when full.
func (c *LRUCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		e := el.Value.(*lruEntry)
		e.value, e.expires = value, expires
		c.lru.MoveToFront(el)
		return nil
	}

	c.index[key] = c.lru.PushFront(&lruEntry{key: key, value: value, expires: expires})
	for c.lru.Len() > c.capacity {
		c.drop(c.lru.Back())
	}
	return nil
}

// Delete removes key if present.
func (c *LRUCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	if el, ok := c.index[key]; ok {
		c.drop(el)
	}
	c.mu.Unlock()
	return nil
}

// GetExtraction returns the cached extract_core result for digest.
func (c *LRUCache) GetExtraction(ctx context.Context, digest string) (*domain.CoreResult, error) {
	data, _ := c.Get(ctx, extractionKey(digest))
	if data == nil {
		return nil, nil
	}
	return decodeExtraction(data)
}

// SetExtraction stores res under digest.
func (c *LRUCache) SetExtraction(ctx context.Context, digest string, res *domain.CoreResult, ttl time.Duration) error {
	data, err := encodeExtraction(res)
	if err != nil {
		return err
	}
	return c.Set(ctx, extractionKey(digest), data, ttl)
}

// Ping always succeeds.
func (c *LRUCache) Ping(context.Context) error { return nil }

// Close empties the cache. It stays usable afterwards.
func (c *LRUCache) Close() error {
	c.mu.Lock()
	c.index = make(map[string]*list.Element, c.capacity)
	c.lru.Init()
	c.mu.Unlock()
	return nil
}

// Stats reports the current entry count and the capacity.
func (c *LRUCache) Stats() (size int, capacity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len(), c.capacity
}

// HitRatio reports lookups since creation.
func (c *LRUCache) HitRatio() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LRUCache) drop(el *list.Element) {
	if el == nil {
		return
	}
	c.lru.Remove(el)
	delete(c.index, el.Value.(*lruEntry).key)
}
