package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache evicts by recency once maxSize is reached and drops entries whose
// TTL has passed. Set refreshes an entry's TTL.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

// NewLRUCache creates a new LRU cache with TTL
func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

// Get retrieves a live value and marks it most recently used
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}
	item := elem.Value.(*cacheItem[T])
	if c.now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}
	c.lru.MoveToFront(elem)
	return item.data, true
}

// Set stores a value, evicting the least recently used entry when full
func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{key: key, data: data, expiresAt: c.now().Add(c.ttl)}
	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}
	c.items[key] = c.lru.PushFront(item)

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// Delete removes a key from the cache
func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
}

func (c *LRUCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries and returns how many were dropped
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*cacheItem[T]).expiresAt) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

// Size returns the current number of items in the cache
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
