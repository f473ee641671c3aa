package wiki

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// DefaultSweepInterval is how often expired entries are dropped.
const DefaultSweepInterval = time.Minute

// Cache is a simple in-memory TTL cache
type Cache struct {
	items map[string]*cacheItem
	mu    sync.RWMutex

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

type cacheItem struct {
	value      any
	expiration time.Time
}

// NewCache creates a cache that sweeps expired entries every interval.
// Close stops the sweeper.
func NewCache(interval time.Duration) *Cache {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	c := &Cache{
		items: make(map[string]*cacheItem),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	go c.cleanupLoop(interval)

	return c
}

// Get retrieves a value from cache
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}

	if time.Now().After(item.expiration) {
		return nil, false
	}

	return item.value, true
}

// Set stores a value in cache with TTL. A non-positive ttl is a no-op.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &cacheItem{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
}

// Delete removes a value from cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Purge drops every entry. Used when template rules change.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.items)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Close stops the sweeper and waits for it to exit.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
	<-c.done
}

// cleanupLoop periodically removes expired items
func (c *Cache) cleanupLoop(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiration) {
			delete(c.items, key)
		}
	}
}

// CacheKey generates a cache key for a request
func CacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// ContentCacheKey keys an operation by a hash of its input so large page
// bodies are not kept twice.
func ContentCacheKey(op string, inputs ...string) string {
	h := sha256.New()
	for _, in := range inputs {
		h.Write([]byte(in))
		h.Write([]byte{0})
	}
	return CacheKey(op, hex.EncodeToString(h.Sum(nil)))
}
