package memory

import (
	"sync"

	"github.com/flightpath-labs/notam-interp/internal/domain"
)

// CachedCorrections wraps a correction source with an in-memory LRU
// cache. Correction lookups run once per suspicious endpoint and scan
// the whole store, so repeated codes across a batch of messages are
// worth caching.
type CachedCorrections struct {
	inner domain.CorrectionSource
	cache *lruCache
}

// NewCachedCorrections creates a cache decorator around a correction
// source.
func NewCachedCorrections(inner domain.CorrectionSource, maxEntries int) *CachedCorrections {
	return &CachedCorrections{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *CachedCorrections) LookupCorrection(code string) (string, bool) {
	key := "lookup:" + code
	if corr, ok := c.cache.get(key); ok {
		return corr, true
	}
	corr, ok := c.inner.LookupCorrection(code)
	// Only cache hits, so corrections learned later still apply to
	// codes that used to miss.
	if ok {
		c.cache.put(key, corr)
	}
	return corr, ok
}

func (c *CachedCorrections) CorrectionByFixCode(code string) (string, bool) {
	key := "fix:" + code
	if corr, ok := c.cache.get(key); ok {
		return corr, true
	}
	corr, ok := c.inner.CorrectionByFixCode(code)
	if ok {
		c.cache.put(key, corr)
	}
	return corr, ok
}

// Purge drops every cached correction. Called after the store is
// cleared so stale corrections cannot outlive their entries.
func (c *CachedCorrections) Purge() {
	c.cache.purge()
}

// lruCache is a simple thread-safe LRU cache for correction strings.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value string
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.head = nil
	c.tail = nil
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
