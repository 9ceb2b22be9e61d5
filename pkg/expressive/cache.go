package expressive

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rendis/expressive/internal/symbols"
)

// DefaultCacheSize bounds a Cache created with a non-positive size.
const DefaultCacheSize = 256

// Cache memoizes predicates per schema identity, engine symbols and
// expression text. It
// serializes parses on its engine and is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	engine  *Engine
	entries *lru.Cache[string, *Predicate]

	hits, misses uint64
}

// NewCache creates a cache holding up to size predicates.
func NewCache(engine *Engine, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *Predicate](size)
	if err != nil {
		return nil, fmt.Errorf("create predicate cache: %w", err)
	}
	return &Cache{engine: engine, entries: entries}, nil
}

// GetOrCompile returns the cached predicate for text under s, compiling it
// on a miss. Failed compilations are not cached.
func (c *Cache) GetOrCompile(s symbols.Schema, text string) (*Predicate, error) {
	key := s.ID() + "\x00" + c.engine.table.Digest() + "\x00" + text

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.entries.Get(key); ok {
		c.hits++
		return p, nil
	}
	c.misses++

	p, err := c.engine.Parse(s, text)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, p)
	return p, nil
}

// Len returns the number of cached predicates.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached predicate.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
