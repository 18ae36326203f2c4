package pattern

import (
	"sync"
	"sync/atomic"
)

// maxCached bounds the cache; editing sessions create many short lived
// configurations.
const maxCached = 512

// Cache memoizes compiled matchers by pattern configuration.
// It is safe for concurrent use.
type Cache struct {
	opts  Options
	items sync.Map // map[string]*Matcher
	size  atomic.Int64
}

// globalCache backs the convenience methods on Pattern.
var globalCache = NewCache(DefaultOptions())

// NewCache creates a cache that compiles with opts.
func NewCache(opts Options) *Cache {
	return &Cache{opts: opts}
}

// Get returns the compiled matcher for p, compiling it on first use.
func (c *Cache) Get(p Pattern) *Matcher {
	key := p.key()
	if m, ok := c.items.Load(key); ok {
		return m.(*Matcher)
	}

	if c.size.Load() >= maxCached {
		c.Clear()
	}
	m := p.CompileWith(c.opts)
	actual, loaded := c.items.LoadOrStore(key, m)
	if !loaded {
		c.size.Add(1)
	}
	return actual.(*Matcher)
}

// Len returns the approximate number of cached matchers.
func (c *Cache) Len() int {
	return int(c.size.Load())
}

// Clear drops every cached matcher.
func (c *Cache) Clear() {
	c.items.Range(func(k, _ any) bool {
		c.items.Delete(k)
		return true
	})
	c.size.Store(0)
}

func cached(p Pattern) *Matcher {
	return globalCache.Get(p)
}
