package render

import (
	"container/list"
	"sync"
)

// FilterCache keeps the most recently used compiled filters.
type FilterCache struct {
	capacity int
	mu       sync.Mutex

	cache map[string]*list.Element
	order *list.List // front is most recently used
}

type cachedFilter struct {
	expr   string
	filter *Filter
}

// NewFilterCache creates a cache holding at most capacity filters.
func NewFilterCache(capacity int) *FilterCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &FilterCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Compile returns the compiled filter for expr, compiling it on a miss.
// Expressions that fail to compile are not cached.
func (c *FilterCache) Compile(expr string) (*Filter, error) {
	c.mu.Lock()
	if el, ok := c.cache[expr]; ok {
		c.order.MoveToFront(el)
		f := el.Value.(*cachedFilter).filter
		c.mu.Unlock()
		return f, nil
	}
	c.mu.Unlock()

	f, err := CompileFilter(expr)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.cache[expr]; ok {
		// Compiled concurrently by another caller.
		c.order.MoveToFront(el)
		return el.Value.(*cachedFilter).filter, nil
	}
	for len(c.cache) >= c.capacity {
		c.evictOldest()
	}
	c.cache[expr] = c.order.PushFront(&cachedFilter{expr: expr, filter: f})
	return f, nil
}

// Size returns the number of cached filters.
func (c *FilterCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// evictOldest removes the least recently used filter.
// Must be called with lock held.
func (c *FilterCache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.order.Remove(oldest)
	delete(c.cache, oldest.Value.(*cachedFilter).expr)
}
