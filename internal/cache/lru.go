package cache

import (
	"container/list"
	"sync"
)

// LRU is a size-bounded least-recently-used cache.
type LRU[T any] struct {
	mu      sync.Mutex
	limit   int
	index   map[string]*list.Element
	order   *list.List
	onEvict func(key string)
}

type lruEntry[T any] struct {
	key   string
	value T
}

var _ Cache[int] = (*LRU[int])(nil)

// NewLRU builds a cache holding at most limit entries. A limit below one is
// treated as one.
func NewLRU[T any](limit int) *LRU[T] {
	if limit < 1 {
		limit = 1
	}
	return &LRU[T]{
		limit: limit,
		index: make(map[string]*list.Element),
		order: list.New(),
	}
}

// OnEvict registers a callback run (under the cache lock) whenever an entry
// is dropped for space.
func (c *LRU[T]) OnEvict(fn func(key string)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*lruEntry[T]).value, true
}

// GetOrSet returns the cached value for key, computing and storing it with
// fn when absent. fn runs under the cache lock and must not call back into
// the cache.
func (c *LRU[T]) GetOrSet(key string, fn func() T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*lruEntry[T]).value
	}
	v := fn()
	c.insert(key, v)
	return v
}

func (c *LRU[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		elem.Value.(*lruEntry[T]).value = data
		c.order.MoveToFront(elem)
		return
	}
	c.insert(key, data)
}

func (c *LRU[T]) insert(key string, data T) {
	c.index[key] = c.order.PushFront(&lruEntry[T]{key: key, value: data})
	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.drop(oldest)
		if c.onEvict != nil {
			c.onEvict(oldest.Value.(*lruEntry[T]).key)
		}
	}
}

func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.index[key]; ok {
		c.drop(elem)
	}
}

func (c *LRU[T]) drop(elem *list.Element) {
	delete(c.index, elem.Value.(*lruEntry[T]).key)
	c.order.Remove(elem)
}

func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}
