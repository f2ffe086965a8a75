// Package cache holds a small generic TTL cache used to avoid repeating
// identical airport lookups within a session.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultLimit bounds the cache when New is given no limit.
const DefaultLimit = 256

// Cache maps string keys to values that expire a fixed TTL after they
// were stored. When clone is set, values are copied on the way in and out
// so callers cannot mutate cached slices.
type Cache[T any] struct {
	lru   *expirable.LRU[string, T]
	clone func(T) T
}

// New builds a cache holding at most limit entries, least recently used
// first out. A non-positive limit uses DefaultLimit.
func New[T any](limit int, ttl time.Duration, clone func(T) T) *Cache[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Cache[T]{
		lru:   expirable.NewLRU[string, T](limit, nil, ttl),
		clone: clone,
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache[T]) Get(key string) (T, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return v, false
	}
	return c.cloneValue(v), true
}

// Set stores value under key.
func (c *Cache[T]) Set(key string, value T) {
	c.lru.Add(key, c.cloneValue(value))
}

// Len reports the number of stored entries.
func (c *Cache[T]) Len() int { return c.lru.Len() }

func (c *Cache[T]) cloneValue(value T) T {
	if c.clone == nil {
		return value
	}
	return c.clone(value)
}
