package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Size returns the current number of items in the cache
	Size() int
}

// Store is a typed, TTL-bound Cache on top of go-cache. Expired items are
// swept by go-cache's janitor every cleanup interval.
type Store[T any] struct {
	c *gocache.Cache
}

var _ Cache[int] = (*Store[int])(nil)

func NewStore[T any](ttl, cleanup time.Duration) *Store[T] {
	return &Store[T]{c: gocache.New(ttl, cleanup)}
}

func (s *Store[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := s.c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func (s *Store[T]) Set(key string, data T) {
	s.c.Set(key, data, gocache.DefaultExpiration)
}

func (s *Store[T]) Delete(key string) {
	s.c.Delete(key)
}

func (s *Store[T]) Size() int {
	return s.c.ItemCount()
}

// Flush drops every item.
func (s *Store[T]) Flush() {
	s.c.Flush()
}

// Memo caches derived values against a version counter. Bumping the
// version invalidates everything computed before it without touching the
// cache; stale items simply age out.
type Memo[T any] struct {
	store *Store[T]
}

func NewMemo[T any](ttl time.Duration) *Memo[T] {
	return &Memo[T]{store: NewStore[T](ttl, 2*ttl)}
}

// Get returns the value for key at version, computing and storing it on a
// miss. Errors from compute are returned and not cached.
func (m *Memo[T]) Get(version uint64, key string, compute func() (T, error)) (T, error) {
	k := fmt.Sprintf("%d:%s", version, key)
	if v, ok := m.store.Get(k); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	m.store.Set(k, v)
	return v, nil
}

func (m *Memo[T]) Size() int {
	return m.store.Size()
}

// Reset drops every memoized value.
func (m *Memo[T]) Reset() {
	m.store.Flush()
}
