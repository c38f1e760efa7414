// Package cache holds small in-process caches used to memoize derived values.
package cache

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Purge removes every entry
	Purge()

	// Size returns the current number of items in the cache
	Size() int
}

// Noop is a Cache that never stores anything
type Noop[T any] struct{}

func (Noop[T]) Get(string) (T, bool) {
	var zero T
	return zero, false
}

func (Noop[T]) Set(string, T) {}
func (Noop[T]) Purge()        {}
func (Noop[T]) Size() int     { return 0 }

// New returns an LRU of maxSize entries, or a Noop when maxSize is not
// positive.
func New[T any](maxSize int) Cache[T] {
	if maxSize <= 0 {
		return Noop[T]{}
	}
	return NewLRUCache[T](maxSize)
}
