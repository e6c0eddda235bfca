// Package lazy defers building expensive values until first use
package lazy

import (
	"context"
	"sync"
)

// Loader builds the value
type Loader[T any] func(ctx context.Context) (T, error)

// Value holds a value built on first Get. A successful load is kept; a
// failed one is not, so the next Get tries again.
type Value[T any] struct {
	mu     sync.Mutex
	loader Loader[T]
	value  T
	loaded bool
}

// New creates a value that runs loader on first use
func New[T any](loader Loader[T]) *Value[T] {
	return &Value[T]{loader: loader}
}

// Get returns the value, loading it if needed. Concurrent callers wait
// for a single load.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.loaded {
		return v.value, nil
	}

	value, err := v.loader(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	v.value, v.loaded = value, true
	return value, nil
}

// Loaded reports whether a load has succeeded
func (v *Value[T]) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Reset drops the value so the next Get loads again
func (v *Value[T]) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	var zero T
	v.value, v.loaded = zero, false
}
