package retailsql

import (
	"context"
	"sync"
	"sync/atomic"
)

// Once memoizes the first result of a loader, value and error alike, for the
// lifetime of the process. Later calls return the same result whatever context
// they pass.
type Once[T any] struct {
	once   sync.Once
	load   func(context.Context) (T, error)
	value  T
	err    error
	loaded atomic.Bool
}

// NewOnce wraps load
func NewOnce[T any](load func(context.Context) (T, error)) *Once[T] {
	return &Once[T]{load: load}
}

// Get runs the loader on the first call and returns its memoized result
func (o *Once[T]) Get(ctx context.Context) (T, error) {
	o.once.Do(func() {
		o.value, o.err = o.load(ctx)
		o.loaded.Store(true)
	})
	return o.value, o.err
}

// Loaded reports whether the loader has finished
func (o *Once[T]) Loaded() bool {
	return o.loaded.Load()
}
