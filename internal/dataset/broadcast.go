package dataset

import (
	"errors"
	"sync"
)

// ErrBroadcastReleased is returned by Value when the handle was released.
var ErrBroadcastReleased = errors.New("broadcast value already released")

// Broadcast is a shared read-only handle to a value that several scoring
// passes may reference. Release is explicit and idempotent: once released,
// Value fails and the payload is dropped for collection.
type Broadcast[T any] struct {
	mu       sync.RWMutex
	value    T
	released bool
}

// NewBroadcast wraps v in a shared handle.
func NewBroadcast[T any](v T) *Broadcast[T] {
	return &Broadcast[T]{value: v}
}

// Value returns the broadcast payload.
func (b *Broadcast[T]) Value() (T, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.released {
		var zero T
		return zero, ErrBroadcastReleased
	}
	return b.value, nil
}

// Release drops the payload. Calling Release on an already-released
// handle is a no-op.
func (b *Broadcast[T]) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil
	}
	var zero T
	b.value = zero
	b.released = true
	return nil
}

// Released reports whether the handle has been released.
func (b *Broadcast[T]) Released() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.released
}
