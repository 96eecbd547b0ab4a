package source

import (
	"context"
	"sync"

	apperrors "github.com/kbukum/ledgerflow/errors"
)

// Buffer is a FIFO queue with an optional capacity and a terminal stop
// flag. Push blocks while the buffer is full; Next blocks while it is
// empty and not stopped. Once stopped, pushes are rejected and Next drains
// what is left before reporting end of stream.
type Buffer[T any] struct {
	name     string
	capacity int

	mu      sync.Mutex
	items   []T
	stopped bool
	changed chan struct{}
}

// NewBuffer creates a buffer. A capacity <= 0 means unbounded.
func NewBuffer[T any](name string, capacity int) *Buffer[T] {
	return &Buffer[T]{
		name:     name,
		capacity: capacity,
		changed:  make(chan struct{}),
	}
}

// broadcast wakes every waiter. Callers must hold mu.
func (b *Buffer[T]) broadcast() {
	close(b.changed)
	b.changed = make(chan struct{})
}

// Push appends v, waiting for room when the buffer is full.
func (b *Buffer[T]) Push(ctx context.Context, v T) error {
	b.mu.Lock()
	for {
		if b.stopped {
			b.mu.Unlock()
			return apperrors.SourceStopped(b.name)
		}
		if b.capacity <= 0 || len(b.items) < b.capacity {
			b.items = append(b.items, v)
			b.broadcast()
			b.mu.Unlock()
			return nil
		}
		wait := b.changed
		b.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
		b.mu.Lock()
	}
}

// Next pops the oldest item. It returns ok=false once the buffer is both
// stopped and empty.
func (b *Buffer[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	b.mu.Lock()
	for {
		if len(b.items) > 0 {
			v := b.items[0]
			b.items[0] = zero
			b.items = b.items[1:]
			b.broadcast()
			b.mu.Unlock()
			return v, true, nil
		}
		if b.stopped {
			b.mu.Unlock()
			return zero, false, nil
		}
		wait := b.changed
		b.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return zero, false, ctx.Err()
		}
		b.mu.Lock()
	}
}

// Stop sets the terminal flag. It is safe to call more than once.
func (b *Buffer[T]) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	b.broadcast()
}

// Stopped reports whether Stop was called.
func (b *Buffer[T]) Stopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Name returns the buffer name.
func (b *Buffer[T]) Name() string {
	return b.name
}
