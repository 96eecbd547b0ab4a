package source

import (
	"context"
	"errors"
	"sync"

	"github.com/kbukum/ledgerflow/logger"
)

// DefaultCapacity is the buffer size used when a source config leaves it unset.
const DefaultCapacity = 1000

// Source is a cancellable, pull-based sequence producer.
type Source[T any] interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Start launches population. Calling it again is a no-op.
	Start(ctx context.Context) error
	// Next returns the next value, blocking while none is buffered.
	// It returns (zero, false, err) at end of stream, where err is the
	// population failure, if any.
	Next(ctx context.Context) (T, bool, error)
	// Stop ends the stream once the buffer drains and cancels population.
	Stop()
}

// PopulateFunc fills a source. emit blocks while the buffer is full.
// Returning ends population and stops the source.
type PopulateFunc[T any] func(ctx context.Context, emit func(context.Context, T) error) error

// Base implements Source on top of a Buffer and a population goroutine.
// Concrete sources embed it and supply a PopulateFunc.
type Base[T any] struct {
	buf      *Buffer[T]
	log      *logger.Logger
	populate PopulateFunc[T]

	startOnce sync.Once
	mu        sync.Mutex
	cancel    context.CancelFunc
	err       error
	done      chan struct{}
}

// NewBase creates a Base. A nil populate makes a passive source that is
// only fed through Push.
func NewBase[T any](name string, capacity int, log *logger.Logger, populate PopulateFunc[T]) *Base[T] {
	return &Base[T]{
		buf:      NewBuffer[T](name, capacity),
		log:      logger.OrNop(log).WithFields(logger.Fields(logger.FieldSource, name)),
		populate: populate,
		done:     make(chan struct{}),
	}
}

// Name returns the source name.
func (b *Base[T]) Name() string { return b.buf.Name() }

// Start launches the population goroutine once.
func (b *Base[T]) Start(ctx context.Context) error {
	b.startOnce.Do(func() {
		if b.populate == nil {
			close(b.done)
			return
		}
		popCtx, cancel := context.WithCancel(ctx)
		b.mu.Lock()
		b.cancel = cancel
		b.mu.Unlock()
		if b.buf.Stopped() {
			cancel()
		}
		go b.run(popCtx)
	})
	return nil
}

func (b *Base[T]) run(ctx context.Context) {
	defer close(b.done)
	err := b.populate(ctx, b.buf.Push)
	if err != nil && !b.cancelled(ctx, err) {
		b.log.Error("population failed", logger.Fields(logger.FieldError, err.Error()))
		b.mu.Lock()
		b.err = err
		b.mu.Unlock()
	}
	b.Stop()
}

// cancelled reports whether err is the expected result of a shutdown.
func (b *Base[T]) cancelled(ctx context.Context, err error) bool {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return true
	}
	return b.buf.Stopped()
}

// Next pulls the next buffered value.
func (b *Base[T]) Next(ctx context.Context) (T, bool, error) {
	v, ok, err := b.buf.Next(ctx)
	if ok || err != nil {
		return v, ok, err
	}
	return v, false, b.Err()
}

// Stop sets the stop flag and cancels population.
func (b *Base[T]) Stop() {
	b.buf.Stop()
	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Push feeds the buffer directly.
func (b *Base[T]) Push(ctx context.Context, v T) error {
	return b.buf.Push(ctx, v)
}

// Err returns the population error, if any.
func (b *Base[T]) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Done is closed when population has returned.
func (b *Base[T]) Done() <-chan struct{} { return b.done }

// Len returns the number of buffered values.
func (b *Base[T]) Len() int { return b.buf.Len() }

// FromSlice creates a source that emits items in order and then stops.
func FromSlice[T any](name string, items []T) *Base[T] {
	return NewBase[T](name, 0, nil, func(ctx context.Context, emit func(context.Context, T) error) error {
		for _, it := range items {
			if err := emit(ctx, it); err != nil {
				return err
			}
		}
		return nil
	})
}

// Map adapts a Source[T] into a Source[U].
func Map[T, U any](src Source[T], fn func(T) U) Source[U] {
	return &mapped[T, U]{src: src, fn: fn}
}

type mapped[T, U any] struct {
	src Source[T]
	fn  func(T) U
}

func (m *mapped[T, U]) Name() string                    { return m.src.Name() }
func (m *mapped[T, U]) Start(ctx context.Context) error { return m.src.Start(ctx) }
func (m *mapped[T, U]) Stop()                           { m.src.Stop() }

func (m *mapped[T, U]) Next(ctx context.Context) (U, bool, error) {
	v, ok, err := m.src.Next(ctx)
	if !ok || err != nil {
		var zero U
		return zero, ok, err
	}
	return m.fn(v), true, nil
}
