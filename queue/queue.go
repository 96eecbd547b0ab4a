// Package queue links flows: a SourceSink is the collector of one stage and
// the source of the next.
package queue

import (
	"context"
	"sync"

	"github.com/kbukum/ledgerflow/collector"
	"github.com/kbukum/ledgerflow/source"
)

// Option configures a SourceSink.
type Option func(*options)

type options struct {
	onDone func()
}

// WithOnDone registers fn to run once the sink is stopped and drained.
func WithOnDone(fn func()) Option {
	return func(o *options) { o.onDone = fn }
}

// SourceSink is a bounded FIFO queue that is both a source.Source and a
// collector.Collector. Collect blocks while the queue is full. After Stop,
// Collect is rejected and Next drains what is left.
type SourceSink[T any] struct {
	buf    *source.Buffer[T]
	onDone func()

	doneOnce sync.Once
	done     chan struct{}
}

var (
	_ source.Source[int]       = (*SourceSink[int])(nil)
	_ collector.Collector[int] = (*SourceSink[int])(nil)
)

// New creates a queue. A capacity <= 0 means unbounded.
func New[T any](name string, capacity int, opts ...Option) *SourceSink[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &SourceSink[T]{
		buf:    source.NewBuffer[T](name, capacity),
		onDone: o.onDone,
		done:   make(chan struct{}),
	}
}

// Name returns the queue name.
func (q *SourceSink[T]) Name() string { return q.buf.Name() }

// Start is a no-op; a queue is fed by Collect.
func (q *SourceSink[T]) Start(context.Context) error { return nil }

// Collect enqueues v.
func (q *SourceSink[T]) Collect(ctx context.Context, v T) error {
	return q.buf.Push(ctx, v)
}

// Next dequeues the oldest value.
func (q *SourceSink[T]) Next(ctx context.Context) (T, bool, error) {
	v, ok, err := q.buf.Next(ctx)
	if err == nil {
		q.checkDone()
	}
	return v, ok, err
}

// Stop rejects further Collect calls. Buffered values stay readable.
func (q *SourceSink[T]) Stop() {
	q.buf.Stop()
	q.checkDone()
}

// checkDone fires the completion once the queue is stopped and empty.
// Both conditions are terminal after Stop, so a stale read only delays
// the callback to the next Next call.
func (q *SourceSink[T]) checkDone() {
	if !q.buf.Stopped() || q.buf.Len() > 0 {
		return
	}
	q.doneOnce.Do(func() {
		close(q.done)
		if q.onDone != nil {
			q.onDone()
		}
	})
}

// Done is closed once the queue is stopped and drained.
func (q *SourceSink[T]) Done() <-chan struct{} { return q.done }

// Len returns the number of queued values.
func (q *SourceSink[T]) Len() int { return q.buf.Len() }

// Stopped reports whether Stop was called.
func (q *SourceSink[T]) Stopped() bool { return q.buf.Stopped() }
