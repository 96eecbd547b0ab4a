// Package collector holds the terminal consumers of flow outputs: stdout,
// Kafka, an HTTP forwarder, the warehouse table and adapters for plain
// functions. A queue.SourceSink is also a Collector and links flows together.
package collector

import (
	"context"
	"errors"
)

// Collector consumes the outputs of one processor binding.
type Collector[T any] interface {
	Name() string
	Collect(ctx context.Context, v T) error
}

type funcCollector[T any] struct {
	name string
	fn   func(ctx context.Context, v T) error
}

// Func adapts a plain function into a Collector.
func Func[T any](name string, fn func(ctx context.Context, v T) error) Collector[T] {
	return &funcCollector[T]{name: name, fn: fn}
}

func (c *funcCollector[T]) Name() string { return c.name }

func (c *funcCollector[T]) Collect(ctx context.Context, v T) error { return c.fn(ctx, v) }

// Multi delivers to every collector in order and joins their errors. One
// failing member does not stop the rest.
type Multi[T any] struct {
	name    string
	members []Collector[T]
}

// NewMulti groups collectors under one name.
func NewMulti[T any](name string, members ...Collector[T]) *Multi[T] {
	return &Multi[T]{name: name, members: members}
}

// Name returns the group name.
func (m *Multi[T]) Name() string { return m.name }

// Collect delivers v to each member.
func (m *Multi[T]) Collect(ctx context.Context, v T) error {
	var errs []error
	for _, c := range m.members {
		if err := c.Collect(ctx, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of members.
func (m *Multi[T]) Len() int { return len(m.members) }
