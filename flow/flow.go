package flow

import (
	"context"

	"github.com/kbukum/ledgerflow/collector"
	"github.com/kbukum/ledgerflow/processor"
)

// Binding pairs one processor with the collectors of its outputs. The
// output type is erased so a Flow can hold bindings with different outputs.
type Binding[I any] struct {
	name       string
	collectors []string
	apply      func(ctx context.Context, rt *runtime, in I) ([]any, error)
}

// Bind creates a binding. Collectors receive each output in the order
// they are listed.
func Bind[I, O any](p processor.Processor[I, O], cs ...collector.Collector[O]) Binding[I] {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name()
	}
	return Binding[I]{
		name:       p.Name(),
		collectors: names,
		apply: func(ctx context.Context, rt *runtime, in I) ([]any, error) {
			outs, err := process(ctx, rt, p, in)
			if err != nil {
				return nil, err
			}
			boxed := make([]any, len(outs))
			for i, o := range outs {
				boxed[i] = o
				for _, c := range cs {
					if err := c.Collect(ctx, o); err != nil {
						rt.sinkError(ctx, c.Name(), err)
					}
				}
			}
			return boxed, nil
		},
	}
}

// Name returns the processor name.
func (b Binding[I]) Name() string { return b.name }

// Collectors returns the collector names in delivery order.
func (b Binding[I]) Collectors() []string { return b.collectors }

// Observer sees every input together with the outputs of each binding,
// in binding order. It runs after all collectors for that input.
type Observer[I any] interface {
	Observe(ctx context.Context, in I, outputs [][]any)
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc[I any] func(ctx context.Context, in I, outputs [][]any)

// Observe calls f.
func (f ObserverFunc[I]) Observe(ctx context.Context, in I, outputs [][]any) { f(ctx, in, outputs) }

// Flow is an immutable list of bindings. It holds no run state and may be
// executed any number of times, concurrently, against different sources.
type Flow[I any] struct {
	name     string
	bindings []Binding[I]
	observer Observer[I]
}

// Option configures a Flow.
type Option[I any] func(*Flow[I])

// WithObserver registers a whole-record observer.
func WithObserver[I any](o Observer[I]) Option[I] {
	return func(f *Flow[I]) { f.observer = o }
}

// New creates a flow.
func New[I any](name string, bindings []Binding[I], opts ...Option[I]) *Flow[I] {
	f := &Flow[I]{name: name, bindings: append([]Binding[I](nil), bindings...)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the flow name.
func (f *Flow[I]) Name() string { return f.name }

// Bindings returns a copy of the bindings.
func (f *Flow[I]) Bindings() []Binding[I] {
	return append([]Binding[I](nil), f.bindings...)
}
