// Package processor defines the transformation step of a flow binding and
// the XRPL processors built on it.
//
// A processor maps one input to zero or more outputs. The flow engine wraps
// every Process call in a retry, so processors should return retryable
// errors for transient failures and ContractViolation for inputs that can
// never succeed.
package processor

import (
	"context"
	"fmt"

	apperrors "github.com/kbukum/ledgerflow/errors"
)

// Processor transforms one input into a sequence of outputs.
type Processor[I, O any] interface {
	Name() string
	Process(ctx context.Context, in I) ([]O, error)
}

type funcProcessor[I, O any] struct {
	name string
	fn   func(ctx context.Context, in I) ([]O, error)
}

// Func adapts fn into a Processor.
func Func[I, O any](name string, fn func(ctx context.Context, in I) ([]O, error)) Processor[I, O] {
	return &funcProcessor[I, O]{name: name, fn: fn}
}

func (p *funcProcessor[I, O]) Name() string { return p.name }

func (p *funcProcessor[I, O]) Process(ctx context.Context, in I) ([]O, error) {
	return p.fn(ctx, in)
}

// Passthrough returns every input unchanged as its only output.
func Passthrough[T any](name string) Processor[T, T] {
	return Func(name, func(_ context.Context, in T) ([]T, error) {
		return []T{in}, nil
	})
}

type dynamicProcessor[I, O any] struct {
	name string
	fn   func(ctx context.Context, in any) (any, error)
}

// Dynamic adapts an untyped callable. Its result must be nil, a []O, or a
// []any whose elements are all O; anything else is a ContractViolation.
func Dynamic[I, O any](name string, fn func(ctx context.Context, in any) (any, error)) Processor[I, O] {
	return &dynamicProcessor[I, O]{name: name, fn: fn}
}

func (p *dynamicProcessor[I, O]) Name() string { return p.name }

func (p *dynamicProcessor[I, O]) Process(ctx context.Context, in I) ([]O, error) {
	res, err := p.fn(ctx, in)
	if err != nil {
		return nil, err
	}
	switch v := res.(type) {
	case nil:
		return nil, nil
	case []O:
		return v, nil
	case []any:
		out := make([]O, 0, len(v))
		for i, item := range v {
			o, ok := item.(O)
			if !ok {
				return nil, apperrors.ContractViolation(p.name, fmt.Sprintf("element %d is %T", i, item))
			}
			out = append(out, o)
		}
		return out, nil
	default:
		return nil, apperrors.ContractViolation(p.name, fmt.Sprintf("result is %T, not a sequence", res))
	}
}
