package flow

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/ledgerflow/source"
)

// Workers runs n concurrent executions of f that share src and merges
// their results. The first failure cancels the remaining workers and is
// reported as the merged error.
func Workers[I any](ctx context.Context, e *Engine[I], f *Flow[I], src source.Source[I], n int) Result {
	if n <= 1 {
		return e.Execute(ctx, f, src)
	}

	g, gctx := errgroup.WithContext(ctx)
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			results[i] = e.Execute(gctx, f, src)
			return results[i].Err
		})
	}
	firstErr := g.Wait()

	merged := Merge(results...)
	if firstErr != nil {
		merged.Status, merged.Err = StatusFailed, firstErr
	}
	return merged
}
