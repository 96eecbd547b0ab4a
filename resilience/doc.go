// Package resilience implements the retry executor that wraps every
// processor call and every paginated RPC fetch in ledgerflow.
//
// The delay before attempt n+1 is
//
//	BaseDelay * Multiplier^n + uniform(JitterMin, JitterMax)
//
// and a unit of work is invoked at most MaxAttempts times. When all
// attempts fail, Retry returns a *RetriesExhaustedError wrapping the last
// cause:
//
//	ledger, err := resilience.Retry(ctx, cfg, func(ctx context.Context) (record.Record, error) {
//	    return client.Ledger(ctx, req)
//	})
//	if errors.Is(err, resilience.ErrRetriesExhausted) {
//	    // the flow run fails
//	}
package resilience
