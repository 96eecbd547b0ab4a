// Package source provides the pull-based producers that feed ledgerflow
// flows.
//
// Every Source owns a bounded Buffer and an optional population goroutine
// launched by Start. Consumers pull with Next until it reports end of
// stream, which happens only after Stop was called (by the owner or by the
// source itself once its input is exhausted) and the buffer is empty:
//
//	src := source.NewCounter(source.CounterConfig{StartCount: 1000, ShardIndex: 3, ShardSize: 10}, log)
//	_ = src.Start(ctx)
//	for {
//	    idx, ok, err := src.Next(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    ...
//	}
package source
