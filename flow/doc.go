// Package flow runs one stage of a pipeline: it pulls records from a
// source, passes each through an ordered list of processor bindings and
// hands every output to the binding's collectors.
//
//	f := flow.New("etl", []flow.Binding[record.Record]{
//		flow.Bind[record.Record, record.Record](etl, stdout, kafka),
//	})
//	res := flow.NewEngine[record.Record](flow.WithRetry(cfg), flow.WithLogger(log)).Execute(ctx, f, txQueue)
//
// A processor call is retried with resilience.Retry; when it still fails
// the run ends with StatusFailed. Collector errors are logged and counted
// but never stop the run.
package flow
