// Package pipeline wires flows into a graph of stages joined by queues and
// supervises them as one run.
//
// Each stage is a task, usually a flow execution, plus the queues it
// writes into. A queue is stopped once every stage writing into it has
// returned, so end of stream cascades from the head sources down to the
// last stage. Stop ends the head sources and lets the rest drain.
//
//	g := pipeline.New(log)
//	g.AddHead(counter)
//	pipeline.AddFlow(g, "fetch", fetchEngine, fetchFlow, counter, 8, ledgers)
//	pipeline.AddFlow(g, "decompose", ledgerEngine, decomposeFlow, ledgers, 1, txs, headers)
//	pipeline.AddFlow(g, "etl", txEngine, etlFlow, txs, 1)
//	err := g.Run(ctx)
package pipeline
