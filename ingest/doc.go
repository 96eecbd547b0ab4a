// Package ingest assembles the ledger pipelines from configuration.
//
// Every mode is a pipeline.Graph of flows joined by bounded queues:
//
//	backfill: counter shards -> fetch -> ledgers -> decompose -> transactions -> etl -> sinks
//	                                               \-> headers -> sinks
//	stream:   ledger stream  -> fetch+checkpoint -> ledgers -> (as backfill)
//	file:     file lines     -> fetch -> ledgers -> (as backfill)
//	objects:  ledger objects -> etl(object schema) -> sinks
//
// With attributes enabled the terminal ETL flow is replaced by attribute
// collection, which prints one line per newly discovered field path.
package ingest
