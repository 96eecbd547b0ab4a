// Package component defines the lifecycle interface shared by ledgerflow's
// infrastructure adapters (redis, kafka, storage, warehouse database and the
// health server) and the Registry that starts them in order, stops them in
// reverse and aggregates their health for the /health endpoint.
package component
