// Package server runs ledgerflow's operational HTTP surface: a gin engine
// behind h2c serving
//
//   - GET /health: aggregated component health, 503 when any is unhealthy
//   - GET /livez: process liveness
//   - GET /status: the current run (mode, execution id, flow results)
//
// The server is a component.Component so the bootstrap registry starts it
// after the infrastructure it reports on and stops it first.
package server
