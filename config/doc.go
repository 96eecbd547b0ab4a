// Package config loads service configuration.
//
// LoadConfig reads a YAML file (found in the usual cmd/ or config/ places,
// or given explicitly), then a .env file, then overlays every environment
// variable carrying the service prefix. Underscores in the variable name
// map onto nested keys:
//
//	LEDGERFLOW_RPC_URL=https://xrplcluster.com   -> rpc.url
//	LEDGERFLOW_RETRY_MAX_ATTEMPTS=3              -> retry.max_attempts
//
// ServiceConfig carries the fields every binary needs and is embedded with
// mapstructure:",squash".
package config
