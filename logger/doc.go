// Package logger provides structured logging for ledgerflow on top of zerolog.
//
// A single *Logger is built at startup from Config and handed to every
// source, processor, collector and flow that needs one. Scoped loggers are
// derived with WithComponent and WithFields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg.Logging, "ledgerflow").WithComponent("fetch")
//	log.Info("ledger fetched", logger.Fields(logger.FieldLedgerIndex, 75000000))
package logger
