// Package observability sets up OpenTelemetry metrics and tracing and
// defines the instruments the flow engine records into.
//
//	tel, err := observability.Setup(ctx, cfg, log)
//	defer tel.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("ledgerflow"))
//	metrics.RecordProcess(ctx, "etl", "fetch-ledger", observability.StatusOK, d)
//
// With no endpoints configured the providers are created without
// exporters, so instruments are cheap no-ops.
package observability
