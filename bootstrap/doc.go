// Package bootstrap runs a ledgerflow binary: it validates the config,
// builds the logger, starts registered components in order, runs the
// ingestion task under SIGINT/SIGTERM cancellation and stops everything in
// reverse order.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(redisComponent)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return graph.Run(ctx)
//	})
package bootstrap
