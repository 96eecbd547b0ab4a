// Command ledgerflow pulls XRP Ledger history, live ledgers or ledger state
// through a retrying flow pipeline into stdout and the configured sinks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/kbukum/ledgerflow/bootstrap"
	"github.com/kbukum/ledgerflow/config"
	"github.com/kbukum/ledgerflow/ingest"
	"github.com/kbukum/ledgerflow/logger"
	"github.com/kbukum/ledgerflow/version"
)

const serviceName = "ledgerflow"

func main() {
	os.Exit(run())
}

func run() int {
	configFile := flag.String("config", "", "path to a YAML config file")
	mode := flag.String("mode", "", "override the run mode: backfill, stream, file or objects")
	filePath := flag.String("file", "", "file of ledger indices for file mode")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	build := version.Get()
	if *showVersion {
		fmt.Println(build.Short())
		return 0
	}

	cfg := ingest.NewConfig()
	var opts []config.LoaderOption
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerflow: %v\n", err)
		return 1
	}
	cfg.SetMode(*mode)
	if *filePath != "" {
		cfg.File.Path = *filePath
	}
	if cfg.Version == "" {
		cfg.Version = build.Short()
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledgerflow: %v\n", err)
		return 1
	}

	infra, err := ingest.NewInfra(cfg, app.Logger)
	if err != nil {
		app.Logger.Error("infrastructure setup failed", logger.Fields(logger.FieldError, err.Error()))
		return 1
	}
	for _, c := range infra.Components() {
		if err := app.RegisterComponent(c); err != nil {
			app.Logger.Error("component registration failed", logger.Fields(logger.FieldError, err.Error()))
			return 1
		}
	}

	var current atomic.Pointer[ingest.Pipeline]
	if srv := infra.Server(); srv != nil {
		srv.RegisterEndpoints(app.Name, app.Components.HealthAll, func(context.Context) any {
			if p := current.Load(); p != nil {
				return p.Status()
			}
			return nil
		})
	}

	app.OnConfigure(func(ctx context.Context, app *bootstrap.App[*ingest.Config]) error {
		deps, err := infra.Deps(ctx)
		if err != nil {
			return err
		}
		p, err := ingest.Build(ctx, app.Cfg, deps)
		if err != nil {
			return err
		}
		current.Store(p)

		app.Summary.Set("mode", app.Cfg.Mode)
		app.Summary.Set("execution", p.ExecutionID())
		if idx := p.StartIndex(); idx > 0 {
			app.Summary.Set("start ledger", strconv.FormatInt(idx, 10))
		}
		app.Summary.Set("workers", strconv.Itoa(app.Cfg.Workers))
		for _, s := range p.Stages() {
			app.Summary.TrackStage(s.Name, s.Kind, s.Details)
		}
		return nil
	})

	err = app.RunTask(context.Background(), func(ctx context.Context) error {
		return current.Load().Run(ctx)
	})
	if err != nil {
		return 1
	}
	return 0
}
