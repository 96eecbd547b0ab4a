package ingest

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/ledgerflow/checkpoint"
	"github.com/kbukum/ledgerflow/collector"
	"github.com/kbukum/ledgerflow/component"
	"github.com/kbukum/ledgerflow/database"
	"github.com/kbukum/ledgerflow/kafka"
	"github.com/kbukum/ledgerflow/kafka/producer"
	"github.com/kbukum/ledgerflow/logger"
	"github.com/kbukum/ledgerflow/observability"
	"github.com/kbukum/ledgerflow/redis"
	"github.com/kbukum/ledgerflow/server"
	"github.com/kbukum/ledgerflow/storage"
	"github.com/kbukum/ledgerflow/xrpl"

	// storage backends register themselves with storage.New
	_ "github.com/kbukum/ledgerflow/storage/local"
	_ "github.com/kbukum/ledgerflow/storage/s3"
)

// Deps are the collaborators a pipeline is built from. Nil fields disable
// what depends on them.
type Deps struct {
	Log         *logger.Logger
	Client      xrpl.Client
	Subscriber  xrpl.Subscriber
	Checkpoints checkpoint.Store
	Publisher   collector.Publisher
	DB          *database.DB
	// Stdout receives the stdout sinks. Defaults to os.Stdout.
	Stdout  io.Writer
	Metrics *observability.Metrics
}

// Infra owns the lifecycle-managed components a configuration asks for.
type Infra struct {
	cfg *Config
	log *logger.Logger

	telemetry *observability.Component
	redis     *redis.Component
	storage   *storage.Component
	database  *database.Component
	kafka     *kafka.Component
	producer  *producer.Producer
	server    *server.Server

	components []component.Component
}

// NewInfra creates the components in start order: telemetry first so its
// providers outlive everything else, the HTTP server last.
func NewInfra(cfg *Config, log *logger.Logger) (*Infra, error) {
	in := &Infra{cfg: cfg, log: logger.OrNop(log)}

	in.telemetry = observability.NewComponent(cfg.Telemetry, in.log)
	in.components = append(in.components, in.telemetry)

	switch cfg.Checkpoint.Backend {
	case checkpoint.BackendRedis:
		in.redis = redis.NewComponent(cfg.Checkpoint.Redis, in.log)
		in.components = append(in.components, in.redis)
	case checkpoint.BackendStorage:
		in.storage = storage.NewComponent(cfg.Checkpoint.Storage, in.log)
		in.components = append(in.components, in.storage)
	}

	if cfg.Sinks.Warehouse.Enabled {
		in.database = database.NewComponent(cfg.Sinks.Warehouse, in.log)
		in.components = append(in.components, in.database)
	}

	if cfg.Sinks.Kafka.Enabled {
		p, err := producer.NewProducer(cfg.Sinks.Kafka.Config, in.log)
		if err != nil {
			return nil, fmt.Errorf("kafka sink: %w", err)
		}
		in.producer = p
		in.kafka = kafka.NewComponent(cfg.Sinks.Kafka.Config, in.log)
		in.kafka.SetProducer(p)
		in.components = append(in.components, in.kafka)
	}

	if cfg.Server.Enabled {
		in.server = server.New(cfg.Server, in.log)
		in.components = append(in.components, server.NewComponent(in.server))
	}
	return in, nil
}

// Components returns the components in start order.
func (in *Infra) Components() []component.Component {
	return append([]component.Component(nil), in.components...)
}

// Server returns the HTTP server, or nil when disabled.
func (in *Infra) Server() *server.Server { return in.server }

// Deps resolves the collaborators. Call it after the components started.
func (in *Infra) Deps(_ context.Context) (Deps, error) {
	d := Deps{
		Log:     in.log,
		Stdout:  os.Stdout,
		Metrics: in.telemetry.Metrics(),
	}

	client, err := xrpl.NewRPCClient(in.cfg.RPC.HTTPClient())
	if err != nil {
		return Deps{}, fmt.Errorf("rpc client: %w", err)
	}
	d.Client = client
	if in.cfg.Mode == ModeStream {
		d.Subscriber = xrpl.NewWSSubscriber(in.cfg.Stream.URL, in.cfg.Stream.ReceiveTimeout)
	}

	switch in.cfg.Checkpoint.Backend {
	case checkpoint.BackendMemory:
		d.Checkpoints = checkpoint.NewMemory()
	case checkpoint.BackendRedis:
		if in.redis.Client() == nil {
			return Deps{}, fmt.Errorf("checkpoint: redis is not started")
		}
		d.Checkpoints = checkpoint.NewRedisStore(in.redis.Client())
	case checkpoint.BackendStorage:
		if in.storage.Storage() == nil {
			return Deps{}, fmt.Errorf("checkpoint: storage is not started")
		}
		d.Checkpoints = checkpoint.NewObjectStore(in.storage.Storage())
	}

	if in.database != nil {
		d.DB = in.database.DB()
	}
	if in.producer != nil {
		d.Publisher = in.producer
	}
	return d, nil
}
