package ingest

import (
	"time"

	"github.com/kbukum/ledgerflow/checkpoint"
	"github.com/kbukum/ledgerflow/collector"
	"github.com/kbukum/ledgerflow/config"
	"github.com/kbukum/ledgerflow/database"
	"github.com/kbukum/ledgerflow/httpclient"
	"github.com/kbukum/ledgerflow/kafka"
	"github.com/kbukum/ledgerflow/observability"
	"github.com/kbukum/ledgerflow/pipeline"
	"github.com/kbukum/ledgerflow/resilience"
	"github.com/kbukum/ledgerflow/schema"
	"github.com/kbukum/ledgerflow/server"
	"github.com/kbukum/ledgerflow/source"
	"github.com/kbukum/ledgerflow/validation"
)

// Modes.
const (
	ModeBackfill = "backfill"
	ModeStream   = "stream"
	ModeFile     = "file"
	ModeObjects  = "objects"
)

// Modes lists every accepted mode.
var Modes = []string{ModeBackfill, ModeStream, ModeFile, ModeObjects}

// Defaults.
const (
	DefaultRPCURL    = "https://s1.ripple.com:51234"
	DefaultStreamURL = "wss://s1.ripple.com"
	DefaultShards    = 100
)

// Config is the root configuration of the ledgerflow binary.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Mode     string         `yaml:"mode" mapstructure:"mode"`
	RPC      RPCConfig      `yaml:"rpc" mapstructure:"rpc"`
	Stream   StreamConfig   `yaml:"stream" mapstructure:"stream"`
	Backfill BackfillConfig `yaml:"backfill" mapstructure:"backfill"`
	File     FileConfig     `yaml:"file" mapstructure:"file"`
	Objects  ObjectsConfig  `yaml:"objects" mapstructure:"objects"`
	Queue    QueueConfig    `yaml:"queue" mapstructure:"queue"`
	// Workers is the number of concurrent executions of each queue-fed flow.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1"`
	// Schema selects the terminal ETL schema: transaction or object.
	Schema string `yaml:"schema" mapstructure:"schema" validate:"oneof=transaction object"`
	// Attributes replaces ETL with schema attribute discovery.
	Attributes   bool                   `yaml:"attributes" mapstructure:"attributes"`
	DrainTimeout time.Duration          `yaml:"drain_timeout" mapstructure:"drain_timeout" validate:"gte=0"`
	Retry        resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
	Sinks        SinksConfig            `yaml:"sinks" mapstructure:"sinks"`
	Checkpoint   checkpoint.Config      `yaml:"checkpoint" mapstructure:"checkpoint"`
	Server       server.Config          `yaml:"server" mapstructure:"server"`
	Telemetry    observability.Config   `yaml:"telemetry" mapstructure:"telemetry"`
}

// RPCConfig points at the JSON-RPC endpoint.
type RPCConfig struct {
	URL     string        `yaml:"url" mapstructure:"url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
}

// HTTPClient converts to the client configuration.
func (c RPCConfig) HTTPClient() httpclient.Config {
	return httpclient.Config{BaseURL: c.URL, Timeout: c.Timeout}
}

// StreamConfig configures the websocket ledger stream.
type StreamConfig struct {
	URL            string        `yaml:"url" mapstructure:"url" validate:"required,url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" mapstructure:"reconnect_delay" validate:"gte=0"`
	ReceiveTimeout time.Duration `yaml:"receive_timeout" mapstructure:"receive_timeout" validate:"gte=0"`
}

// BackfillConfig configures the sharded countdown.
type BackfillConfig struct {
	Shards int `yaml:"shards" mapstructure:"shards" validate:"gte=1"`
	// StartIndex overrides both the checkpoint and the latest validated
	// ledger when positive.
	StartIndex int64 `yaml:"start_index" mapstructure:"start_index" validate:"gte=0"`
}

// FileConfig names the file of ledger indices read in file mode.
type FileConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ObjectsConfig configures the ledger_data walk.
type ObjectsConfig struct {
	// LedgerIndex defaults to the latest validated ledger minus one.
	LedgerIndex int64 `yaml:"ledger_index" mapstructure:"ledger_index" validate:"gte=0"`
	PageLimit   int   `yaml:"page_limit" mapstructure:"page_limit" validate:"gte=0"`
}

// QueueConfig bounds every inter-stage queue.
type QueueConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity" validate:"gte=0"`
}

// SinksConfig enables the record destinations. Stdout receives the
// terminal records, Headers the ledger headers.
type SinksConfig struct {
	Stdout  collector.StdoutConfig `yaml:"stdout" mapstructure:"stdout"`
	Headers collector.StdoutConfig `yaml:"headers" mapstructure:"headers"`
	Kafka   KafkaSinkConfig        `yaml:"kafka" mapstructure:"kafka"`
	HTTP    collector.HTTPConfig   `yaml:"http" mapstructure:"http"`
	// Warehouse is the gorm database rows are inserted into.
	Warehouse database.Config `yaml:"warehouse" mapstructure:"warehouse"`
}

// KafkaSinkConfig adds the header topic to the broker settings.
type KafkaSinkConfig struct {
	kafka.Config `yaml:",inline" mapstructure:",squash"`
	// HeaderTopic receives ledger headers when set.
	HeaderTopic string `yaml:"header_topic" mapstructure:"header_topic"`
}

// NewConfig returns a config whose boolean switches are preset before
// loading: terminal records and headers go to stdout and the health
// server listens unless turned off.
func NewConfig() *Config {
	return &Config{
		Sinks: SinksConfig{
			Stdout:  collector.StdoutConfig{Enabled: true, Simplified: true},
			Headers: collector.StdoutConfig{Enabled: true},
		},
		Server: server.Config{Enabled: true},
	}
}

// ApplyDefaults fills every zero-valued field.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "ledgerflow"
	}
	c.ServiceConfig.ApplyDefaults()

	if c.Mode == "" {
		c.Mode = ModeBackfill
	}
	if c.RPC.URL == "" {
		c.RPC.URL = DefaultRPCURL
	}
	if c.RPC.Timeout == 0 {
		c.RPC.Timeout = 30 * time.Second
	}
	if c.Stream.URL == "" {
		c.Stream.URL = DefaultStreamURL
	}
	if c.Stream.ReconnectDelay == 0 {
		c.Stream.ReconnectDelay = source.DefaultReconnectDelay
	}
	if c.Stream.ReceiveTimeout == 0 {
		c.Stream.ReceiveTimeout = 15 * time.Second
	}
	if c.Backfill.Shards == 0 {
		c.Backfill.Shards = DefaultShards
	}
	if c.Queue.Capacity == 0 {
		c.Queue.Capacity = source.DefaultCapacity
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Schema == "" {
		c.Schema = defaultSchema(c.Mode)
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = pipeline.DefaultDrainTimeout
	}
	c.Retry.ApplyDefaults()

	if c.Sinks.Stdout.Tag == "" {
		c.Sinks.Stdout.Tag = defaultStdoutTag(c.Schema, c.Attributes)
	}
	if c.Sinks.Headers.Tag == "" {
		c.Sinks.Headers.Tag = "ledgers"
	}
	if c.Sinks.Kafka.Enabled {
		c.Sinks.Kafka.ApplyDefaults()
	}
	if c.Sinks.HTTP.Enabled {
		c.Sinks.HTTP.Client.ApplyDefaults()
	}
	if c.Sinks.Warehouse.Enabled {
		c.Sinks.Warehouse.ApplyDefaults()
	}

	c.Checkpoint.ApplyDefaults()
	if c.Server.Enabled {
		c.Server.ApplyDefaults()
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Name
	}
	if c.Telemetry.ServiceVersion == "" {
		c.Telemetry.ServiceVersion = c.Version
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Environment
	}
	c.Telemetry.ApplyDefaults()
}

// Validate checks the whole tree and reports every failing field at once.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("", c.ServiceConfig.Validate())
	v.OneOf("mode", c.Mode, Modes)
	v.Merge("", validation.Validate(c))
	v.Merge("retry", c.Retry.Validate())

	switch c.Mode {
	case ModeFile:
		v.Required("file.path", c.File.Path)
	case ModeStream:
		v.Custom(!c.Attributes, "attributes", "is not supported in stream mode")
	}
	if c.Mode == ModeObjects && c.Schema != schema.NameObject {
		v.AddError("schema", "must be object in objects mode")
	}

	if c.Sinks.Kafka.Enabled {
		v.Merge("sinks.kafka", c.Sinks.Kafka.Validate())
	}
	if c.Sinks.HTTP.Enabled {
		v.Required("sinks.http.base_url", c.Sinks.HTTP.Client.BaseURL)
		v.Merge("sinks.http", c.Sinks.HTTP.Client.Validate())
	}
	if c.Sinks.Warehouse.Enabled {
		v.Merge("sinks.warehouse", c.Sinks.Warehouse.Validate())
	}
	v.Merge("checkpoint", c.Checkpoint.Validate())
	v.Merge("server", c.Server.Validate())
	v.Merge("telemetry", c.Telemetry.Validate())
	return v.Validate()
}

// SetMode switches the run mode. A schema or stdout tag that still holds
// the previous mode's default is cleared so ApplyDefaults derives it anew.
func (c *Config) SetMode(mode string) {
	if mode == "" || mode == c.Mode {
		return
	}
	if c.Sinks.Stdout.Tag == defaultStdoutTag(c.Schema, c.Attributes) {
		c.Sinks.Stdout.Tag = ""
	}
	if c.Schema == defaultSchema(c.Mode) {
		c.Schema = ""
	}
	c.Mode = mode
}

func defaultSchema(mode string) string {
	if mode == ModeObjects {
		return schema.NameObject
	}
	return schema.NameTransaction
}

func defaultStdoutTag(schemaName string, attributes bool) string {
	switch {
	case attributes && schemaName == schema.NameObject:
		return "ledger_obj_schema"
	case attributes:
		return "txn_schema"
	case schemaName == schema.NameObject:
		return "objects"
	default:
		return "transactions"
	}
}
