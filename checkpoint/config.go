package checkpoint

import (
	"fmt"

	"github.com/kbukum/ledgerflow/redis"
	"github.com/kbukum/ledgerflow/storage"
)

// Backend names.
const (
	BackendNone    = "none"
	BackendMemory  = "memory"
	BackendRedis   = "redis"
	BackendStorage = "storage"
)

// Defaults.
const (
	DefaultKey   = "ledgerflow/state"
	DefaultEvery = 100
)

// Config selects and configures a checkpoint backend.
type Config struct {
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=none memory redis storage"`
	// Key names the checkpoint: a Redis key or an object path.
	Key string `yaml:"key" mapstructure:"key"`
	// Every is the number of records between saves.
	Every   int            `yaml:"every" mapstructure:"every" validate:"gte=0"`
	Redis   redis.Config   `yaml:"redis" mapstructure:"redis"`
	Storage storage.Config `yaml:"storage" mapstructure:"storage"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendNone
	}
	if c.Key == "" {
		c.Key = DefaultKey
	}
	if c.Every <= 0 {
		c.Every = DefaultEvery
	}
	switch c.Backend {
	case BackendRedis:
		c.Redis.Enabled = true
		c.Redis.ApplyDefaults()
	case BackendStorage:
		c.Storage.Enabled = true
		c.Storage.ApplyDefaults()
	}
}

// Validate checks the selected backend's settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNone, BackendMemory:
		return nil
	case BackendRedis:
		return c.Redis.Validate()
	case BackendStorage:
		return c.Storage.Validate()
	default:
		return fmt.Errorf("checkpoint: unknown backend %q", c.Backend)
	}
}

// Enabled reports whether checkpoints are persisted at all.
func (c *Config) Enabled() bool {
	return c.Backend != "" && c.Backend != BackendNone
}
