package source

import (
	"context"
	"fmt"

	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/logger"
)

// CounterConfig configures one shard of a partitioned countdown.
type CounterConfig struct {
	// StartCount is the first (highest) value considered.
	StartCount int64
	// ShardIndex selects values v with v % ShardSize == ShardIndex.
	ShardIndex int
	// ShardSize is the number of shards the range is split into.
	ShardSize int
	// Capacity bounds the buffer. Zero uses DefaultCapacity.
	Capacity int
}

// Validate checks the shard coordinates.
func (c CounterConfig) Validate() error {
	if c.ShardSize <= 0 {
		return apperrors.InvalidInput("shard_size", "must be positive")
	}
	if c.ShardIndex < 0 || c.ShardIndex >= c.ShardSize {
		return apperrors.InvalidInput("shard_index", fmt.Sprintf("must be in [0, %d)", c.ShardSize))
	}
	if c.StartCount < 0 {
		return apperrors.InvalidInput("start_count", "must not be negative")
	}
	return nil
}

// Counter counts down from StartCount to 1 and emits the values that
// belong to its shard. It stops itself when the count reaches zero.
type Counter struct {
	*Base[int64]
	cfg CounterConfig
}

// NewCounter creates a counter shard.
func NewCounter(cfg CounterConfig, log *logger.Logger) (*Counter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	c := &Counter{cfg: cfg}
	name := fmt.Sprintf("counter-%d-of-%d", cfg.ShardIndex, cfg.ShardSize)
	c.Base = NewBase[int64](name, cfg.Capacity, log, c.populate)
	return c, nil
}

// NewShardedCounters creates shards 0..shards-1 over the same range.
func NewShardedCounters(start int64, shards, capacity int, log *logger.Logger) ([]*Counter, error) {
	out := make([]*Counter, 0, shards)
	for i := 0; i < shards; i++ {
		c, err := NewCounter(CounterConfig{StartCount: start, ShardIndex: i, ShardSize: shards, Capacity: capacity}, log)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (c *Counter) populate(ctx context.Context, emit func(context.Context, int64) error) error {
	size := int64(c.cfg.ShardSize)
	// first value <= StartCount that falls in this shard
	i := c.cfg.StartCount - ((c.cfg.StartCount-int64(c.cfg.ShardIndex))%size+size)%size
	for ; i > 0; i -= size {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(ctx, i); err != nil {
			return err
		}
	}
	return nil
}
