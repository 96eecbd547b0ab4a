package processor

import (
	"context"
	"sync"

	"github.com/kbukum/ledgerflow/checkpoint"
	"github.com/kbukum/ledgerflow/logger"
)

// Checkpoint passes records through and saves the highest ledger index seen
// every Every records. Save failures are logged and never fail the flow.
type Checkpoint[T any] struct {
	store   checkpoint.Store
	key     string
	every   int
	indexOf func(T) (int64, bool)
	log     *logger.Logger

	mu      sync.Mutex
	highest int64
	saved   int64
	pending int
}

// NewCheckpoint creates a checkpoint processor. indexOf extracts the ledger
// index of a record; records without one are counted but not tracked.
func NewCheckpoint[T any](store checkpoint.Store, key string, every int, indexOf func(T) (int64, bool), log *logger.Logger) *Checkpoint[T] {
	if every <= 0 {
		every = checkpoint.DefaultEvery
	}
	return &Checkpoint[T]{
		store:   store,
		key:     key,
		every:   every,
		indexOf: indexOf,
		log:     logger.OrNop(log).WithComponent("checkpoint").WithFields(logger.Fields(logger.FieldKey, key)),
	}
}

// Name implements Processor.
func (p *Checkpoint[T]) Name() string { return "checkpoint" }

// Process implements Processor.
func (p *Checkpoint[T]) Process(ctx context.Context, in T) ([]T, error) {
	p.mu.Lock()
	if idx, ok := p.indexOf(in); ok && idx > p.highest {
		p.highest = idx
	}
	p.pending++
	due := p.pending >= p.every
	if due {
		p.pending = 0
	}
	p.mu.Unlock()

	if due {
		p.Flush(ctx)
	}
	return []T{in}, nil
}

// Flush saves the highest index if it changed since the last save.
func (p *Checkpoint[T]) Flush(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.highest == 0 || p.highest == p.saved {
		return
	}
	if err := p.store.Save(ctx, p.key, p.highest); err != nil {
		p.log.Error("checkpoint save failed", logger.ErrorFields("checkpoint", err))
		return
	}
	p.saved = p.highest
	p.log.Debug("checkpoint saved", logger.Fields(logger.FieldLedgerIndex, p.highest))
}

// Highest returns the highest index seen.
func (p *Checkpoint[T]) Highest() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.highest
}

// Saved returns the last index successfully saved.
func (p *Checkpoint[T]) Saved() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved
}
