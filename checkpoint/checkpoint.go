// Package checkpoint persists the last processed ledger index so a restarted
// run resumes where the previous one stopped.
package checkpoint

import (
	"context"
	"sync"
)

// Store loads and saves ledger index checkpoints by key.
type Store interface {
	// Load returns the saved index. ok is false when nothing was saved.
	Load(ctx context.Context, key string) (index int64, ok bool, err error)
	// Save records index under key, replacing any previous value.
	Save(ctx context.Context, key string, index int64) error
}

// State is the persisted payload: {"ledger_index": N}.
type State struct {
	LedgerIndex int64 `json:"ledger_index"`
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]int64)}
}

// Load implements Store.
func (m *Memory) Load(_ context.Context, key string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, key string, index int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = index
	return nil
}
