package checkpoint

import (
	"context"

	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/redis"
)

// RedisStore keeps checkpoints as JSON values in Redis.
type RedisStore struct {
	store *redis.TypedStore[State]
}

// NewRedisStore creates a Redis-backed store. Keys are prefixed with the
// client's configured key prefix.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{store: redis.NewTypedStore[State](client, client.Config().KeyPrefix)}
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, key string) (int64, bool, error) {
	st, err := s.store.Load(ctx, key)
	if err != nil {
		return 0, false, apperrors.StorageError("checkpoint load", err)
	}
	if st == nil {
		return 0, false, nil
	}
	return st.LedgerIndex, true, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, key string, index int64) error {
	if err := s.store.Save(ctx, key, &State{LedgerIndex: index}, 0); err != nil {
		return apperrors.StorageError("checkpoint save", err)
	}
	return nil
}
