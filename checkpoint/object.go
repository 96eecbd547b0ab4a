package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/storage"
)

// ObjectStore keeps each checkpoint as a small JSON object; the key is the
// object path.
type ObjectStore struct {
	storage storage.Storage
}

// NewObjectStore creates a store on top of an object storage backend.
func NewObjectStore(s storage.Storage) *ObjectStore {
	return &ObjectStore{storage: s}
}

// Load implements Store.
func (s *ObjectStore) Load(ctx context.Context, key string) (int64, bool, error) {
	data, err := storage.DownloadBytes(ctx, s.storage, key)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperrors.StorageError("checkpoint load", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return 0, false, apperrors.StorageError("checkpoint decode", fmt.Errorf("%s: %w", key, err))
	}
	return st.LedgerIndex, true, nil
}

// Save implements Store.
func (s *ObjectStore) Save(ctx context.Context, key string, index int64) error {
	data, err := json.Marshal(State{LedgerIndex: index})
	if err != nil {
		return apperrors.StorageError("checkpoint encode", err)
	}
	if err := storage.UploadBytes(ctx, s.storage, key, data); err != nil {
		return apperrors.StorageError("checkpoint save", err)
	}
	return nil
}
