// Package storage provides the object storage abstraction used for
// checkpoint state, with pluggable backends registered by their packages:
//
//   - storage/s3: Amazon S3 and S3-compatible services
//   - storage/local: a local directory, for development and tests
//
// Import a backend for its side effect, then build through New:
//
//	import _ "github.com/kbukum/ledgerflow/storage/s3"
//
//	store, err := storage.New(ctx, storage.Config{Provider: "s3", Bucket: "state"}, log)
package storage
