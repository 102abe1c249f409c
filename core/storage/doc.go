// Package storage provides the object-storage backup target.
//
// It wraps the MinIO Go client behind a narrow Client interface so that
// backups can be mirrored to AWS S3 or a self-hosted MinIO instance, and so
// that tests can use the testify mock in core/storage/mocks.
//
// # Operations
//
//   - BucketExists / MakeBucket / EnsureBucket: prepare the backup bucket.
//   - PutObject: upload one clip with its source mtime as user metadata.
//   - StatObject: read back size and metadata after an upload.
//   - ListObjects: enumerate the mirror for the object scanner.
//   - GetObject: stream an object back (hashing on demand).
//
// # Metadata
//
// Object stores do not preserve file modification times, so every mirrored
// object carries MetaSourceMTime. UserMeta reads it back regardless of how
// the server canonicalized the header.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
