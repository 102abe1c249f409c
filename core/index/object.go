package index

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dailies/core/media"
	"dailies/core/retry"
	"dailies/core/storage"

	"github.com/minio/minio-go/v7"
)

// Metadata keys written next to MetaSourceMTime on mirrored objects.
const (
	MetaCapture  = "Source-Capture"
	MetaChecksum = "Content-Sha256"
)

// ObjectScanner scans a bucket prefix of an S3-compatible store.
type ObjectScanner struct {
	// Client is the storage client.
	Client storage.Client
	// Bucket is the bucket name.
	Bucket string
	// Prefix is the key prefix of the mirror (no trailing slash needed).
	Prefix string
	// Filter selects the objects to index.
	Filter media.Filter
	// Retry wraps the bucket check and on-demand hashing.
	Retry retry.Policy
}

// Location implements Scanner.
func (s *ObjectScanner) Location() string {
	return "s3://" + storage.ObjectKey(s.Bucket, s.Prefix)
}

// Scan implements Scanner. Object stores list keys in lexical order.
func (s *ObjectScanner) Scan(ctx context.Context, emit func(Record)) error {
	var exists bool
	err := retry.Do(ctx, s.Retry, "bucket exists", func(ctx context.Context) error {
		var existsErr error
		exists, existsErr = s.Client.BucketExists(ctx, s.Bucket)
		return existsErr
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRootUnavailable, s.Location(), err)
	}
	if !exists {
		return fmt.Errorf("%w: bucket %s does not exist", ErrRootUnavailable, s.Bucket)
	}

	prefix := strings.Trim(s.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := s.Client.ListObjects(listCtx, s.Bucket, minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    true,
		WithMetadata: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return fmt.Errorf("%w: listing %s: %v", ErrRootUnavailable, s.Location(), obj.Err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel := strings.TrimPrefix(obj.Key, prefix)
		if rel == "" || strings.HasSuffix(rel, "/") || s.Filter.SkipPath(rel) {
			continue
		}
		emit(Record{Meta: objectMetadata(rel, obj)})
	}
	return ctx.Err()
}

func objectMetadata(rel string, obj minio.ObjectInfo) media.Metadata {
	meta := media.Metadata{
		Path:       rel,
		Size:       obj.Size,
		ModifiedAt: obj.LastModified.UTC(),
	}
	if v, ok := storage.UserMeta(obj, storage.MetaSourceMTime); ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			meta.ModifiedAt = ts.UTC()
		}
	}
	if v, ok := storage.UserMeta(obj, MetaCapture); ok {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil && unix > 0 {
			meta.CaptureAt = time.Unix(unix, 0).UTC()
		}
	}
	if v, ok := storage.UserMeta(obj, MetaChecksum); ok {
		meta.Checksum = strings.ToLower(v)
	}
	return meta
}

// Checksum implements Scanner by streaming the object through SHA-256.
func (s *ObjectScanner) Checksum(ctx context.Context, rel string) (string, error) {
	key := storage.ObjectKey(s.Prefix, rel)
	var sum string
	err := retry.Do(ctx, s.Retry, "hash object", func(ctx context.Context) error {
		body, err := s.Client.GetObject(ctx, s.Bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return err
		}
		defer body.Close()
		sum, err = media.HashReader(ctx, body)
		return err
	})
	return sum, err
}
