package checks

import (
	"context"
	"fmt"

	"dailies/core/storage"

	"github.com/minio/minio-go/v7"
)

// CheckStorage verifies that the backup bucket exists and the prefix can be
// listed. A nil client means object storage is disabled.
func CheckStorage(ctx context.Context, client storage.Client, bucket, prefix string) Result {
	if client == nil {
		return Result{Name: "storage", Status: StatusDisabled, Detail: "object storage not enabled"}
	}
	name := bucket
	if prefix != "" {
		name = bucket + "/" + prefix
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return Result{Name: name, Status: StatusError, Detail: fmt.Sprintf("failed to check bucket existence: %v", err)}
	}
	if !exists {
		// The first backup run creates the bucket.
		return Result{Name: name, Status: StatusWarning, Detail: fmt.Sprintf("bucket %s does not exist yet", bucket)}
	}

	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: false, MaxKeys: 1}
	for obj := range client.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return Result{Name: name, Status: StatusError, Detail: fmt.Sprintf("failed to list objects: %v", obj.Err)}
		}
		break
	}
	return Result{Name: name, Status: StatusOK}
}
