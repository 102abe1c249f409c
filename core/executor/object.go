package executor

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"dailies/core/index"
	"dailies/core/media"
	"dailies/core/storage"

	"github.com/minio/minio-go/v7"
)

// ObjectDestination uploads into a bucket prefix of an S3-compatible store.
type ObjectDestination struct {
	// Client is the storage client.
	Client storage.Client
	// Bucket is the bucket name.
	Bucket string
	// Prefix is the key prefix of the mirror.
	Prefix string
}

// NewObjectDestination creates an object-storage destination.
func NewObjectDestination(client storage.Client, bucket, prefix string) *ObjectDestination {
	return &ObjectDestination{Client: client, Bucket: bucket, Prefix: prefix}
}

// Location implements Destination.
func (d *ObjectDestination) Location() string {
	return "s3://" + storage.ObjectKey(d.Bucket, d.Prefix)
}

// Put implements Destination. Object stores publish a PUT atomically, so no
// staging is needed.
func (d *ObjectDestination) Put(ctx context.Context, t Transfer) (int64, error) {
	// 1. Open and hash the source
	in, err := os.Open(t.Source)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}
	sum, err := media.HashReader(ctx, in)
	if err != nil {
		return 0, err
	}
	if t.Checksum != "" && !strings.EqualFold(t.Checksum, sum) {
		return 0, fmt.Errorf("source %s changed since indexing", t.Source)
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	// 2. Upload with the signature as metadata
	meta := map[string]string{
		storage.MetaSourceMTime: info.ModTime().UTC().Format(time.RFC3339Nano),
		index.MetaChecksum:      sum,
	}
	if t.Identity.Capture > 0 {
		meta[index.MetaCapture] = strconv.FormatInt(t.Identity.Capture, 10)
	}

	key := storage.ObjectKey(d.Prefix, t.Target)
	uploaded, err := d.Client.PutObject(ctx, d.Bucket, key, media.ContextReader(ctx, in), info.Size(), minio.PutObjectOptions{
		ContentType:  contentType(t.Target),
		UserMetadata: meta,
	})
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}
	if uploaded.Size != info.Size() {
		return 0, fmt.Errorf("size mismatch for %s: uploaded %d of %d bytes", key, uploaded.Size, info.Size())
	}
	return uploaded.Size, nil
}

var mediaTypes = map[string]string{
	".mov": "video/quicktime",
	".mp4": "video/mp4",
	".mxf": "application/mxf",
	".wav": "audio/wav",
}

func contentType(name string) string {
	if ct, ok := mediaTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
