package index

import (
	"context"
	"errors"

	"dailies/core/media"
)

// ErrRootUnavailable wraps whole-root failures: a missing mount, a missing
// bucket, or a listing that failed outright.
var ErrRootUnavailable = errors.New("root unavailable")

// Record is one item of a scan. Err is set when the file could not be read;
// Meta.Path is always set.
type Record struct {
	Meta media.Metadata
	Err  error
}

// Scanner enumerates the files under one root.
type Scanner interface {
	// Location describes the root for reports.
	Location() string
	// Scan calls emit for every candidate file. It returns an error only
	// when the root as a whole cannot be read.
	Scan(ctx context.Context, emit func(Record)) error
	// Checksum computes the content checksum of one file on demand.
	Checksum(ctx context.Context, rel string) (string, error)
}
