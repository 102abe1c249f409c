package pipeline

import (
	"dailies/core/index"
	"dailies/core/media"
	"dailies/core/retry"
	"dailies/core/storage"

	"go.uber.org/zap"
)

// Scan configures the scanners built for a job.
type Scan struct {
	// Filter selects the files to index.
	Filter media.Filter
	// Prober extracts capture times. Nil disables probing.
	Prober media.Prober
	// Hash computes checksums for every file while indexing.
	Hash bool
	// Retry wraps filesystem and storage calls.
	Retry retry.Policy
	// Logger receives scanner debug output.
	Logger *zap.Logger
}

// FS returns a filesystem scanner for root.
func (s Scan) FS(root string) *index.FSScanner {
	return &index.FSScanner{
		Root:         root,
		Filter:       s.Filter,
		Prober:       s.Prober,
		HashContents: s.Hash,
		Retry:        s.Retry,
		Logger:       s.Logger,
	}
}

// Object returns an object-storage scanner for a bucket prefix.
func (s Scan) Object(client storage.Client, bucket, prefix string) *index.ObjectScanner {
	return &index.ObjectScanner{
		Client: client,
		Bucket: bucket,
		Prefix: prefix,
		Filter: s.Filter,
		Retry:  s.Retry,
	}
}

// WithClasses returns a copy of s restricted to classes.
func (s Scan) WithClasses(classes ...media.Class) Scan {
	s.Filter.Classes = classes
	return s
}

// WithSkipDirs returns a copy of s that also skips dirs.
func (s Scan) WithSkipDirs(dirs ...string) Scan {
	s.Filter.SkipDirs = append(append([]string{}, s.Filter.SkipDirs...), dirs...)
	return s
}

// NewScan builds the scan settings from the index configuration.
func NewScan(cfg index.Config, policy retry.Policy, l *zap.Logger) Scan {
	return Scan{
		Filter: media.Filter{Classes: media.ParseClasses(cfg.Classes)},
		Prober: cfg.Prober(),
		Hash:   cfg.Hash,
		Retry:  policy,
		Logger: l,
	}
}
