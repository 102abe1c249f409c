package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"dailies/core/logger"
	"dailies/core/media"
	"dailies/core/retry"

	"go.uber.org/zap"
)

// FSScanner scans a directory tree. Every filesystem call runs under the
// retry policy so a hung mount surfaces as a per-file timeout.
type FSScanner struct {
	// Root is the absolute root directory.
	Root string
	// Filter selects the files to index.
	Filter media.Filter
	// Prober extracts capture times. Nil disables probing.
	Prober media.Prober
	// HashContents computes a checksum for every file.
	HashContents bool
	// Retry wraps every stat, read and hash.
	Retry retry.Policy
	// Logger receives debug output.
	Logger *zap.Logger
	// Optional treats a root that does not exist yet as empty. Only set it
	// for targets the executor creates on demand.
	Optional bool
}

// Location implements Scanner.
func (s *FSScanner) Location() string {
	return s.Root
}

// Scan implements Scanner. Directories are visited in lexical order.
func (s *FSScanner) Scan(ctx context.Context, emit func(Record)) error {
	var info os.FileInfo
	err := retry.Do(ctx, s.Retry, "stat root", func(context.Context) error {
		var statErr error
		info, statErr = os.Stat(s.Root)
		return statErr
	})
	if err != nil {
		if s.Optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", ErrRootUnavailable, s.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRootUnavailable, s.Root)
	}

	return s.walk(ctx, "", emit)
}

func (s *FSScanner) walk(ctx context.Context, rel string, emit func(Record)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Join(s.Root, filepath.FromSlash(rel))
	var entries []os.DirEntry
	err := retry.Do(ctx, s.Retry, "read dir", func(context.Context) error {
		var readErr error
		entries, readErr = os.ReadDir(dir)
		return readErr
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if rel == "" {
			return fmt.Errorf("%w: %s: %v", ErrRootUnavailable, s.Root, err)
		}
		emit(Record{Meta: media.Metadata{Path: rel}, Err: err})
		return nil
	}

	for _, d := range entries {
		child := path.Join(rel, d.Name())
		switch {
		case d.IsDir():
			if s.Filter.SkipDir(d.Name()) {
				continue
			}
			if err := s.walk(ctx, child, emit); err != nil {
				return err
			}
		case d.Type().IsRegular():
			if s.Filter.SkipFile(d.Name()) {
				continue
			}
			rec := s.record(ctx, child)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			emit(rec)
		}
	}
	return nil
}

func (s *FSScanner) record(ctx context.Context, rel string) Record {
	abs := filepath.Join(s.Root, filepath.FromSlash(rel))
	meta := media.Metadata{Path: rel}

	var info os.FileInfo
	err := retry.Do(ctx, s.Retry, "stat", func(context.Context) error {
		var statErr error
		info, statErr = os.Lstat(abs)
		return statErr
	})
	if err != nil {
		return Record{Meta: meta, Err: err}
	}
	meta.Size = info.Size()
	meta.ModifiedAt = info.ModTime().UTC()

	if s.Prober != nil {
		meta.CaptureAt = s.probe(ctx, abs)
	}

	if s.HashContents {
		sum, err := s.Checksum(ctx, rel)
		if err != nil {
			return Record{Meta: meta, Err: err}
		}
		meta.Checksum = sum
	}
	return Record{Meta: meta}
}

// probe never fails the record: a file without a readable capture time
// resolves with capture 0.
func (s *FSScanner) probe(ctx context.Context, abs string) time.Time {
	var ts time.Time
	err := retry.Do(ctx, s.Retry, "probe", func(ctx context.Context) error {
		var probeErr error
		ts, probeErr = s.Prober.CaptureTime(ctx, abs)
		return retry.Permanent(probeErr)
	})
	if err != nil {
		logger.OrNop(s.Logger).Debug("Capture time unavailable", zap.String("path", abs), zap.Error(err))
		return time.Time{}
	}
	return ts
}

// Checksum implements Scanner.
func (s *FSScanner) Checksum(ctx context.Context, rel string) (string, error) {
	abs := filepath.Join(s.Root, filepath.FromSlash(rel))
	var sum string
	err := retry.Do(ctx, s.Retry, "hash", func(ctx context.Context) error {
		var hashErr error
		sum, hashErr = media.HashFile(ctx, abs)
		return hashErr
	})
	return sum, err
}
