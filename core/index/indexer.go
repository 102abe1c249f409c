package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"dailies/core/fault"
	"dailies/core/logger"
	"dailies/core/media"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Indexer builds SetIndex values from scanners.
type Indexer struct {
	resolver *media.Resolver
	logger   *zap.Logger
}

// NewIndexer creates an indexer. A nil resolver selects the defaults.
func NewIndexer(resolver *media.Resolver, l *zap.Logger) *Indexer {
	if resolver == nil {
		resolver = media.MustResolver()
	}
	return &Indexer{resolver: resolver, logger: logger.OrNop(l)}
}

// Resolver returns the identity resolver in use.
func (ix *Indexer) Resolver() *media.Resolver {
	return ix.resolver
}

// Index scans a root once and builds its SetIndex. Only a whole-root failure
// or cancellation is returned as an error; unreadable files and collisions
// are recorded in the index, which then reports Partial.
func (ix *Indexer) Index(ctx context.Context, scanner Scanner, kind RootKind) (*SetIndex, error) {
	l := ix.logger.With(zap.String("root", string(kind)), zap.String("location", scanner.Location()))
	l.Debug("Indexing root")

	// 1. Collect every record; scanners may emit in any order.
	var records []Record
	if err := scanner.Scan(ctx, func(r Record) { records = append(records, r) }); err != nil {
		return nil, fmt.Errorf("index %s: %w", kind, err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Meta.Path < records[j].Meta.Path
	})

	// 2. Resolve and insert in path order so the kept entry is deterministic.
	idx := New(kind, scanner.Location())
	metas := make(map[string]media.Metadata)
	for _, rec := range records {
		if rec.Err != nil {
			idx.Errors = append(idx.Errors, FileError{
				Path:    rec.Meta.Path,
				Kind:    fault.KindOf(rec.Err, fault.Indexing),
				Message: rec.Err.Error(),
			})
			continue
		}

		id := ix.resolver.Resolve(rec.Meta)
		key := id.Key()
		existing, ok := idx.Get(key)
		if !ok {
			metas[key] = rec.Meta
			idx.put(newEntry(id, rec.Meta, kind))
			continue
		}

		// 3. Same identity twice: a duplicate only when checksums prove it.
		first, second, err := ix.confirmable(ctx, scanner, metas[key], rec.Meta)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("index %s: %w", kind, ctx.Err())
			}
			idx.Errors = append(idx.Errors, FileError{
				Path:    rec.Meta.Path,
				Kind:    fault.KindOf(err, fault.Indexing),
				Message: err.Error(),
			})
		}
		metas[key] = first

		if confirmErr := ix.resolver.Confirm(first, second); confirmErr != nil {
			msg := "checksums differ"
			var ce *media.CollisionError
			if errors.As(confirmErr, &ce) && (ce.Checksums[0] == "" || ce.Checksums[1] == "") {
				msg = "checksum could not be established"
			}
			idx.Collisions = append(idx.Collisions, Collision{
				Identity: id,
				Paths:    [2]string{existing.RelativePath, rec.Meta.Path},
				Message:  msg,
			})
			continue
		}

		existing.Checksum = first.Checksum
		existing.Identity.Checksum = first.Checksum
		existing.Duplicates++
		existing.DuplicatePaths = append(existing.DuplicatePaths, rec.Meta.Path)
		idx.put(existing)
	}

	l.Info("Indexed root",
		zap.Int("entries", idx.Len()),
		zap.Int("errors", len(idx.Errors)),
		zap.Int("collisions", len(idx.Collisions)),
		zap.Bool("partial", idx.Partial()),
	)
	return idx, nil
}

// confirmable fills in missing checksums of both candidates.
func (ix *Indexer) confirmable(ctx context.Context, scanner Scanner, a, b media.Metadata) (media.Metadata, media.Metadata, error) {
	var errs []error
	if a.Checksum == "" {
		sum, err := scanner.Checksum(ctx, a.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Path, err))
		}
		a.Checksum = sum
	}
	if b.Checksum == "" {
		sum, err := scanner.Checksum(ctx, b.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Path, err))
		}
		b.Checksum = sum
	}
	return a, b, errors.Join(errs...)
}

func newEntry(id media.Identity, m media.Metadata, kind RootKind) Entry {
	return Entry{
		Identity:     id,
		RelativePath: m.Path,
		Size:         m.Size,
		ModifiedAt:   m.ModifiedAt,
		CaptureAt:    m.CaptureAt,
		Checksum:     m.Checksum,
		Root:         kind,
	}
}

// IndexAll indexes independent roots concurrently. The first whole-root
// failure cancels the others.
func (ix *Indexer) IndexAll(ctx context.Context, sources map[RootKind]Scanner) (map[RootKind]*SetIndex, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	out := make(map[RootKind]*SetIndex, len(sources))
	for kind, scanner := range sources {
		g.Go(func() error {
			idx, err := ix.Index(gctx, scanner, kind)
			if err != nil {
				return err
			}
			mu.Lock()
			out[kind] = idx
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
