package reconcile

import (
	"fmt"
	"sort"
	"time"

	"dailies/core/index"
	"dailies/core/media"
)

// Comparer classifies an identity present in both indices.
type Comparer interface {
	Compare(src, dst index.Entry) (Classification, string)
}

// MirrorComparer compares byte-for-byte copies (POOL, BACKUP targets).
// Ambiguous signatures classify STALE: a redundant copy is acceptable, a
// skipped different file is not.
type MirrorComparer struct {
	// Tolerance is the largest mtime difference still considered equal.
	Tolerance time.Duration
}

// Compare implements Comparer.
func (c MirrorComparer) Compare(src, dst index.Entry) (Classification, string) {
	// 1. Size is the strongest cheap signal.
	if src.Size != dst.Size {
		return Stale, fmt.Sprintf("size: source=%d target=%d", src.Size, dst.Size)
	}

	// 2. Checksums decide when both are known.
	bothHashed := src.Checksum != "" && dst.Checksum != ""
	if bothHashed && src.Checksum != dst.Checksum {
		return Stale, fmt.Sprintf("checksum: source=%s target=%s", short(src.Checksum), short(dst.Checksum))
	}

	// 3. A target written before the source existed cannot hold it. The
	// source's own mtime bounds the capture time, since camera clocks skew
	// and the executor copies the source mtime onto the target.
	if origin := earliest(src.CaptureAt, src.ModifiedAt); !origin.IsZero() && dst.ModifiedAt.Before(origin.Add(-c.Tolerance)) {
		return Stale, fmt.Sprintf("target predates capture: capture=%s target=%s",
			origin.Format(time.RFC3339), dst.ModifiedAt.Format(time.RFC3339))
	}

	// 4. Equal size but different mtime is ambiguous unless checksums agree.
	if diff := src.ModifiedAt.Sub(dst.ModifiedAt).Abs(); diff > c.Tolerance && !bothHashed {
		return Stale, fmt.Sprintf("mtime: source=%s target=%s",
			src.ModifiedAt.Format(time.RFC3339), dst.ModifiedAt.Format(time.RFC3339))
	}

	return UpToDate, ""
}

// earliest returns the earlier non-zero time, or zero when both are zero.
func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero(), a.Before(b):
		return a
	}
	return b
}

// DerivedComparer compares a source with its transcoded derivative
// (PROXY targets). Sizes differ by construction; a derivative older than its
// source is stale.
type DerivedComparer struct{}

// Compare implements Comparer.
func (DerivedComparer) Compare(src, dst index.Entry) (Classification, string) {
	if dst.ModifiedAt.Before(src.ModifiedAt) {
		return Stale, fmt.Sprintf("derivative older than source: source=%s target=%s",
			src.ModifiedAt.Format(time.RFC3339), dst.ModifiedAt.Format(time.RFC3339))
	}
	return UpToDate, ""
}

// Engine classifies identities between two indices.
type Engine struct {
	comparer Comparer
}

// NewEngine creates an engine with a comparer.
func NewEngine(c Comparer) *Engine {
	return &Engine{comparer: c}
}

// ForPair returns the engine matching a pair's target kind.
func ForPair(pair Pair, policy Policy) *Engine {
	if pair.Derived() {
		return NewEngine(DerivedComparer{})
	}
	return NewEngine(MirrorComparer{Tolerance: policy.MTimeTolerance})
}

// Reconcile classifies every identity of source ∪ target exactly once, with
// the default mirror comparer.
func Reconcile(source, target *index.SetIndex) []Result {
	return NewEngine(MirrorComparer{Tolerance: DefaultPolicy().MTimeTolerance}).Reconcile(source, target)
}

// Reconcile classifies every identity of source ∪ target exactly once. It
// never touches the filesystem and never mutates its inputs. Results are
// ordered by identity key.
func (e *Engine) Reconcile(source, target *index.SetIndex) []Result {
	keys := buildUnion(source, target)
	results := make([]Result, 0, len(keys))

	for _, key := range keys {
		src, inSource := source.Get(key)
		dst, inTarget := target.Get(key)

		switch {
		case inSource && !inTarget:
			results = append(results, Result{Key: key, Identity: src.Identity, Classification: Missing, Source: &src})
		case !inSource && inTarget:
			results = append(results, Result{Key: key, Identity: dst.Identity, Classification: OrphanTarget, Target: &dst})
		default:
			class, reason := e.comparer.Compare(src, dst)
			results = append(results, Result{
				Key:            key,
				Identity:       src.Identity,
				Classification: class,
				Source:         &src,
				Target:         &dst,
				Reason:         reason,
			})
		}
	}
	return results
}

// ReconcilePair reconciles under the pair's identity projection: derived
// pairs match on the size-free identity.
func (e *Engine) ReconcilePair(pair Pair, source, target *index.SetIndex) []Result {
	if pair.Derived() {
		source = source.Project(media.Identity.Derived)
		target = target.Project(media.Identity.Derived)
	}
	return e.Reconcile(source, target)
}

// buildUnion returns the sorted union of keys from both indices.
func buildUnion(source, target *index.SetIndex) []string {
	union := make(map[string]struct{}, source.Len()+target.Len())
	for _, k := range source.Keys() {
		union[k] = struct{}{}
	}
	for _, k := range target.Keys() {
		union[k] = struct{}{}
	}

	keys := make([]string, 0, len(union))
	for k := range union {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func short(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
