package index

import (
	"encoding/json"
	"sort"
	"time"

	"dailies/core/fault"
	"dailies/core/media"
)

// RootKind names the role of a scanned root.
type RootKind string

const (
	RootCard   RootKind = "CARD"
	RootPool   RootKind = "POOL"
	RootProxy  RootKind = "PROXY"
	RootBackup RootKind = "BACKUP"
)

// Entry is one logical asset within a root. Entries are immutable once the
// index has been built.
type Entry struct {
	// Identity is the resolved identity.
	Identity media.Identity `json:"identity"`
	// RelativePath is the slash-separated path of the first occurrence.
	RelativePath string `json:"relative_path"`
	// Size is the file size in bytes.
	Size int64 `json:"size_bytes"`
	// ModifiedAt is the file modification time.
	ModifiedAt time.Time `json:"modified_at"`
	// CaptureAt is the device capture time, zero when unknown.
	CaptureAt time.Time `json:"capture_at"`
	// Checksum is the hex SHA-256, when computed.
	Checksum string `json:"checksum,omitempty"`
	// Root is the kind of root the entry was scanned from.
	Root RootKind `json:"root"`
	// Duplicates counts additional confirmed copies within the same root.
	Duplicates int `json:"duplicates"`
	// DuplicatePaths lists the additional copies.
	DuplicatePaths []string `json:"duplicate_paths,omitempty"`
}

// FileError is a per-file failure recorded instead of aborting the scan.
type FileError struct {
	// Path is the relative path that failed.
	Path string `json:"path"`
	// Kind classifies the failure.
	Kind fault.Kind `json:"kind"`
	// Message is the error text.
	Message string `json:"message"`
}

// Collision records two distinct files that resolved to one identity. The
// second file is not part of the index.
type Collision struct {
	// Identity is the shared identity.
	Identity media.Identity `json:"identity"`
	// Paths are the kept and the rejected path.
	Paths [2]string `json:"paths"`
	// Message explains why the files could not be confirmed as duplicates.
	Message string `json:"message"`
}

// SetIndex maps identity keys to entries for one root.
type SetIndex struct {
	// Root is the kind of the scanned root.
	Root RootKind
	// Location is the scanned path or bucket URL.
	Location string
	// Errors lists per-file failures.
	Errors []FileError
	// Collisions lists identity collisions.
	Collisions []Collision

	entries map[string]Entry
}

// New returns an empty index.
func New(root RootKind, location string) *SetIndex {
	return &SetIndex{Root: root, Location: location, entries: make(map[string]Entry)}
}

// FromEntries builds an index from already-resolved entries, as produced by
// another process or a stored snapshot. A repeated identity is recorded as a
// collision; the first entry is kept.
func FromEntries(root RootKind, location string, entries ...Entry) *SetIndex {
	idx := New(root, location)
	for _, e := range entries {
		e.Root = root
		if kept, ok := idx.entries[e.Identity.Key()]; ok {
			idx.Collisions = append(idx.Collisions, Collision{
				Identity: e.Identity,
				Paths:    [2]string{kept.RelativePath, e.RelativePath},
				Message:  "duplicate identity in snapshot",
			})
			continue
		}
		idx.put(e)
	}
	return idx
}

// Len returns the number of distinct identities.
func (s *SetIndex) Len() int {
	return len(s.entries)
}

// Get returns the entry for an identity key.
func (s *SetIndex) Get(key string) (Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Keys returns all identity keys in sorted order.
func (s *SetIndex) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns all entries ordered by identity key.
func (s *SetIndex) Entries() []Entry {
	keys := s.Keys()
	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = s.entries[k]
	}
	return out
}

// Partial reports whether the index is incomplete: a file could not be read
// or two files collided. A partial index never authorizes a wipe.
func (s *SetIndex) Partial() bool {
	return len(s.Errors) > 0 || len(s.Collisions) > 0
}

// TotalBytes sums entry sizes, excluding duplicates.
func (s *SetIndex) TotalBytes() int64 {
	var total int64
	for _, e := range s.entries {
		total += e.Size
	}
	return total
}

// Project rebuilds the index under a projected identity. Entries that
// project onto the same identity are recorded as collisions, keeping the
// entry with the lowest original key.
func (s *SetIndex) Project(fn func(media.Identity) media.Identity) *SetIndex {
	out := New(s.Root, s.Location)
	out.Errors = append(out.Errors, s.Errors...)
	out.Collisions = append(out.Collisions, s.Collisions...)

	for _, e := range s.Entries() {
		e.Identity = fn(e.Identity)
		key := e.Identity.Key()
		if kept, ok := out.entries[key]; ok {
			out.Collisions = append(out.Collisions, Collision{
				Identity: e.Identity,
				Paths:    [2]string{kept.RelativePath, e.RelativePath},
				Message:  "distinct files share a projected identity",
			})
			continue
		}
		out.entries[key] = e
	}
	return out
}

// Select returns an index holding only the entries keep accepts. Errors
// and collisions are carried over unchanged.
func (s *SetIndex) Select(keep func(Entry) bool) *SetIndex {
	out := New(s.Root, s.Location)
	out.Errors = append(out.Errors, s.Errors...)
	out.Collisions = append(out.Collisions, s.Collisions...)
	for k, e := range s.entries {
		if keep(e) {
			out.entries[k] = e
		}
	}
	return out
}

// put inserts or replaces an entry; only the indexer calls it.
func (s *SetIndex) put(e Entry) {
	s.entries[e.Identity.Key()] = e
}

type setIndexJSON struct {
	Root       RootKind    `json:"root"`
	Location   string      `json:"location"`
	Partial    bool        `json:"partial"`
	Entries    []Entry     `json:"entries"`
	Errors     []FileError `json:"errors"`
	Collisions []Collision `json:"collisions"`
}

// MarshalJSON renders entries in key order so equal indices serialize to
// equal bytes.
func (s *SetIndex) MarshalJSON() ([]byte, error) {
	return json.Marshal(setIndexJSON{
		Root:       s.Root,
		Location:   s.Location,
		Partial:    s.Partial(),
		Entries:    s.Entries(),
		Errors:     nonNil(s.Errors),
		Collisions: nonNil(s.Collisions),
	})
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
