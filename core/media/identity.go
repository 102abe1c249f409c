package media

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"dailies/core/fault"
)

// DefaultSuffixPatterns are the stem suffixes added by pipeline stages:
// proxy naming and the collision renamer.
var DefaultSuffixPatterns = []string{
	`__dup\d+$`,
	`[._]proxy$`,
}

// derivedSize marks an identity projected for derived (transcoded) media.
const derivedSize = -1

// Identity is the path-independent key of one logical media asset.
type Identity struct {
	// Stem is the normalized original-name stem.
	Stem string `json:"stem"`
	// Size is the content size in bytes, or -1 for a derived projection.
	Size int64 `json:"size"`
	// Capture is the device capture time (unix seconds), 0 when unknown.
	Capture int64 `json:"capture"`
	// Checksum is the hex SHA-256 of the content, when computed.
	Checksum string `json:"checksum,omitempty"`
}

// Key returns the deterministic sort and lookup key.
//
// A known capture time pins the take, so the key is stem and capture and a
// size difference against another root is a signature mismatch (STALE).
// Without a capture time the size joins the key, which keeps a reset clip
// counter on a later card from matching an earlier day's file. The checksum
// is never part of the key; it only confirms or refutes a match.
func (i Identity) Key() string {
	switch {
	case i.Capture != 0:
		return fmt.Sprintf("%s@%d", i.Stem, i.Capture)
	case i.Size == derivedSize:
		return i.Stem + "#*"
	default:
		return fmt.Sprintf("%s#%d", i.Stem, i.Size)
	}
}

// Derived projects the identity for pairs whose target is a transcoded
// derivative, whose size never matches the source.
func (i Identity) Derived() Identity {
	return Identity{Stem: i.Stem, Size: derivedSize, Capture: i.Capture}
}

// IsDerived reports whether the identity is a derived projection.
func (i Identity) IsDerived() bool {
	return i.Size == derivedSize
}

func (i Identity) String() string {
	return i.Key()
}

// Metadata is one record from a scanner.
type Metadata struct {
	// Path is the slash-separated path relative to the scanned root.
	Path string
	// Size is the file size in bytes.
	Size int64
	// ModifiedAt is the file modification time.
	ModifiedAt time.Time
	// CaptureAt is the device-embedded capture time, zero when unavailable.
	CaptureAt time.Time
	// Checksum is the hex SHA-256 of the content, when computed.
	Checksum string
}

// Resolver computes identities from metadata.
type Resolver struct {
	suffixes []*regexp.Regexp
}

// NewResolver compiles the suffix patterns stripped from stems. Patterns are
// matched against the lowercased stem. Nil patterns select the defaults.
func NewResolver(patterns []string) (*Resolver, error) {
	if patterns == nil {
		patterns = DefaultSuffixPatterns
	}
	r := &Resolver{}
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid stem suffix pattern %q: %w", p, err)
		}
		r.suffixes = append(r.suffixes, re)
	}
	return r, nil
}

// MustResolver is NewResolver with the default patterns.
func MustResolver() *Resolver {
	r, err := NewResolver(nil)
	if err != nil {
		panic(err)
	}
	return r
}

// Stem normalizes a file name: base name, extension removed, case folded,
// configured suffixes stripped until none applies.
func (r *Resolver) Stem(name string) string {
	base := path.Base(filepath.ToSlash(name))
	base = strings.TrimSuffix(base, path.Ext(base))
	stem := strings.ToLower(base)

	for changed := true; changed; {
		changed = false
		for _, re := range r.suffixes {
			if loc := re.FindStringIndex(stem); loc != nil && loc[0] > 0 {
				stem = stem[:loc[0]]
				changed = true
			}
		}
	}
	return stem
}

// Resolve computes the identity of a file. It is pure: the same metadata
// always yields the same identity, and the directory never contributes.
func (r *Resolver) Resolve(m Metadata) Identity {
	var capture int64
	if !m.CaptureAt.IsZero() {
		capture = m.CaptureAt.Unix()
	}
	return Identity{
		Stem:     r.Stem(m.Path),
		Size:     m.Size,
		Capture:  capture,
		Checksum: m.Checksum,
	}
}

// CollisionError reports two distinct files that share one identity.
type CollisionError struct {
	// Identity is the shared identity.
	Identity Identity `json:"identity"`
	// Paths holds both candidate paths.
	Paths [2]string `json:"paths"`
	// Checksums holds both candidate checksums (empty when not computed).
	Checksums [2]string `json:"checksums"`
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("identity collision on %s: %q and %q", e.Identity.Key(), e.Paths[0], e.Paths[1])
}

// Kind implements fault.Kinded.
func (e *CollisionError) Kind() fault.Kind {
	return fault.Collision
}

// Confirm decides whether two files with the same identity are true
// duplicates. Only equal, non-empty checksums prove it; anything else is a
// collision that must never be merged.
func (r *Resolver) Confirm(a, b Metadata) error {
	if a.Checksum != "" && a.Checksum == b.Checksum {
		return nil
	}
	return &CollisionError{
		Identity:  r.Resolve(a),
		Paths:     [2]string{a.Path, b.Path},
		Checksums: [2]string{a.Checksum, b.Checksum},
	}
}
