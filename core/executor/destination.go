package executor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dailies/core/media"

	"github.com/google/uuid"
)

// Transfer describes one file write.
type Transfer struct {
	// Source is the absolute path of the file to read.
	Source string
	// Target is the slash-separated path relative to the destination root.
	Target string
	// Identity is the identity being transferred.
	Identity media.Identity
	// Checksum is the checksum the source was indexed with, if known. A
	// source whose content no longer matches is refused.
	Checksum string
}

// Destination receives transferred files.
type Destination interface {
	// Location describes the destination for reports.
	Location() string
	// Put writes t and returns the number of bytes written. It either
	// publishes the complete file or leaves the target untouched.
	Put(ctx context.Context, t Transfer) (int64, error)
}

// FSDestination writes into a directory tree with atomic renames.
type FSDestination struct {
	// Root is the absolute destination root.
	Root string
}

// NewFSDestination creates a filesystem destination rooted at root.
func NewFSDestination(root string) *FSDestination {
	return &FSDestination{Root: root}
}

// Location implements Destination.
func (d *FSDestination) Location() string {
	return d.Root
}

// StagingName returns a fresh staging file name for target name.
func StagingName(name string) string {
	return "." + name + media.StagingMarker + uuid.NewString()
}

// Put implements Destination.
func (d *FSDestination) Put(ctx context.Context, t Transfer) (written int64, err error) {
	// 1. Open the source
	in, err := os.Open(t.Source)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("source %s is not a regular file", t.Source)
	}

	// 2. Stage next to the target so the rename stays on one volume
	target := filepath.Join(d.Root, filepath.FromSlash(t.Target))
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	staged := filepath.Join(dir, StagingName(filepath.Base(target)))
	out, err := os.OpenFile(staged, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create staging file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(staged)
		}
	}()

	// 3. Copy while hashing the source
	h := sha256.New()
	written, err = io.Copy(out, io.TeeReader(media.ContextReader(ctx, in), h))
	if err != nil {
		return 0, fmt.Errorf("copy %s: %w", t.Target, err)
	}
	if err = out.Sync(); err != nil {
		return 0, fmt.Errorf("sync %s: %w", staged, err)
	}
	if err = out.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", staged, err)
	}

	// 4. Verify
	if written != info.Size() {
		err = fmt.Errorf("size mismatch for %s: copied %d of %d bytes", t.Target, written, info.Size())
		return 0, err
	}
	srcSum := hex.EncodeToString(h.Sum(nil))
	if t.Checksum != "" && !strings.EqualFold(t.Checksum, srcSum) {
		err = fmt.Errorf("source %s changed since indexing", t.Source)
		return 0, err
	}
	dstSum, err := media.HashFile(ctx, staged)
	if err != nil {
		return 0, fmt.Errorf("verify %s: %w", t.Target, err)
	}
	if dstSum != srcSum {
		err = fmt.Errorf("checksum mismatch for %s: source=%s staged=%s", t.Target, srcSum, dstSum)
		return 0, err
	}

	// 5. Carry the source mtime and publish
	mtime := info.ModTime()
	if err = os.Chtimes(staged, time.Now(), mtime); err != nil {
		return 0, fmt.Errorf("set mtime on %s: %w", staged, err)
	}
	if err = os.Rename(staged, target); err != nil {
		return 0, fmt.Errorf("publish %s: %w", t.Target, err)
	}
	return written, nil
}
