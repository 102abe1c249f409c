package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LinkDestination publishes hard links instead of copies. When a link
// cannot be made, typically across volumes, the file is copied.
type LinkDestination struct {
	FSDestination
}

// NewLinkDestination creates a hard-link destination rooted at root.
func NewLinkDestination(root string) *LinkDestination {
	return &LinkDestination{FSDestination: FSDestination{Root: root}}
}

// Put implements Destination.
func (d *LinkDestination) Put(ctx context.Context, t Transfer) (int64, error) {
	info, err := os.Stat(t.Source)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("source %s is not a regular file", t.Source)
	}

	target := filepath.Join(d.Root, filepath.FromSlash(t.Target))
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	staged := filepath.Join(dir, StagingName(filepath.Base(target)))
	if err := os.Link(t.Source, staged); err != nil {
		return d.FSDestination.Put(ctx, t)
	}
	if err := os.Rename(staged, target); err != nil {
		_ = os.Remove(staged)
		return 0, fmt.Errorf("publish %s: %w", t.Target, err)
	}
	return info.Size(), nil
}
