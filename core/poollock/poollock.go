// Package poollock keeps two processes from mutating the same root at once.
//
// Every root a command writes to (or wipes) is locked with an exclusive
// advisory lock on "<root>/.sync.lock". Locks are taken in lexical order and
// never waited for: a held lock fails the command immediately.
package poollock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"dailies/core/media"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds a root's lock.
var ErrLocked = errors.New("root is locked by another process")

// Lock holds the locks of one or more roots.
type Lock struct {
	locks []*flock.Flock
}

// Path returns the lock file path for root.
func Path(root string) string {
	return filepath.Join(root, media.LockFileName)
}

// Acquire locks every root or none of them.
func Acquire(roots ...string) (*Lock, error) {
	unique := make(map[string]struct{}, len(roots))
	var sorted []string
	for _, r := range roots {
		r = filepath.Clean(r)
		if _, ok := unique[r]; ok {
			continue
		}
		unique[r] = struct{}{}
		sorted = append(sorted, r)
	}
	sort.Strings(sorted)

	l := &Lock{}
	for _, root := range sorted {
		if _, err := os.Stat(root); err != nil {
			_ = l.Release()
			return nil, fmt.Errorf("lock %s: %w", root, err)
		}

		fl := flock.New(Path(root))
		ok, err := fl.TryLock()
		if err != nil {
			_ = l.Release()
			return nil, fmt.Errorf("acquire lock on %s: %w", root, err)
		}
		if !ok {
			_ = l.Release()
			return nil, fmt.Errorf("%w: %s", ErrLocked, root)
		}
		l.locks = append(l.locks, fl)
	}
	return l, nil
}

// Release unlocks every held root. The lock files are left in place.
func (l *Lock) Release() error {
	var errs []error
	for i := len(l.locks) - 1; i >= 0; i-- {
		if err := l.locks[i].Unlock(); err != nil {
			errs = append(errs, err)
		}
	}
	l.locks = nil
	return errors.Join(errs...)
}
