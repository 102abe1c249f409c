package checks

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dailies/core/media"
)

// CheckRoots verifies every named root. An empty path is reported as
// disabled; staging files older than staleAfter are reported as warnings.
func CheckRoots(roots map[string]string, staleAfter time.Duration, now time.Time) []Result {
	names := make([]string, 0, len(roots))
	for name := range roots {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]Result, 0, len(names))
	for _, name := range names {
		results = append(results, checkRoot(name, roots[name], staleAfter, now))
	}
	return results
}

func checkRoot(name, root string, staleAfter time.Duration, now time.Time) Result {
	if strings.TrimSpace(root) == "" {
		return Result{Name: name, Status: StatusDisabled, Detail: "not configured"}
	}

	info, err := os.Stat(root)
	if err != nil {
		return Result{Name: name, Status: StatusError, Detail: err.Error()}
	}
	if !info.IsDir() {
		return Result{Name: name, Status: StatusError, Detail: root + " is not a directory"}
	}

	stale, err := staleStaging(root, staleAfter, now)
	if err != nil {
		return Result{Name: name, Status: StatusError, Detail: fmt.Sprintf("walk %s: %v", root, err)}
	}
	if stale > 0 {
		return Result{Name: name, Status: StatusWarning, Detail: fmt.Sprintf("%s: %d stale staging file(s) from an interrupted run", root, stale)}
	}
	return Result{Name: name, Status: StatusOK, Detail: root}
}

func staleStaging(root string, staleAfter time.Duration, now time.Time) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if d.IsDir() || !strings.Contains(d.Name(), media.StagingMarker) {
			return nil
		}
		if info, err := d.Info(); err == nil && now.Sub(info.ModTime()) >= staleAfter {
			count++
		}
		return nil
	})
	return count, err
}
