package executor

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dailies/core/media"
)

// CleanStaging removes staging files under root older than maxAge and
// returns their paths. Young staging files may belong to a running copy and
// are left alone.
func CleanStaging(root string, maxAge time.Duration, now time.Time) ([]string, error) {
	var removed []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), ".") || !strings.Contains(d.Name(), media.StagingMarker) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime()) < maxAge {
			return nil
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
		removed = append(removed, p)
		return nil
	})
	return removed, err
}
