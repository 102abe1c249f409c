package ingest

import (
	"path"
	"strings"

	"dailies/core/index"
	"dailies/core/media"
	"dailies/core/reconcile"
)

// BinPlacer places card files at <bin>/<card relative path>.
func BinPlacer(bin string) reconcile.Placer {
	return reconcile.PlacerFunc(func(e index.Entry) string {
		return path.Join(bin, e.RelativePath)
	})
}

// binOf returns the bin folder a pool path lives in, or "" for paths outside
// any bin.
func binOf(rel string) string {
	first, _, _ := strings.Cut(rel, "/")
	if _, ok := media.ParseBin(first); ok {
		return first
	}
	return ""
}
