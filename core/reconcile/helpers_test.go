package reconcile

import (
	"time"

	"dailies/core/index"
	"dailies/core/media"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// clip builds an entry for a clip captured at t0 and written at mtime.
func clip(name string, size int64, rel string, mtime time.Time) index.Entry {
	id := media.MustResolver().Resolve(media.Metadata{Path: name, Size: size, CaptureAt: t0})
	return index.Entry{
		Identity:     id,
		RelativePath: rel,
		Size:         size,
		ModifiedAt:   mtime,
		CaptureAt:    t0,
	}
}

// untimed builds an entry for a file without a known capture time (audio,
// or video when ffprobe is unavailable).
func untimed(name string, size int64, rel string, mtime time.Time) index.Entry {
	id := media.MustResolver().Resolve(media.Metadata{Path: name, Size: size})
	return index.Entry{Identity: id, RelativePath: rel, Size: size, ModifiedAt: mtime}
}

func card(entries ...index.Entry) *index.SetIndex {
	return index.FromEntries(index.RootCard, "/Volumes/CARD", entries...)
}

func pool(entries ...index.Entry) *index.SetIndex {
	return index.FromEntries(index.RootPool, "/Volumes/POOL", entries...)
}

var ingestPair = Pair{Name: "ingest", Source: index.RootCard, Target: index.RootPool}

func classes(results []Result) map[string]Classification {
	out := make(map[string]Classification, len(results))
	for _, r := range results {
		out[r.Identity.Stem] = r.Classification
	}
	return out
}

func actions(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, string(it.Action)+" "+it.Identity.Stem)
	}
	return out
}
