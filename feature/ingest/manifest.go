package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dailies/core/media"
	"dailies/core/reconcile"
)

// ManifestEntry locates one card identity in the pool.
type ManifestEntry struct {
	// Identity is the reconciled identity.
	Identity media.Identity `json:"identity"`
	// Key is the identity key.
	Key string `json:"key"`
	// SourcePath is the path on the card.
	SourcePath string `json:"source_path"`
	// FinalPath is the path relative to the pool root.
	FinalPath string `json:"final_path"`
	// Bin is the pool bin holding FinalPath, empty outside any bin.
	Bin string `json:"bin"`
	// Copied is set when this run copied the file; otherwise it was already
	// present in the pool.
	Copied bool `json:"copied"`
}

// Manifest is handed to the editing application after a verified ingest.
type Manifest struct {
	// Bin is the bin new files were placed in.
	Bin string `json:"bin"`
	// CreatedAt is when the manifest was built.
	CreatedAt time.Time `json:"created_at"`
	// Card is the card root.
	Card string `json:"card"`
	// Pool is the pool root.
	Pool string `json:"pool"`
	// Entries are ordered by identity key.
	Entries []ManifestEntry `json:"entries"`
}

// BuildManifest lists where every card identity ended up. fresh is the plan
// rebuilt by a VERIFIED gate, in which every card identity is up to date;
// executed is the plan that was run.
func BuildManifest(bin string, executed, fresh *reconcile.Plan, at time.Time) *Manifest {
	copied := make(map[string]bool)
	for _, it := range executed.Mutations() {
		copied[it.Key] = true
	}

	m := &Manifest{Bin: bin, CreatedAt: at.UTC(), Entries: []ManifestEntry{}}
	for _, it := range fresh.Items {
		if it.Classification != reconcile.UpToDate || it.Action == reconcile.ActionEligibleForWipe {
			continue
		}
		m.Entries = append(m.Entries, ManifestEntry{
			Identity:   it.Identity,
			Key:        it.Key,
			SourcePath: it.SourcePath,
			FinalPath:  it.TargetPath,
			Bin:        binOf(it.TargetPath),
			Copied:     copied[it.Key],
		})
	}
	return m
}

// WriteManifest writes m as <dir>/<bin>_<timestamp>.json and returns the path.
func WriteManifest(dir string, m *Manifest) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create manifest dir: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", m.Bin, m.CreatedAt.Format("20060102T150405Z"))
	final := filepath.Join(dir, name)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to publish manifest: %w", err)
	}
	return final, nil
}
