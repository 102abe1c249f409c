package checks

import (
	"os/exec"
	"sort"
)

// Tool is a binary to look up and the status reported when it is missing.
type Tool struct {
	// Binary is the executable name or path.
	Binary string
	// Missing is the status when the binary cannot be found.
	Missing Status
}

// CheckTools looks up each binary on PATH. Proxy generation needs ffmpeg;
// capture-time probing needs ffprobe and degrades to size-keyed identities
// without it.
func CheckTools(tools []Tool) []Result {
	sort.SliceStable(tools, func(i, j int) bool { return tools[i].Binary < tools[j].Binary })
	results := make([]Result, 0, len(tools))
	for _, t := range tools {
		path, err := exec.LookPath(t.Binary)
		if err != nil {
			results = append(results, Result{Name: t.Binary, Status: t.Missing, Detail: err.Error()})
			continue
		}
		results = append(results, Result{Name: t.Binary, Status: StatusOK, Detail: path})
	}
	return results
}
