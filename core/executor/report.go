package executor

import (
	"time"

	"dailies/core/fault"
	"dailies/core/media"
	"dailies/core/reconcile"
)

// Result is the outcome of one plan item.
type Result struct {
	// Key is the identity key of the item.
	Key string `json:"key"`
	// Identity is the item's identity.
	Identity media.Identity `json:"identity"`
	// Action is the planned action.
	Action reconcile.Action `json:"action"`
	// SourcePath is the source path relative to the source root.
	SourcePath string `json:"source_path,omitempty"`
	// TargetPath is the target path relative to the destination root.
	TargetPath string `json:"target_path,omitempty"`
	// Attempted reports whether a write was started.
	Attempted bool `json:"attempted"`
	// Succeeded reports whether the file was published.
	Succeeded bool `json:"succeeded"`
	// Attempts is the number of tries made.
	Attempts int `json:"attempts,omitempty"`
	// Bytes is the number of bytes written.
	Bytes int64 `json:"bytes,omitempty"`
	// Error is set when a mutating item did not succeed.
	Error *fault.Error `json:"error,omitempty"`
}

// Report collects the results of one execution.
type Report struct {
	// Pair is the name of the executed pair.
	Pair string `json:"pair"`
	// Destination describes where files were written.
	Destination string `json:"destination"`
	// DryRun is set when nothing was written.
	DryRun bool `json:"dry_run"`
	// StartedAt is when execution began.
	StartedAt time.Time `json:"started_at"`
	// FinishedAt is when the last item completed.
	FinishedAt time.Time `json:"finished_at"`
	// Results holds one entry per plan item, in plan order.
	Results []Result `json:"results"`
	// Succeeded counts published files.
	Succeeded int `json:"succeeded"`
	// Failed counts attempted items that did not succeed.
	Failed int `json:"failed"`
	// Cancelled counts items abandoned after cancellation.
	Cancelled int `json:"cancelled"`
	// Bytes is the total written.
	Bytes int64 `json:"bytes"`
}

func (r *Report) tally() {
	r.Succeeded, r.Failed, r.Cancelled, r.Bytes = 0, 0, 0, 0
	for _, res := range r.Results {
		switch {
		case res.Succeeded:
			r.Succeeded++
			r.Bytes += res.Bytes
		case res.Error != nil && res.Error.Kind == fault.Cancelled:
			r.Cancelled++
		case res.Attempted:
			r.Failed++
		}
	}
}

// Failures returns the mutating items that did not succeed.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Action.Mutating() && !res.Succeeded {
			out = append(out, res)
		}
	}
	return out
}

// Complete reports whether every mutating item succeeded.
func (r *Report) Complete() bool {
	return len(r.Failures()) == 0
}

type resultKey struct {
	key    string
	action reconcile.Action
}

// ResultIndex finds results by identity key and action.
type ResultIndex map[resultKey]Result

// Index builds a ResultIndex over the report. A nil report yields an empty
// index.
func (r *Report) Index() ResultIndex {
	if r == nil {
		return nil
	}
	ix := make(ResultIndex, len(r.Results))
	for _, res := range r.Results {
		k := resultKey{res.Key, res.Action}
		if _, dup := ix[k]; !dup {
			ix[k] = res
		}
	}
	return ix
}

// Lookup returns the result for an identity key and action.
func (ix ResultIndex) Lookup(key string, action reconcile.Action) (Result, bool) {
	res, ok := ix[resultKey{key, action}]
	return res, ok
}
