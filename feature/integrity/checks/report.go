package checks

// Status is the outcome of one check.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusError    Status = "error"
	StatusDisabled Status = "disabled"
)

// Result strictly types the outcome of one check.
type Result struct {
	// Name identifies the checked thing (a root name, a binary, a bucket).
	Name string `json:"name"`
	// Status is the outcome.
	Status Status `json:"status"`
	// Detail describes the finding.
	Detail string `json:"detail,omitempty"`
}

// Worst returns the most severe status of results; ok for none.
func Worst(results []Result) Status {
	rank := map[Status]int{StatusDisabled: 0, StatusOK: 0, StatusWarning: 1, StatusError: 2}
	worst := StatusOK
	for _, r := range results {
		if rank[r.Status] > rank[worst] {
			worst = r.Status
		}
	}
	return worst
}
