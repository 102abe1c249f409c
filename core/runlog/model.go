package runlog

import (
	"time"

	"dailies/core/executor"
	"dailies/core/gate"
	"dailies/core/reconcile"
)

// TableName is the run log table.
const TableName = "dailies_runs"

// Run is one run log row.
type Run struct {
	// ID is the run id (UUID).
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// Command is the operation that produced the run (plan, run, wipe...).
	Command string `gorm:"size:32;index" json:"command"`
	// Pair is the reconciled pair name.
	Pair string `gorm:"size:64;index" json:"pair"`
	// Source is the source root location.
	Source string `gorm:"size:512" json:"source"`
	// Target is the target root location.
	Target string `gorm:"size:512" json:"target"`
	// StartedAt is when the run began.
	StartedAt time.Time `gorm:"index" json:"started_at"`
	// FinishedAt is when the run ended.
	FinishedAt time.Time `json:"finished_at"`
	// DryRun is set when nothing was written.
	DryRun bool `json:"dry_run"`
	// Identities is the number of reconciled identities.
	Identities int `json:"identities"`
	// Transfers is the number of planned COPY and TRANSCODE items.
	Transfers int `json:"transfers"`
	// TransferBytes is the planned transfer volume.
	TransferBytes int64 `json:"transfer_bytes"`
	// Succeeded counts published files.
	Succeeded int `json:"succeeded"`
	// Failed counts failed items.
	Failed int `json:"failed"`
	// GateState is the verification outcome, empty when no gate ran.
	GateState string `gorm:"size:16" json:"gate_state,omitempty"`
	// Wiped counts erased card files.
	Wiped int `json:"wiped"`
	// Payload is the compressed JSON Payload.
	Payload []byte `json:"-"`
}

// TableName implements gorm's tabler.
func (Run) TableName() string {
	return TableName
}

// Payload holds the full records of a run.
type Payload struct {
	// Plan is the reconciled plan.
	Plan *reconcile.Plan `json:"plan,omitempty"`
	// Report is the executor report.
	Report *executor.Report `json:"report,omitempty"`
	// Gate is the verification outcome.
	Gate *gate.Outcome `json:"gate,omitempty"`
	// Wiped lists erased card paths.
	Wiped []string `json:"wiped,omitempty"`
	// Artifacts lists files and folders the run produced (manifests,
	// packages).
	Artifacts []string `json:"artifacts,omitempty"`
}

// Summarize fills the summary columns of r from p.
func (r *Run) Summarize(p Payload) {
	if p.Plan != nil {
		r.Pair = p.Plan.Pair.Name
		r.Identities = p.Plan.Summary.Identities
		r.Transfers = p.Plan.Summary.TransferFiles
		r.TransferBytes = p.Plan.Summary.TransferBytes
	}
	if p.Report != nil {
		r.DryRun = p.Report.DryRun
		r.Succeeded = p.Report.Succeeded
		r.Failed = p.Report.Failed
	}
	if p.Gate != nil {
		r.GateState = string(p.Gate.State)
	}
	r.Wiped = len(p.Wiped)
}

var columns = []string{
	"id", "command", "pair", "source", "target", "started_at", "finished_at",
	"dry_run", "identities", "transfers", "transfer_bytes", "succeeded",
	"failed", "gate_state", "wiped", "payload",
}
