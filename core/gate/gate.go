package gate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dailies/core/executor"
	"dailies/core/fault"
	"dailies/core/index"
	"dailies/core/reconcile"
)

// State is the gate state.
type State string

const (
	// Pending is the initial state.
	Pending State = "PENDING"
	// Verified permits authorization.
	Verified State = "VERIFIED"
	// Rejected is terminal.
	Rejected State = "REJECTED"
)

// Reindexer re-reads the source and target roots of a pair.
type Reindexer func(ctx context.Context) (source, target *index.SetIndex, err error)

// Outcome is the serializable result of an evaluation.
type Outcome struct {
	// State is the gate state after evaluation.
	State State `json:"state"`
	// Blockers lists what prevented verification or authorization.
	Blockers []reconcile.Blocker `json:"blockers"`
	// EvaluatedAt is when the gate was evaluated.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Gate verifies one executed plan.
type Gate struct {
	plan     *reconcile.Plan
	state    State
	blockers []reconcile.Blocker
	fresh    *reconcile.Plan
	at       time.Time
}

// New creates a PENDING gate for plan.
func New(plan *reconcile.Plan) *Gate {
	return &Gate{plan: plan, state: Pending}
}

// State returns the current state.
func (g *Gate) State() State {
	return g.state
}

// Outcome returns the current state and blockers.
func (g *Gate) Outcome() Outcome {
	return Outcome{State: g.state, Blockers: append([]reconcile.Blocker{}, g.blockers...), EvaluatedAt: g.at}
}

// Fresh returns the plan rebuilt from the re-index, or nil before a
// successful re-index.
func (g *Gate) Fresh() *reconcile.Plan {
	return g.fresh
}

// Evaluate checks the executor report and a fresh re-index. A REJECTED gate
// stays rejected and is not re-evaluated.
func (g *Gate) Evaluate(ctx context.Context, report *executor.Report, reindex Reindexer) State {
	if g.state == Rejected {
		return g.state
	}
	g.at = time.Now().UTC()

	// 1. Every transfer succeeded
	blockers := executionBlockers(g.plan, report)

	// 2. Fresh re-index of both roots
	source, target, err := reindex(ctx)
	if err != nil {
		blockers = append(blockers, reconcile.Blocker{Reason: "re-index failed: " + err.Error()})
		return g.finish(blockers)
	}

	pair, policy := g.plan.Pair, g.plan.Policy
	results := reconcile.ForPair(pair, policy).ReconcilePair(pair, source, target)
	g.fresh = reconcile.BuildPlan(pair, source, target, results, policy)

	// 3. The fresh source scan is complete
	for _, e := range source.Errors {
		blockers = append(blockers, reconcile.Blocker{Path: e.Path, Reason: fmt.Sprintf("%s: %s", e.Kind, e.Message)})
	}
	for _, c := range source.Collisions {
		blockers = append(blockers, reconcile.Blocker{
			Key:    c.Identity.Key(),
			Path:   c.Paths[1],
			Reason: fmt.Sprintf("%s: shares identity with %s", fault.Collision, c.Paths[0]),
		})
	}

	// 4. Every source identity is now up to date
	for _, r := range results {
		if r.Source == nil || r.Classification == reconcile.UpToDate {
			continue
		}
		blockers = append(blockers, reconcile.Blocker{
			Key:            r.Key,
			Path:           r.Source.RelativePath,
			Classification: r.Classification,
			Reason:         "not up to date after execution",
		})
	}

	return g.finish(blockers)
}

func (g *Gate) finish(blockers []reconcile.Blocker) State {
	g.blockers = blockers
	if len(blockers) > 0 {
		g.state = Rejected
	} else {
		g.state = Verified
	}
	return g.state
}

func executionBlockers(plan *reconcile.Plan, report *executor.Report) []reconcile.Blocker {
	var blockers []reconcile.Blocker
	results := report.Index()
	for _, it := range plan.Mutations() {
		b := reconcile.Blocker{Key: it.Key, Path: it.SourcePath, Classification: it.Classification}

		res, ok := results.Lookup(it.Key, it.Action)
		switch {
		case !ok:
			b.Reason = "no execution result"
		case res.Succeeded:
			continue
		case res.Error != nil:
			b.Reason = fmt.Sprintf("%s failed: %s", it.Action, res.Error.Error())
		default:
			b.Reason = fmt.Sprintf("%s did not succeed", it.Action)
		}
		blockers = append(blockers, b)
	}
	return blockers
}

// WipeAuthorization permits erasing the listed source files.
type WipeAuthorization struct {
	// Pair is the verified pair.
	Pair string `json:"pair"`
	// Items are the fresh ELIGIBLE_FOR_WIPE items.
	Items []reconcile.Item `json:"items"`
	// Bytes is the total size to be erased.
	Bytes int64 `json:"bytes"`
	// VerifiedAt is when the gate verified the batch.
	VerifiedAt time.Time `json:"verified_at"`
}

// Authorize returns a wipe authorization for a VERIFIED gate whose fresh
// plan is wipe-eligible.
func (g *Gate) Authorize() (*WipeAuthorization, error) {
	switch {
	case g.state == Pending:
		return nil, &RejectedError{State: g.state, Blockers: []reconcile.Blocker{{Reason: "gate not evaluated"}}}
	case g.state == Rejected:
		return nil, &RejectedError{State: g.state, Blockers: g.blockers}
	case !g.fresh.Pair.WipeCandidate():
		return nil, &RejectedError{State: g.state, Blockers: []reconcile.Blocker{{
			Reason: fmt.Sprintf("%s→%s is not a wipe pair", g.fresh.Pair.Source, g.fresh.Pair.Target),
		}}}
	case !g.fresh.WipeEligible:
		return nil, &RejectedError{State: g.state, Blockers: g.fresh.Blockers}
	}

	auth := &WipeAuthorization{Pair: g.plan.Pair.Name, Items: g.fresh.WipeItems(), VerifiedAt: g.at}
	for _, it := range auth.Items {
		auth.Bytes += it.EstimatedBytes * int64(1+len(it.DuplicatePaths))
	}
	return auth, nil
}

// RejectedError lists the identities blocking a wipe.
type RejectedError struct {
	// State is the gate state when authorization was refused.
	State State `json:"state"`
	// Blockers lists the blocking identities.
	Blockers []reconcile.Blocker `json:"blockers"`
}

// Kind implements fault.Kinded.
func (e *RejectedError) Kind() fault.Kind {
	return fault.GateRejected
}

func (e *RejectedError) Error() string {
	parts := make([]string, 0, len(e.Blockers))
	for _, b := range e.Blockers {
		var sb strings.Builder
		if b.Path != "" {
			sb.WriteString(b.Path)
			sb.WriteString(": ")
		}
		if b.Classification != "" {
			sb.WriteString(string(b.Classification))
			sb.WriteString(" ")
		}
		sb.WriteString(b.Reason)
		parts = append(parts, sb.String())
	}
	return fmt.Sprintf("wipe refused (%s), %d blocking: %s", e.State, len(e.Blockers), strings.Join(parts, "; "))
}
