package pipeline

import (
	"context"
	"fmt"
	"time"

	"dailies/core/executor"
	"dailies/core/gate"
	"dailies/core/index"
	"dailies/core/logger"
	"dailies/core/reconcile"
	"dailies/core/runlog"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job describes one reconciliation.
type Job struct {
	// Command labels the run in the run log (plan, run, wipe...).
	Command string
	// Pair names the roots and placement.
	Pair reconcile.Pair
	// Source scans the authoritative root.
	Source index.Scanner
	// Target scans the root being brought up to date.
	Target index.Scanner
	// Policy configures planning.
	Policy reconcile.Policy
	// Select restricts the source identities taken into account. Nil keeps
	// all of them.
	Select func(index.Entry) bool
	// SelectTarget restricts the target identities the same way.
	SelectTarget func(index.Entry) bool
	// RunID tags the log lines of the job and becomes the run log id. Empty
	// lets the run log assign one.
	RunID string
}

// NewRunID returns a fresh run id.
func NewRunID() string {
	return uuid.NewString()
}

// Planned is the outcome of Plan.
type Planned struct {
	// Source is the source index.
	Source *index.SetIndex
	// Target is the target index.
	Target *index.SetIndex
	// Results holds one classification per identity.
	Results []reconcile.Result
	// Plan is the ordered plan.
	Plan *reconcile.Plan
}

// Runner executes jobs.
type Runner struct {
	indexer *index.Indexer
	store   *runlog.Store
	logger  *zap.Logger
}

// NewRunner creates a runner. A nil store disables the run log.
func NewRunner(indexer *index.Indexer, store *runlog.Store, log *zap.Logger) *Runner {
	if indexer == nil {
		indexer = index.NewIndexer(nil, log)
	}
	return &Runner{indexer: indexer, store: store, logger: logger.OrNop(log)}
}

// Logger returns the runner's logger.
func (r *Runner) Logger() *zap.Logger {
	return r.logger
}

// Log returns the runner's logger tagged with the job's run id.
func (r *Runner) Log(job Job) *zap.Logger {
	return logger.WithRun(r.logger, job.RunID)
}

// Index scans both roots of job concurrently.
func (r *Runner) Index(ctx context.Context, job Job) (*index.SetIndex, *index.SetIndex, error) {
	if job.Pair.Source == job.Pair.Target {
		return nil, nil, fmt.Errorf("pair %s: source and target are both %s", job.Pair.Name, job.Pair.Source)
	}

	out, err := r.indexer.IndexAll(ctx, map[index.RootKind]index.Scanner{
		job.Pair.Source: job.Source,
		job.Pair.Target: job.Target,
	})
	if err != nil {
		return nil, nil, err
	}

	source, target := out[job.Pair.Source], out[job.Pair.Target]
	if job.Select != nil {
		source = source.Select(job.Select)
	}
	if job.SelectTarget != nil {
		target = target.Select(job.SelectTarget)
	}
	return source, target, nil
}

// Plan indexes, reconciles and plans job.
func (r *Runner) Plan(ctx context.Context, job Job) (*Planned, error) {
	source, target, err := r.Index(ctx, job)
	if err != nil {
		return nil, err
	}

	results := reconcile.ForPair(job.Pair, job.Policy).ReconcilePair(job.Pair, source, target)
	plan := reconcile.BuildPlan(job.Pair, source, target, results, job.Policy)

	s := plan.Summary
	r.Log(job).Info("Planned reconciliation",
		zap.String("pair", job.Pair.Name),
		zap.String("source", source.Location),
		zap.String("target", target.Location),
		zap.Int("identities", s.Identities),
		zap.Int("transfers", s.TransferFiles),
		zap.Int64("transfer_bytes", s.TransferBytes),
		zap.Bool("wipe_eligible", plan.WipeEligible))

	return &Planned{Source: source, Target: target, Results: results, Plan: plan}, nil
}

// Execute applies plan with exec.
func (r *Runner) Execute(ctx context.Context, plan *reconcile.Plan, exec *executor.Executor) *executor.Report {
	return exec.Execute(ctx, plan)
}

// Verify evaluates a new gate for plan against a fresh index of both roots.
func (r *Runner) Verify(ctx context.Context, job Job, plan *reconcile.Plan, report *executor.Report) *gate.Gate {
	g := gate.New(plan)
	state := g.Evaluate(ctx, report, func(ctx context.Context) (*index.SetIndex, *index.SetIndex, error) {
		return r.Index(ctx, job)
	})

	fields := []zap.Field{zap.String("pair", job.Pair.Name), zap.String("state", string(state))}
	if state == gate.Rejected {
		fields = append(fields, zap.Int("blockers", len(g.Outcome().Blockers)))
		r.Log(job).Warn("Verification rejected", fields...)
	} else {
		r.Log(job).Info("Verification passed", fields...)
	}
	return g
}

// Record appends a run to the run log. Failures are logged, never returned:
// the run log is an audit trail and must not fail a completed run.
func (r *Runner) Record(ctx context.Context, job Job, started time.Time, p runlog.Payload) string {
	if r.store == nil {
		return ""
	}

	run := &runlog.Run{
		ID:        job.RunID,
		Command:   job.Command,
		Pair:      job.Pair.Name,
		StartedAt: started.UTC(),
	}
	if job.Source != nil {
		run.Source = job.Source.Location()
	}
	if job.Target != nil {
		run.Target = job.Target.Location()
	}

	if err := r.store.Append(ctx, run, p); err != nil {
		r.Log(job).Warn("Failed to append run log", zap.Error(err))
		return ""
	}
	return run.ID
}
