package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"dailies/core/fault"
	"dailies/core/logger"
	"dailies/core/media"
	"dailies/core/reconcile"
	"dailies/core/retry"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Transcoder produces a derived file from a source file. The returned path
// is a temporary file owned by the caller.
type Transcoder interface {
	Transcode(ctx context.Context, sourcePath, profile string) (string, error)
}

// Executor applies plans against one source root and one destination.
type Executor struct {
	sourceRoot string
	dest       Destination
	transcoder Transcoder
	workers    int
	dryRun     bool
	retry      retry.Policy
	logger     *zap.Logger
	locks      keyedMutex
}

// New creates an executor reading relative source paths from sourceRoot.
func New(cfg Config, sourceRoot string, dest Destination, log *zap.Logger) *Executor {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		sourceRoot: sourceRoot,
		dest:       dest,
		workers:    workers,
		dryRun:     cfg.DryRun,
		retry:      retry.DefaultPolicy(),
		logger:     logger.OrNop(log),
	}
}

// WithTranscoder sets the collaborator used for TRANSCODE items.
func (e *Executor) WithTranscoder(t Transcoder) *Executor {
	e.transcoder = t
	return e
}

// WithRetry replaces the default retry policy.
func (e *Executor) WithRetry(p retry.Policy) *Executor {
	e.retry = p
	return e
}

// Execute applies every COPY and TRANSCODE item of plan. It always returns a
// report with one result per plan item.
func (e *Executor) Execute(ctx context.Context, plan *reconcile.Plan) *Report {
	report := &Report{
		Pair:        plan.Pair.Name,
		Destination: e.dest.Location(),
		DryRun:      e.dryRun,
		StartedAt:   time.Now().UTC(),
		Results:     make([]Result, len(plan.Items)),
	}

	g := new(errgroup.Group)
	g.SetLimit(e.workers)

	for i, item := range plan.Items {
		res := &report.Results[i]
		*res = Result{
			Key:        item.Key,
			Identity:   item.Identity,
			Action:     item.Action,
			SourcePath: item.SourcePath,
			TargetPath: item.TargetPath,
		}

		if !item.Action.Mutating() {
			continue
		}
		if e.dryRun {
			res.Error = fault.Newf(fault.DryRun, "%s %s not executed", item.Action, item.SourcePath)
			continue
		}
		if err := ctx.Err(); err != nil {
			res.Error = fault.New(fault.Cancelled, err)
			continue
		}

		g.Go(func() error {
			e.run(ctx, plan.Policy.TranscodeProfile, item, res)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now().UTC()
	report.tally()

	e.logger.Info("Executed plan",
		zap.String("pair", report.Pair),
		zap.String("destination", report.Destination),
		zap.Bool("dry_run", report.DryRun),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("cancelled", report.Cancelled),
		zap.Int64("bytes", report.Bytes))

	return report
}

func (e *Executor) run(ctx context.Context, profile string, item reconcile.Item, res *Result) {
	if err := ctx.Err(); err != nil {
		res.Error = fault.New(fault.Cancelled, err)
		return
	}

	unlock := e.locks.Lock(strings.ToLower(item.TargetPath))
	defer unlock()

	res.Attempted = true
	src := filepath.Join(e.sourceRoot, filepath.FromSlash(item.SourcePath))

	var attempts atomic.Int32
	var written atomic.Int64
	err := retry.Do(ctx, e.retry, string(item.Action)+" "+item.SourcePath, func(ctx context.Context) error {
		attempts.Add(1)
		n, err := e.transfer(ctx, item, src, profile)
		if err != nil {
			return err
		}
		written.Store(n)
		return nil
	})

	res.Attempts = int(attempts.Load())
	if err != nil {
		def := fault.Execution
		if item.Action == reconcile.ActionTranscode {
			def = fault.Transcode
		}
		res.Error = fault.New(fault.KindOf(err, def), err)
		e.logger.Warn("Transfer failed",
			zap.String("identity", item.Key),
			zap.String("source", item.SourcePath),
			zap.String("kind", string(res.Error.Kind)),
			zap.Error(err))
		return
	}

	res.Succeeded = true
	res.Bytes = written.Load()
	e.logger.Debug("Transferred",
		zap.String("identity", item.Key),
		zap.String("target", item.TargetPath),
		zap.Int64("bytes", res.Bytes))
}

func (e *Executor) transfer(ctx context.Context, item reconcile.Item, src, profile string) (int64, error) {
	t := Transfer{Source: src, Target: item.TargetPath, Identity: item.Identity, Checksum: item.Identity.Checksum}

	if item.Action != reconcile.ActionTranscode {
		return e.dest.Put(ctx, t)
	}

	if e.transcoder == nil {
		return 0, retry.Permanent(fault.Newf(fault.Transcode, "no transcoder configured"))
	}
	out, err := e.transcoder.Transcode(ctx, src, profile)
	if err != nil {
		return 0, fault.New(fault.Transcode, err)
	}
	defer os.Remove(out)

	t.Source = out
	t.Checksum = ""
	t.Identity = media.Identity{Stem: item.Identity.Stem, Capture: item.Identity.Capture}
	return e.dest.Put(ctx, t)
}
