package proxy

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"dailies/core/executor"
	"dailies/core/gate"
	"dailies/core/index"
	"dailies/core/logger"
	"dailies/core/media"
	"dailies/core/pipeline"
	"dailies/core/reconcile"
	"dailies/core/retry"
	"dailies/core/runlog"

	"go.uber.org/zap"
)

// PairName labels POOL→PROXY runs.
const PairName = "proxy"

// Settings gathers what the service needs besides its collaborators.
type Settings struct {
	// Pool is the media pool root.
	Pool string
	// Proxy is the proxy pool root.
	Proxy string
	// Config holds proxy settings.
	Config Config
	// Executor configures transcodes.
	Executor executor.Config
	// Policy configures planning; its TranscodeProfile selects the profile.
	Policy reconcile.Policy
	// Retry wraps transcodes.
	Retry retry.Policy
}

// Options select the scope and mode of one invocation.
type Options struct {
	// Subdir restricts both roots to one folder, e.g. an editor's workspace.
	Subdir string
	// DryRun plans and reports without transcoding.
	DryRun bool
}

// Result is the outcome of Run.
type Result struct {
	// Planned holds the indices and plan.
	Planned *pipeline.Planned `json:"-"`
	// Plan is the executed plan.
	Plan *reconcile.Plan `json:"plan"`
	// Report is the executor report.
	Report *executor.Report `json:"report"`
	// Gate is the verification outcome, nil for dry runs.
	Gate *gate.Outcome `json:"gate,omitempty"`
	// RunID is the run log id.
	RunID string `json:"run_id,omitempty"`
}

// Service generates proxies.
type Service struct {
	runner     *pipeline.Runner
	scan       pipeline.Scan
	set        Settings
	transcoder executor.Transcoder
	logger     *zap.Logger
}

// NewService creates a proxy service transcoding with t.
func NewService(runner *pipeline.Runner, scan pipeline.Scan, t executor.Transcoder, set Settings) *Service {
	return &Service{
		runner:     runner,
		scan:       scan.WithClasses(media.ClassVideo),
		set:        set,
		transcoder: t,
		logger:     runner.Logger().With(zap.String("feature", PairName)),
	}
}

// Name implements the review planner registry.
func (s *Service) Name() string {
	return PairName
}

// Preview plans the whole pool without recording it.
func (s *Service) Preview(ctx context.Context) (*pipeline.Planned, error) {
	return s.runner.Plan(ctx, s.Job("preview", ""))
}

// Job returns the POOL→PROXY job for subdir.
func (s *Service) Job(command, subdir string) pipeline.Job {
	pool, proxy := s.set.Pool, s.set.Proxy
	if subdir != "" {
		pool = filepath.Join(pool, filepath.FromSlash(subdir))
		proxy = filepath.Join(proxy, filepath.FromSlash(subdir))
	}
	target := s.scan.FS(proxy)
	target.Optional = true
	return pipeline.Job{
		Command: command,
		Pair: reconcile.Pair{
			Name:   PairName,
			Source: index.RootPool,
			Target: index.RootProxy,
			Placer: Placer(s.set.Config.OutputExt),
		},
		Source: s.scan.FS(pool),
		Target: target,
		Policy: s.set.Policy,
		Select: s.selectSource,
		RunID:  pipeline.NewRunID(),
	}
}

// Run transcodes every missing or outdated proxy and verifies the result.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	started := time.Now()
	job := s.Job("run", opts.Subdir)
	root := job.Target.Location()

	if !opts.DryRun {
		if err := os.MkdirAll(s.set.Proxy, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create proxy root: %w", err)
		}
		unlock, err := s.runner.Lock(s.set.Proxy)
		if err != nil {
			return nil, err
		}
		defer unlock()
		s.runner.Sweep(s.set.Proxy, s.set.Executor.StagingMaxAge)
	}

	planned, err := s.runner.Plan(ctx, job)
	if err != nil {
		return nil, err
	}
	res := &Result{Planned: planned, Plan: planned.Plan}

	cfg := s.set.Executor
	cfg.DryRun = cfg.DryRun || opts.DryRun
	exec := executor.New(cfg, job.Source.Location(), executor.NewFSDestination(root), logger.WithRun(s.logger, job.RunID)).
		WithTranscoder(s.transcoder).
		WithRetry(s.set.Retry)
	res.Report = s.runner.Execute(ctx, planned.Plan, exec)

	if !cfg.DryRun {
		outcome := s.runner.Verify(ctx, job, planned.Plan, res.Report).Outcome()
		res.Gate = &outcome
	}

	res.RunID = s.runner.Record(ctx, job, started, runlog.Payload{Plan: planned.Plan, Report: res.Report, Gate: res.Gate})
	return res, nil
}

func (s *Service) selectSource(e index.Entry) bool {
	if len(s.set.Config.Extensions) == 0 {
		return true
	}
	ext := path.Ext(e.RelativePath)
	for _, want := range s.set.Config.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// Placer places a proxy at the source's relative path with ext.
func Placer(ext string) reconcile.Placer {
	if ext == "" {
		ext = ".mp4"
	}
	return reconcile.PlacerFunc(func(e index.Entry) string {
		return strings.TrimSuffix(e.RelativePath, path.Ext(e.RelativePath)) + ext
	})
}
