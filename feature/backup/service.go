package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"dailies/core/executor"
	"dailies/core/gate"
	"dailies/core/index"
	"dailies/core/logger"
	"dailies/core/pipeline"
	"dailies/core/reconcile"
	"dailies/core/retry"
	"dailies/core/runlog"
	"dailies/core/storage"

	"go.uber.org/zap"
)

const (
	// PairName labels POOL→BACKUP runs.
	PairName = "backup"
	// ProxyPairName labels PROXY→BACKUP runs.
	ProxyPairName = "backup_proxies"
	// BackSyncName labels BACKUP→POOL runs.
	BackSyncName = "backsync"
)

// Settings gathers what the service needs besides its collaborators.
type Settings struct {
	// Pool is the media pool root.
	Pool string
	// Proxy is the proxy pool root. Empty skips the proxy mirror.
	Proxy string
	// Backup is the filesystem backup root, unused with object storage.
	Backup string
	// Storage selects and configures object storage.
	Storage storage.Config
	// Config holds backup settings.
	Config Config
	// Executor configures transfers.
	Executor executor.Config
	// Policy configures planning.
	Policy reconcile.Policy
	// Retry wraps transfers.
	Retry retry.Policy
}

// Options select the mode of one invocation.
type Options struct {
	// DryRun plans and reports without writing.
	DryRun bool
	// SkipBackSync runs the forward legs only.
	SkipBackSync bool
	// SkipProxies leaves the proxy pool out.
	SkipProxies bool
}

// Leg is the outcome of one direction.
type Leg struct {
	// Plan is the executed plan.
	Plan *reconcile.Plan `json:"plan"`
	// Report is the executor report.
	Report *executor.Report `json:"report"`
	// Gate is the verification outcome, nil for dry runs.
	Gate *gate.Outcome `json:"gate,omitempty"`
	// RunID is the run log id.
	RunID string `json:"run_id,omitempty"`
}

// Result is the outcome of Run.
type Result struct {
	// Forward is the POOL→BACKUP leg.
	Forward *Leg `json:"forward"`
	// Proxies is the PROXY→BACKUP leg, nil when skipped.
	Proxies *Leg `json:"proxies,omitempty"`
	// BackSync is the BACKUP→POOL leg, nil when skipped.
	BackSync *Leg `json:"back_sync,omitempty"`
}

// Service mirrors the pool to backup storage.
type Service struct {
	runner *pipeline.Runner
	scan   pipeline.Scan
	client storage.Client
	set    Settings
	logger *zap.Logger
}

// mirror is one forward leg: a root copied below a backup folder.
type mirror struct {
	pair reconcile.Pair
	// root is the source root.
	root string
	// dir is the backup folder, empty for the backup root itself.
	dir string
	// optional tolerates a source root that does not exist yet.
	optional bool
}

// NewService creates a backup service. client is only used when object
// storage is enabled. Configured excludes apply to every scan.
func NewService(runner *pipeline.Runner, scan pipeline.Scan, client storage.Client, set Settings) *Service {
	return &Service{
		runner: runner,
		scan:   scan.WithSkipDirs(set.Config.Excludes...),
		client: client,
		set:    set,
		logger: runner.Logger().With(zap.String("feature", PairName)),
	}
}

// Name implements the review planner registry.
func (s *Service) Name() string {
	return PairName
}

// Preview plans the forward leg without recording it.
func (s *Service) Preview(ctx context.Context) (*pipeline.Planned, error) {
	return s.runner.Plan(ctx, s.forwardJob("preview", s.mediaMirror()))
}

// Run mirrors the pool to the backup, then back-syncs.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	roots := []string{s.set.Pool}
	objects := s.set.Storage.Enabled
	if !objects {
		roots = append(roots, s.set.Backup)
	}

	// 1. Prepare and lock the destinations
	if !opts.DryRun {
		if objects {
			if err := storage.EnsureBucket(ctx, s.client, s.set.Storage.Bucket, s.set.Storage.Region); err != nil {
				return nil, err
			}
		} else if err := os.MkdirAll(s.set.Backup, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create backup root: %w", err)
		}

		unlock, err := s.runner.Lock(roots...)
		if err != nil {
			return nil, err
		}
		defer unlock()
		for _, root := range roots {
			s.runner.Sweep(root, s.set.Executor.StagingMaxAge)
		}
	}

	// 2. Forward mirror of the media pool, then the proxy pool
	forward, err := s.forward(ctx, s.mediaMirror(), opts)
	if err != nil {
		return nil, err
	}
	res := &Result{Forward: forward}

	if m, ok := s.proxyMirror(); ok && !opts.SkipProxies {
		res.Proxies, err = s.forward(ctx, m, opts)
		if err != nil {
			return res, err
		}
	}

	// 3. Back-sync of files only the backup has
	switch {
	case opts.SkipBackSync || !s.set.Config.BackSync:
	case objects:
		s.logger.Info("Skipping back-sync: object storage backups are write-only")
	default:
		res.BackSync, err = s.backSync(ctx, opts)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Service) mediaMirror() mirror {
	return mirror{
		pair: reconcile.Pair{Name: PairName, Source: index.RootPool, Target: index.RootBackup},
		root: s.set.Pool,
	}
}

func (s *Service) proxyMirror() (mirror, bool) {
	if s.set.Proxy == "" || s.set.Config.ProxyDir == "" {
		return mirror{}, false
	}
	return mirror{
		pair:     reconcile.Pair{Name: ProxyPairName, Source: index.RootProxy, Target: index.RootBackup},
		root:     s.set.Proxy,
		dir:      s.set.Config.ProxyDir,
		optional: true,
	}, true
}

// backupScan scans backup folders, leaving out the proxy mirror's folder so
// that proxies never pass for pool files.
func (s *Service) backupScan() pipeline.Scan {
	if _, ok := s.proxyMirror(); ok {
		return s.scan.WithSkipDirs(s.set.Config.ProxyDir)
	}
	return s.scan
}

func (s *Service) forwardJob(command string, m mirror) pipeline.Job {
	source := s.scan.FS(m.root)
	source.Optional = m.optional
	job := pipeline.Job{
		Command: command,
		Pair:    m.pair,
		Source:  source,
		Policy:  s.set.Policy,
		RunID:   pipeline.NewRunID(),
	}

	scan := s.scan
	if m.dir == "" {
		scan = s.backupScan()
	}
	if s.set.Storage.Enabled {
		job.Target = scan.Object(s.client, s.set.Storage.Bucket, path.Join(s.set.Storage.Prefix, m.dir))
	} else {
		target := scan.FS(filepath.Join(s.set.Backup, filepath.FromSlash(m.dir)))
		target.Optional = true
		job.Target = target
	}
	return job
}

func (s *Service) destination(m mirror) executor.Destination {
	if s.set.Storage.Enabled {
		return executor.NewObjectDestination(s.client, s.set.Storage.Bucket, path.Join(s.set.Storage.Prefix, m.dir))
	}
	return executor.NewFSDestination(filepath.Join(s.set.Backup, filepath.FromSlash(m.dir)))
}

func (s *Service) forward(ctx context.Context, m mirror, opts Options) (*Leg, error) {
	started := time.Now()
	job := s.forwardJob("run", m)

	planned, err := s.runner.Plan(ctx, job)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, job, planned.Plan, m.root, s.destination(m), opts, started), nil
}

func (s *Service) backSync(ctx context.Context, opts Options) (*Leg, error) {
	started := time.Now()
	if _, err := os.Stat(s.set.Backup); errors.Is(err, os.ErrNotExist) {
		s.logger.Info("Skipping back-sync: backup root does not exist yet", zap.String("root", s.set.Backup))
		return nil, nil
	}
	globbed := s.matchGlobs
	job := pipeline.Job{
		Command:      "run",
		Pair:         reconcile.Pair{Name: BackSyncName, Source: index.RootBackup, Target: index.RootPool},
		Source:       s.backupScan().FS(s.set.Backup),
		Target:       s.scan.FS(s.set.Pool),
		Policy:       s.set.Policy,
		Select:       globbed,
		SelectTarget: globbed,
		RunID:        pipeline.NewRunID(),
	}

	planned, err := s.runner.Plan(ctx, job)
	if err != nil {
		return nil, err
	}

	// Only identities the pool lacks entirely; existing pool files win.
	missing := make(map[string]bool)
	for _, r := range planned.Results {
		if r.Classification == reconcile.Missing {
			missing[r.Key] = true
		}
	}
	keep := func(e index.Entry) bool { return globbed(e) && missing[e.Identity.Key()] }
	job.Select, job.SelectTarget = keep, keep

	source := planned.Source.Select(keep)
	target := planned.Target.Select(keep)
	results := reconcile.ForPair(job.Pair, job.Policy).ReconcilePair(job.Pair, source, target)
	plan := reconcile.BuildPlan(job.Pair, source, target, results, job.Policy)

	s.runner.Log(job).Info("Planned back-sync",
		zap.Int("candidates", planned.Source.Len()),
		zap.Int("missing_from_pool", len(missing)))
	return s.execute(ctx, job, plan, s.set.Backup, executor.NewFSDestination(s.set.Pool), opts, started), nil
}

func (s *Service) execute(ctx context.Context, job pipeline.Job, plan *reconcile.Plan, sourceRoot string, dest executor.Destination, opts Options, started time.Time) *Leg {
	cfg := s.set.Executor
	cfg.DryRun = cfg.DryRun || opts.DryRun
	exec := executor.New(cfg, sourceRoot, dest, logger.WithRun(s.logger, job.RunID)).WithRetry(s.set.Retry)

	leg := &Leg{Plan: plan}
	leg.Report = s.runner.Execute(ctx, plan, exec)
	if !cfg.DryRun {
		outcome := s.runner.Verify(ctx, job, plan, leg.Report).Outcome()
		leg.Gate = &outcome
	}
	leg.RunID = s.runner.Record(ctx, job, started, runlog.Payload{Plan: plan, Report: leg.Report, Gate: leg.Gate})
	return leg
}

func (s *Service) matchGlobs(e index.Entry) bool {
	name := path.Base(e.RelativePath)
	for _, g := range s.set.Config.BackSyncGlobs {
		if ok, _ := path.Match(g, name); ok {
			return true
		}
	}
	return false
}
