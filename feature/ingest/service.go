package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
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

// PairName labels CARD→POOL runs.
const PairName = "ingest"

// ErrNotConfirmed is returned when the operator declines a wipe.
var ErrNotConfirmed = errors.New("wipe not confirmed")

// Confirm asks the operator to approve an authorized wipe.
type Confirm func(auth *gate.WipeAuthorization) (bool, error)

// Settings gathers what the service needs besides its collaborators.
type Settings struct {
	// Card is the card root.
	Card string
	// Pool is the media pool root.
	Pool string
	// Config holds ingest settings.
	Config Config
	// Executor configures transfers.
	Executor executor.Config
	// Policy configures planning.
	Policy reconcile.Policy
	// Retry wraps transfers and erasures.
	Retry retry.Policy
}

// Options select the bin and mode of one invocation.
type Options struct {
	// Bin names the target bin. Empty picks the next bin for today.
	Bin string
	// Suffix overrides the configured bin suffix for a new bin.
	Suffix string
	// DryRun plans and reports without writing.
	DryRun bool
}

// Result is the outcome of Plan or Run.
type Result struct {
	// Bin is the bin new files were placed in.
	Bin string `json:"bin"`
	// Planned holds the indices and plan.
	Planned *pipeline.Planned `json:"-"`
	// Plan is the executed plan.
	Plan *reconcile.Plan `json:"plan"`
	// Report is the executor report, nil for Plan.
	Report *executor.Report `json:"report,omitempty"`
	// Gate is the verification outcome, nil for Plan and dry runs.
	Gate *gate.Outcome `json:"gate,omitempty"`
	// Manifest is the written manifest path, empty unless verified.
	Manifest string `json:"manifest,omitempty"`
	// RunID is the run log id, empty when the run log is disabled.
	RunID string `json:"run_id,omitempty"`
}

// WipeResult is the outcome of Wipe.
type WipeResult struct {
	// Plan is the plan the gate judged.
	Plan *reconcile.Plan `json:"plan"`
	// Gate is the verification outcome.
	Gate gate.Outcome `json:"gate"`
	// Authorization is the granted authorization, nil when refused.
	Authorization *gate.WipeAuthorization `json:"authorization,omitempty"`
	// Wiped lists the erased card paths.
	Wiped []string `json:"wiped"`
	// RunID is the run log id.
	RunID string `json:"run_id,omitempty"`
}

// Service ingests capture cards into the media pool.
type Service struct {
	runner *pipeline.Runner
	scan   pipeline.Scan
	set    Settings
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates an ingest service.
func NewService(runner *pipeline.Runner, scan pipeline.Scan, set Settings) *Service {
	return &Service{
		runner: runner,
		scan:   scan,
		set:    set,
		logger: runner.Logger().With(zap.String("feature", PairName)),
		now:    time.Now,
	}
}

// Name implements the review planner registry.
func (s *Service) Name() string {
	return PairName
}

// Preview plans an ingest into the next bin without recording it.
func (s *Service) Preview(ctx context.Context) (*pipeline.Planned, error) {
	bin, err := s.resolveBin(Options{})
	if err != nil {
		return nil, err
	}
	return s.runner.Plan(ctx, s.job("preview", bin, ""))
}

// Plan reconciles the card against the whole pool and records the plan.
func (s *Service) Plan(ctx context.Context, opts Options) (*Result, error) {
	started := s.now()
	bin, err := s.resolveBin(opts)
	if err != nil {
		return nil, err
	}

	job := s.job("plan", bin, bin)
	planned, err := s.runner.Plan(ctx, job)
	if err != nil {
		return nil, err
	}

	res := &Result{Bin: bin, Planned: planned, Plan: planned.Plan}
	res.RunID = s.runner.Record(ctx, job, started, runlog.Payload{Plan: planned.Plan})
	return res, nil
}

// Run copies every card file missing from the pool into a bin, verifies the
// pool and writes a manifest when verification passes.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	started := s.now()
	bin, err := s.resolveBin(opts)
	if err != nil {
		return nil, err
	}

	// 1. Exclusive access to the pool
	if !opts.DryRun {
		unlock, err := s.runner.Lock(s.set.Pool)
		if err != nil {
			return nil, err
		}
		defer unlock()
		s.runner.Sweep(s.set.Pool, s.set.Executor.StagingMaxAge)
	}

	// 2. Plan against the whole pool so files already anywhere are skipped
	job := s.job("run", bin, bin)
	planned, err := s.runner.Plan(ctx, job)
	if err != nil {
		return nil, err
	}
	res := &Result{Bin: bin, Planned: planned, Plan: planned.Plan}

	// 3. Copy into the bin
	cfg := s.set.Executor
	cfg.DryRun = cfg.DryRun || opts.DryRun
	exec := executor.New(cfg, s.set.Card, executor.NewFSDestination(s.set.Pool), logger.WithRun(s.logger, job.RunID)).WithRetry(s.set.Retry)
	res.Report = s.runner.Execute(ctx, planned.Plan, exec)

	// 4. Verify and hand over the manifest
	if !cfg.DryRun {
		g := s.runner.Verify(ctx, job, planned.Plan, res.Report)
		outcome := g.Outcome()
		res.Gate = &outcome
		if g.State() == gate.Verified {
			m := BuildManifest(bin, planned.Plan, g.Fresh(), s.now())
			m.Card, m.Pool = s.set.Card, s.set.Pool
			path, err := WriteManifest(filepath.Join(s.set.Pool, filepath.FromSlash(s.set.Config.ManifestDir)), m)
			if err != nil {
				s.logger.Warn("Failed to write manifest", zap.Error(err))
			} else {
				res.Manifest = path
				s.logger.Info("Wrote manifest", zap.String("path", path), zap.Int("entries", len(m.Entries)))
			}
		}
	}

	payload := runlog.Payload{Plan: planned.Plan, Report: res.Report, Gate: res.Gate}
	if res.Manifest != "" {
		payload.Artifacts = []string{res.Manifest}
	}
	res.RunID = s.runner.Record(ctx, job, started, payload)
	return res, nil
}

// Wipe erases the card once a fresh verification proves every card file is
// in the pool. opts.Bin, when set, is the bin whose orphans block the wipe.
// confirm is only called for an authorized wipe.
func (s *Service) Wipe(ctx context.Context, opts Options, confirm Confirm) (*WipeResult, error) {
	started := s.now()

	unlock, err := s.runner.Lock(s.set.Card, s.set.Pool)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 1. Fresh plan; any pending transfer keeps the gate from verifying
	job := s.job("wipe", opts.Bin, opts.Bin)
	planned, err := s.runner.Plan(ctx, job)
	if err != nil {
		return nil, err
	}
	g := s.runner.Verify(ctx, job, planned.Plan, nil)
	res := &WipeResult{Plan: planned.Plan, Gate: g.Outcome(), Wiped: []string{}}

	record := func() {
		res.RunID = s.runner.Record(ctx, job, started, runlog.Payload{Plan: planned.Plan, Gate: &res.Gate, Wiped: res.Wiped})
	}

	// 2. Authorization from the verified gate
	auth, err := g.Authorize()
	if err != nil {
		record()
		return res, err
	}
	res.Authorization = auth

	if opts.DryRun {
		record()
		return res, nil
	}

	// 3. Operator confirmation
	ok, err := confirm(auth)
	if err != nil {
		return res, err
	}
	if !ok {
		return res, ErrNotConfirmed
	}

	// 4. Erase exactly the authorized files
	res.Wiped, err = s.erase(ctx, auth.Items)
	record()
	if err != nil {
		return res, err
	}
	s.logger.Info("Wiped card",
		zap.String("card", s.set.Card),
		zap.Int("files", len(res.Wiped)),
		zap.Int64("bytes", auth.Bytes))
	return res, nil
}

func (s *Service) job(command, bin, scope string) pipeline.Job {
	pair := reconcile.Pair{
		Name:        PairName,
		Source:      index.RootCard,
		Target:      index.RootPool,
		OrphanScope: scope,
	}
	if bin != "" {
		pair.Placer = BinPlacer(bin)
	}
	return pipeline.Job{
		Command: command,
		Pair:    pair,
		Source:  s.scan.FS(s.set.Card),
		Target:  s.scan.FS(s.set.Pool),
		Policy:  s.set.Policy,
		RunID:   pipeline.NewRunID(),
	}
}

func (s *Service) resolveBin(opts Options) (string, error) {
	if opts.Bin != "" {
		if _, ok := media.ParseBin(opts.Bin); !ok {
			s.logger.Warn("Bin does not follow YYYYMMDD_##[_suffix]", zap.String("bin", opts.Bin))
		}
		return opts.Bin, nil
	}

	suffix := opts.Suffix
	if suffix == "" {
		suffix = s.set.Config.BinSuffix
	}
	existing, err := media.ListBins(s.set.Pool)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	bin, err := media.NextBin(existing, s.now(), suffix)
	if err != nil {
		return "", err
	}
	return bin.String(), nil
}

// erase removes the authorized card files. Files already gone count as
// erased; other failures are collected and returned together.
func (s *Service) erase(ctx context.Context, items []reconcile.Item) ([]string, error) {
	wiped := make([]string, 0, len(items))
	var errs []error
	for _, it := range items {
		// Confirmed duplicates go with the original
		for _, rel := range append([]string{it.SourcePath}, it.DuplicatePaths...) {
			abs := filepath.Join(s.set.Card, filepath.FromSlash(rel))
			err := retry.Do(ctx, s.set.Retry, "remove", func(context.Context) error {
				return os.Remove(abs)
			})
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("%s: %w", rel, err))
				continue
			}
			wiped = append(wiped, rel)
		}
	}

	if s.set.Config.PruneDirs {
		pruneEmptyDirs(s.set.Card)
	}
	return wiped, errors.Join(errs...)
}

// pruneEmptyDirs removes empty directories below root, deepest first.
func pruneEmptyDirs(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err == nil && d.IsDir() && p != root {
			dirs = append(dirs, p)
		}
		return nil
	})
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(os.PathSeparator)) > strings.Count(dirs[j], string(os.PathSeparator))
	})
	for _, d := range dirs {
		_ = os.Remove(d)
	}
}
