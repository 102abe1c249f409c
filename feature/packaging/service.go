package packaging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dailies/core/executor"
	"dailies/core/gate"
	"dailies/core/index"
	"dailies/core/media"
	"dailies/core/pipeline"
	"dailies/core/reconcile"
	"dailies/core/retry"
	"dailies/core/runlog"

	"go.uber.org/zap"
)

// PairName labels packaging runs.
const PairName = "package"

// ErrNotConfirmed is returned when the operator declines a package.
var ErrNotConfirmed = errors.New("package not confirmed")

// JobSource builds the POOL→PROXY job that must verify before packaging.
type JobSource interface {
	Job(command, subdir string) pipeline.Job
}

// Confirm asks the operator to approve a prepared package.
type Confirm func(pkg *Package) (bool, error)

// Settings gathers what the service needs besides its collaborators.
type Settings struct {
	// Proxy is the proxy pool root.
	Proxy string
	// Config holds packaging settings.
	Config Config
	// Executor configures transfers.
	Executor executor.Config
	// Retry wraps transfers.
	Retry retry.Policy
}

// Options select the scope and mode of one invocation.
type Options struct {
	// Subdir restricts packaging to one folder of the proxy root.
	Subdir string
	// Mode overrides the configured mode.
	Mode Mode
	// DryRun prepares the package without writing.
	DryRun bool
}

// Folder is one proxy folder in a package.
type Folder struct {
	// Name is the folder name in the proxy root.
	Name string `json:"name"`
	// Destination is the path relative to the sent dir.
	Destination string `json:"destination"`
	// Files is the number of files placed.
	Files int `json:"files"`
	// Bytes is their total size.
	Bytes int64 `json:"bytes"`
}

// Package describes one delivery.
type Package struct {
	// Bucket is the dated bucket name.
	Bucket string `json:"bucket"`
	// SentRoot is the absolute sent dir.
	SentRoot string `json:"sent_root"`
	// Mode is the placement mode.
	Mode Mode `json:"mode"`
	// Folders are the folders to send, sorted case-insensitively.
	Folders []Folder `json:"folders"`
	// AlreadySent lists skipped folder names.
	AlreadySent []string `json:"already_sent"`
	// Gate is the proxy verification outcome.
	Gate gate.Outcome `json:"gate"`
	// Plan lists one COPY item per file.
	Plan *reconcile.Plan `json:"plan"`
	// Report is the executor report, nil until sent.
	Report *executor.Report `json:"report,omitempty"`
	// RunID is the run log id.
	RunID string `json:"run_id,omitempty"`

	job pipeline.Job
}

// Service packages proxies.
type Service struct {
	runner *pipeline.Runner
	jobs   JobSource
	set    Settings
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a packaging service.
func NewService(runner *pipeline.Runner, jobs JobSource, set Settings) *Service {
	return &Service{
		runner: runner,
		jobs:   jobs,
		set:    set,
		logger: runner.Logger().With(zap.String("feature", PairName)),
		now:    time.Now,
	}
}

// Prepare verifies the proxy pool and lists what a package would contain.
func (s *Service) Prepare(ctx context.Context, opts Options) (*Package, error) {
	mode := opts.Mode
	if mode == "" {
		mode = s.set.Config.Mode
	}
	if mode != ModeCopy && mode != ModeHardlink {
		return nil, fmt.Errorf("unknown packaging mode %q", mode)
	}

	// 1. Fresh POOL→PROXY verification
	job := s.jobs.Job("package", opts.Subdir)
	planned, err := s.runner.Plan(ctx, job)
	if err != nil {
		return nil, err
	}
	g := s.runner.Verify(ctx, job, planned.Plan, nil)
	pkg := &Package{Mode: mode, Gate: g.Outcome(), Folders: []Folder{}, AlreadySent: []string{}, job: job}
	if g.State() != gate.Verified {
		return pkg, &gate.RejectedError{State: g.State(), Blockers: pkg.Gate.Blockers}
	}

	// 2. Candidate folders and the next bucket
	root := job.Target.Location()
	pkg.SentRoot = filepath.Join(root, s.set.Config.SentDir)
	names, err := topLevelDirs(root, s.set.Config.SentDir)
	if err != nil {
		return nil, err
	}
	sent, err := sentFolders(pkg.SentRoot)
	if err != nil {
		return nil, err
	}
	buckets, err := media.ListBins(pkg.SentRoot)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	bucket, err := media.NextBin(buckets, s.now(), "")
	if err != nil {
		return nil, err
	}
	pkg.Bucket = bucket.String()

	// 3. One COPY item per file of every unsent folder
	files := folderFiles(planned.Target)
	pkg.Plan = &reconcile.Plan{
		Pair:   reconcile.Pair{Name: PairName, Source: index.RootProxy, Target: index.RootProxy},
		Policy: planned.Plan.Policy,
		Items:  []reconcile.Item{},
	}
	for _, name := range names {
		if sent[name] {
			pkg.AlreadySent = append(pkg.AlreadySent, name)
			continue
		}
		if len(files[name]) == 0 {
			continue
		}
		folder := Folder{Name: name, Destination: uniqueDestination(pkg.SentRoot, pkg.Bucket, name)}
		for _, f := range files[name] {
			rel := strings.TrimPrefix(f.path, name+"/")
			pkg.Plan.Items = append(pkg.Plan.Items, reconcile.Item{
				Key:            f.entry.Identity.Key(),
				Identity:       f.entry.Identity,
				Classification: reconcile.Missing,
				Action:         reconcile.ActionCopy,
				EstimatedBytes: f.entry.Size,
				SourcePath:     f.path,
				TargetPath:     path.Join(folder.Destination, rel),
				Reason:         "package " + pkg.Bucket,
			})
			folder.Files++
			folder.Bytes += f.entry.Size
		}
		pkg.Folders = append(pkg.Folders, folder)
	}

	actions := map[reconcile.Action]int{}
	for _, it := range pkg.Plan.Items {
		actions[it.Action]++
		pkg.Plan.Summary.TransferBytes += it.EstimatedBytes
	}
	pkg.Plan.Summary.Identities = len(pkg.Plan.Items)
	pkg.Plan.Summary.TransferFiles = len(pkg.Plan.Items)
	pkg.Plan.Summary.Actions = actions
	pkg.Plan.Summary.Classifications = map[reconcile.Classification]int{reconcile.Missing: len(pkg.Plan.Items)}
	return pkg, nil
}

// Run prepares a package, asks for confirmation and places the folders into
// the bucket.
func (s *Service) Run(ctx context.Context, opts Options, confirm Confirm) (*Package, error) {
	started := s.now()
	if !opts.DryRun {
		unlock, err := s.runner.Lock(s.set.Proxy)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	pkg, err := s.Prepare(ctx, opts)
	if err != nil || len(pkg.Folders) == 0 || opts.DryRun {
		return pkg, err
	}

	ok, err := confirm(pkg)
	if err != nil {
		return pkg, err
	}
	if !ok {
		return pkg, ErrNotConfirmed
	}

	var dest executor.Destination = executor.NewFSDestination(pkg.SentRoot)
	if pkg.Mode == ModeHardlink {
		dest = executor.NewLinkDestination(pkg.SentRoot)
	}
	job := pkg.job
	exec := executor.New(s.set.Executor, job.Target.Location(), dest, s.runner.Log(job)).WithRetry(s.set.Retry)
	pkg.Report = s.runner.Execute(ctx, pkg.Plan, exec)

	artifacts := make([]string, 0, len(pkg.Folders))
	for _, f := range pkg.Folders {
		artifacts = append(artifacts, filepath.Join(pkg.SentRoot, filepath.FromSlash(f.Destination)))
	}
	pkg.RunID = s.runner.Record(ctx, job, started, runlog.Payload{Plan: pkg.Plan, Report: pkg.Report, Gate: &pkg.Gate, Artifacts: artifacts})

	if failures := pkg.Report.Failures(); len(failures) > 0 {
		return pkg, fmt.Errorf("%d of %d files could not be packaged", len(failures), len(pkg.Plan.Items))
	}
	s.logger.Info("Packaged proxies",
		zap.String("bucket", pkg.Bucket),
		zap.Int("folders", len(pkg.Folders)),
		zap.Int64("bytes", pkg.Report.Bytes))
	return pkg, nil
}

// topLevelDirs lists the folders of root that can be sent, sorted
// case-insensitively.
func topLevelDirs(root, sentDir string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}

	filter := media.Filter{SkipDirs: []string{sentDir}}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !filter.SkipDir(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}

// sentFolders returns the folder names present in any bucket.
func sentFolders(sentRoot string) (map[string]bool, error) {
	sent := make(map[string]bool)
	buckets, err := os.ReadDir(sentRoot)
	if errors.Is(err, os.ErrNotExist) {
		return sent, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", sentRoot, err)
	}
	for _, b := range buckets {
		if !b.IsDir() {
			continue
		}
		folders, err := os.ReadDir(filepath.Join(sentRoot, b.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", b.Name(), err)
		}
		for _, f := range folders {
			if f.IsDir() {
				sent[f.Name()] = true
			}
		}
	}
	return sent, nil
}

// uniqueDestination returns bucket/name, or bucket/name-N when taken.
func uniqueDestination(sentRoot, bucket, name string) string {
	candidate := path.Join(bucket, name)
	for n := 1; ; n++ {
		if _, err := os.Stat(filepath.Join(sentRoot, filepath.FromSlash(candidate))); err != nil {
			return candidate
		}
		candidate = path.Join(bucket, fmt.Sprintf("%s-%d", name, n))
	}
}

type file struct {
	path  string
	entry index.Entry
}

// folderFiles groups every indexed proxy path, duplicates included, by its
// top-level folder.
func folderFiles(idx *index.SetIndex) map[string][]file {
	out := make(map[string][]file)
	add := func(p string, e index.Entry) {
		top, _, nested := strings.Cut(p, "/")
		if nested {
			out[top] = append(out[top], file{path: p, entry: e})
		}
	}
	for _, e := range idx.Entries() {
		add(e.RelativePath, e)
		for _, d := range e.DuplicatePaths {
			add(d, e)
		}
	}
	for name := range out {
		sort.Slice(out[name], func(i, j int) bool { return out[name][i].path < out[name][j].path })
	}
	return out
}
