package integrity

import (
	"context"
	"time"

	"dailies/core/logger"
	"dailies/core/runlog"
	"dailies/core/storage"
	"dailies/feature/integrity/checks"

	"go.uber.org/zap"
)

// Settings gathers what the checks inspect.
type Settings struct {
	// Roots maps root names (card, media, proxy, backup) to paths.
	Roots map[string]string
	// StagingMaxAge is the age after which a staging file counts as stale.
	StagingMaxAge time.Duration
	// Bucket is the backup bucket.
	Bucket string
	// Prefix is the object key prefix in the bucket.
	Prefix string
	// Tools lists the external binaries to look up.
	Tools []checks.Tool
}

// Report is the combined result of every check.
type Report struct {
	// Status is the most severe status of all checks.
	Status checks.Status `json:"status"`
	// Roots holds one result per configured root.
	Roots []checks.Result `json:"roots"`
	// Storage is the object storage result.
	Storage checks.Result `json:"storage"`
	// RunLog is the run-log schema result.
	RunLog checks.Result `json:"run_log"`
	// Tools holds one result per binary.
	Tools []checks.Result `json:"tools"`
}

// Service handles integrity checks.
type Service struct {
	client storage.Client
	store  *runlog.Store
	set    Settings
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new integrity service. A nil client or store marks
// the corresponding check as disabled.
func NewService(client storage.Client, store *runlog.Store, set Settings, l *zap.Logger) *Service {
	return &Service{client: client, store: store, set: set, logger: logger.OrNop(l), now: time.Now}
}

// CheckRoots checks every configured root.
func (s *Service) CheckRoots() []checks.Result {
	return checks.CheckRoots(s.set.Roots, s.set.StagingMaxAge, s.now())
}

// CheckStorage checks the backup bucket.
func (s *Service) CheckStorage(ctx context.Context) checks.Result {
	return checks.CheckStorage(ctx, s.client, s.set.Bucket, s.set.Prefix)
}

// CheckRunLog checks the run table.
func (s *Service) CheckRunLog() checks.Result {
	return checks.CheckRunLog(s.store)
}

// CheckTools looks up the external binaries.
func (s *Service) CheckTools() []checks.Result {
	return checks.CheckTools(append([]checks.Tool(nil), s.set.Tools...))
}

// CheckAll runs every check.
func (s *Service) CheckAll(ctx context.Context) *Report {
	r := &Report{
		Roots:   s.CheckRoots(),
		Storage: s.CheckStorage(ctx),
		RunLog:  s.CheckRunLog(),
		Tools:   s.CheckTools(),
	}

	all := append(append([]checks.Result{}, r.Roots...), r.Tools...)
	all = append(all, r.Storage, r.RunLog)
	r.Status = checks.Worst(all)

	if r.Status != checks.StatusOK {
		s.logger.Warn("Integrity checks found problems", zap.String("status", string(r.Status)))
	}
	return r
}
