package review

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"dailies/core/logger"
	"dailies/core/pipeline"
	"dailies/core/runlog"

	"go.uber.org/zap"
)

// ErrUnknownPair is returned for a pair no planner is registered for.
var ErrUnknownPair = errors.New("unknown pair")

// Planner plans a pair without side effects.
type Planner interface {
	Name() string
	Preview(ctx context.Context) (*pipeline.Planned, error)
}

// Service reads the run log and previews plans.
type Service struct {
	store    *runlog.Store
	planners map[string]Planner
	logger   *zap.Logger
}

// NewService creates a review service. A nil store serves an empty run log.
func NewService(store *runlog.Store, l *zap.Logger, planners ...Planner) *Service {
	s := &Service{store: store, planners: make(map[string]Planner, len(planners)), logger: logger.OrNop(l)}
	for _, p := range planners {
		s.planners[p.Name()] = p
	}
	return s
}

// Runs lists recent runs.
func (s *Service) Runs(ctx context.Context, opts runlog.ListOptions) ([]runlog.Run, error) {
	if s.store == nil {
		return []runlog.Run{}, nil
	}
	return s.store.List(ctx, opts)
}

// Run returns one run and its payload.
func (s *Service) Run(ctx context.Context, id string) (*runlog.Run, *runlog.Payload, error) {
	if s.store == nil {
		return nil, nil, fmt.Errorf("%w: %s", runlog.ErrNotFound, id)
	}
	return s.store.Get(ctx, id)
}

// Pairs returns the plannable pair names, sorted.
func (s *Service) Pairs() []string {
	names := make([]string, 0, len(s.planners))
	for name := range s.planners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Plan previews pair.
func (s *Service) Plan(ctx context.Context, pair string) (*pipeline.Planned, error) {
	p, ok := s.planners[pair]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPair, pair)
	}
	return p.Preview(ctx)
}
