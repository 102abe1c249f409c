package pipeline

import (
	"time"

	"dailies/core/executor"
	"dailies/core/poollock"

	"go.uber.org/zap"
)

// Lock takes the exclusive lock of every root about to be mutated and
// returns the function releasing them.
func (r *Runner) Lock(roots ...string) (func(), error) {
	lock, err := poollock.Acquire(roots...)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Release(); err != nil {
			r.logger.Warn("Failed to release root lock", zap.Error(err))
		}
	}, nil
}

// Sweep removes staging files under root left by interrupted runs.
func (r *Runner) Sweep(root string, maxAge time.Duration) {
	removed, err := executor.CleanStaging(root, maxAge, time.Now())
	if err != nil {
		r.logger.Warn("Failed to sweep staging files", zap.String("root", root), zap.Error(err))
		return
	}
	if len(removed) > 0 {
		r.logger.Info("Removed stale staging files", zap.String("root", root), zap.Int("count", len(removed)))
	}
}
