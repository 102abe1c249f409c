package retry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// ErrTimeout is returned when a single attempt exceeds Policy.AttemptTimeout.
var ErrTimeout = errors.New("attempt timed out")

// Policy controls attempts, backoff and per-attempt timeout.
type Policy struct {
	// Attempts is the maximum number of attempts (values < 1 mean 1).
	Attempts int `mapstructure:"attempts" default:"3"`
	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration `mapstructure:"base_delay" default:"200ms"`
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration `mapstructure:"max_delay" default:"5s"`
	// AttemptTimeout bounds a single attempt. Zero disables the timeout.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" default:"2m"`
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:       3,
		BaseDelay:      200 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		AttemptTimeout: 2 * time.Minute,
	}
}

// permanent marks an error that must not be retried.
type permanent struct{ err error }

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Permanent wraps err so Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

// Do runs fn until it succeeds, returns a permanent error, the context is
// done, or the attempts are exhausted. Missing files and permission errors
// are never retried.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := runAttempt(ctx, p.AttemptTimeout, fn)
		if err == nil {
			return nil
		}

		var perm *permanent
		if errors.As(err, &perm) {
			return perm.err
		}
		if !retryable(err) {
			return err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if err := sleep(ctx, p.delay(attempt)); err != nil {
			return err
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

// runAttempt executes fn, abandoning it when the timeout elapses. The
// goroutine of an abandoned attempt finishes in the background once the
// underlying syscall returns.
func runAttempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(attemptCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTimeout
	}
}

func (p Policy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	d := base << (attempt - 1)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	return d
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrExist):
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
