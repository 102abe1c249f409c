// Package retry wraps blocking filesystem and storage calls with a bounded
// retry policy.
//
// Every attempt runs under its own timeout so that a hung mount (an ejected
// card, a sleeping USB drive) turns into an error instead of blocking the
// indexer or executor forever. Attempts back off exponentially up to
// MaxDelay.
//
// # Usage
//
//	err := retry.Do(ctx, policy, "stat", func(ctx context.Context) error {
//	    info, err = os.Stat(path)
//	    return err
//	})
package retry
