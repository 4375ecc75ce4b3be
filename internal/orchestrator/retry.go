package orchestrator

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/paperpulse/paperpulse/internal/domain"
)

// retryPolicy bounds per-step retries for transient failures.
type retryPolicy struct {
	// maxRetries is the retry count on top of the first attempt, so
	// 2 retries means 3 attempts total.
	maxRetries int
	// initialInterval seeds the exponential backoff.
	initialInterval time.Duration
	// maxInterval caps the backoff between attempts.
	maxInterval time.Duration
}

// defaultRetryPolicy returns the standard per-step policy.
func defaultRetryPolicy(maxRetries int) retryPolicy {
	return retryPolicy{
		maxRetries:      maxRetries,
		initialInterval: 500 * time.Millisecond,
		maxInterval:     10 * time.Second,
	}
}

// execute runs fn with exponential backoff. Only transient failures are
// retried; non-transient failures and context expiry abort immediately.
// notify is invoked before each retry wait with the failing error.
func (p retryPolicy) execute(ctx context.Context, fn func() error, notify func(err error, next time.Duration)) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.initialInterval
	bo.MaxInterval = p.maxInterval

	policy := backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(p.maxRetries)),
		ctx,
	)

	wrapped := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !domain.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if notify == nil {
		notify = func(error, time.Duration) {}
	}

	// RetryNotify unwraps backoff.Permanent, so callers see the
	// original step error.
	return backoff.RetryNotify(wrapped, policy, notify)
}
