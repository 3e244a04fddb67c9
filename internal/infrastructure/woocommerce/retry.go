package woocommerce

import (
	"context"
	"errors"
	"time"

	"github.com/shopsync/backend/internal/domain/integration"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoffStep = 2 * time.Second
)

// RetryPolicy decides how many attempts a request gets and how long to wait
// between them. Sleep is injectable so tests never wait on real timers.
type RetryPolicy struct {
	MaxAttempts int
	Retryable   func(err error) bool
	Backoff     func(attempt int) time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy retries transport failures, timeouts and 502/503/504
// up to 3 attempts with a 2s x attempt linear backoff
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Retryable:   IsRetryable,
		Backoff:     LinearBackoff(DefaultBackoffStep),
		Sleep:       SleepContext,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.Retryable == nil {
		p.Retryable = d.Retryable
	}
	if p.Backoff == nil {
		p.Backoff = d.Backoff
	}
	if p.Sleep == nil {
		p.Sleep = d.Sleep
	}
	return p
}

// IsRetryable reports whether err is a transient storefront failure.
// Unauthorized, not found and other 4xx answers are never retried.
func IsRetryable(err error) bool {
	return errors.Is(err, integration.ErrRemoteUnavailable) || errors.Is(err, integration.ErrRequestTimeout)
}

// LinearBackoff waits step x attempt after the given (1-based) attempt
func LinearBackoff(step time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		return step * time.Duration(attempt)
	}
}

// SleepContext waits for d or until ctx is done
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
