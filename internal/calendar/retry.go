package calendar

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultMaxRetries = 3

// retryTransient runs fn under bounded exponential backoff. fn returns
// transient failures wrapped in ErrUnavailable (retried up to
// maxRetries) and non-retryable ones in backoff.Permanent, so the
// final error is already classified when the retries are exhausted.
func retryTransient(ctx context.Context, maxRetries int, initialInterval time.Duration, fn func() error) error {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	bo := backoff.NewExponentialBackOff()
	if initialInterval > 0 {
		bo.InitialInterval = initialInterval
	}
	return backoff.Retry(fn, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries)), ctx))
}
