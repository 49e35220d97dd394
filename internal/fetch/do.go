package fetch

import (
	"context"
	"errors"
	"time"
)

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an adapter failure as not worth retrying; Do returns the
// wrapped error immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do invokes the adapter once plus up to retry.Count re-attempts with a
// linear delay between them. It returns the first success or the last
// failure; ctx cancellation aborts the wait between attempts.
func Do[T any](ctx context.Context, adapter Adapter[T], retry RetryPolicy) (T, error) {
	var zero T
	delay := retry.Delay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	var lastErr error
	for attempt := 0; attempt <= retry.Count; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
		val, err := adapter(ctx)
		if err == nil {
			return val, nil
		}
		var pe *permanentError
		if errors.As(err, &pe) {
			return zero, pe.err
		}
		lastErr = err
	}
	return zero, lastErr
}
