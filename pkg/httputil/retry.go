package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// Template catalogue and image downloads are retried this many times,
// starting at DefaultDelay.
const (
	DefaultAttempts = 3
	DefaultDelay    = 500 * time.Millisecond

	// MaxDelay caps both the doubled backoff and a server's Retry-After.
	MaxDelay = 10 * time.Second
)

// RetryableError marks a transient failure. After, when set, is the wait
// the server asked for.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err and reads the wait from resp's Retry-After header
// (seconds or an HTTP date). resp may be nil.
func Retryable(err error, resp *http.Response) *RetryableError {
	re := &RetryableError{Err: err}
	if resp != nil {
		re.After = RetryAfter(resp.Header.Get("Retry-After"), time.Now())
	}
	return re
}

// RetryAfter parses a Retry-After value relative to now. Unparseable or
// past values yield zero.
func RetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(t.Sub(now), 0)
	}
	return 0
}

// Retry calls fn up to attempts times. Only errors wrapping a
// [RetryableError] are retried; the wait starts at delay, doubles after
// each failure and never drops below the server's Retry-After, capped at
// MaxDelay. It returns the last error, or ctx.Err() if ctx ends first.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		var re *RetryableError
		if !errors.As(err, &re) {
			return err
		}
		if i == attempts-1 {
			break
		}

		wait := min(max(delay, re.After), MaxDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			delay *= 2
		}
	}
	return lastErr
}

// RetryWithBackoff calls [Retry] with DefaultAttempts and DefaultDelay.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, DefaultAttempts, DefaultDelay, fn)
}
