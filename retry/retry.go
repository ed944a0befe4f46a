/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package retry runs operations with backoff policies built on github.com/cenkalti/backoff/v4.
// It is used for flaky external calls: Phrase API requests and "git pull".
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IsRetryable tells if error is retryable as opposed to persistent.
type IsRetryable func(error) bool

// RetryableFunc does some work and can be potentially retried.
type RetryableFunc func(ctx context.Context) error

// Policy defines backoff strategy.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// DoWithRetry executes fn with retry according to policy p and with respect to context ctx.
// isRetryable defines which errors lead to a retry attempt (nil means any error).
// notify receives every failed attempt with its error and the following delay (can be nil).
func DoWithRetry(ctx context.Context, p Policy, isRetryable IsRetryable, notify backoff.Notify, fn RetryableFunc) error {
	bctx := backoff.WithContext(p.NewBackOff(), ctx)
	op := func() error {
		err := fn(bctx.Context())
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, bctx, notify)
}

// PolicyFunc is an adapter to allow the use of ordinary functions as Policy.
type PolicyFunc func() backoff.BackOff

// NewBackOff implements Policy.
func (f PolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// ExponentialBackoffPolicy repeats up to maxAttempts times with exponentially growing delays.
type ExponentialBackoffPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     int
}

// NewExponentialBackoffPolicy returns an exponential backoff policy with given initial interval and max retry attempt count.
func NewExponentialBackoffPolicy(initialInterval time.Duration, maxRetryAttempts int) ExponentialBackoffPolicy {
	return ExponentialBackoffPolicy{InitialInterval: initialInterval, MaxAttempts: maxRetryAttempts}
}

// NewBackOff implements Policy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = 0 // bounded by attempts and ctx
	return withMaxAttempts(eb, p.MaxAttempts)
}

// ConstantBackoffPolicy repeats up to maxAttempts times with constant delays.
type ConstantBackoffPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// NewConstantBackoffPolicy returns a constant backoff policy with given interval and max retry attempt count.
func NewConstantBackoffPolicy(interval time.Duration, maxRetryAttempts int) ConstantBackoffPolicy {
	return ConstantBackoffPolicy{Interval: interval, MaxAttempts: maxRetryAttempts}
}

// NewBackOff implements Policy.
func (p ConstantBackoffPolicy) NewBackOff() backoff.BackOff {
	return withMaxAttempts(backoff.NewConstantBackOff(p.Interval), p.MaxAttempts)
}

func withMaxAttempts(b backoff.BackOff, maxAttempts int) backoff.BackOff {
	if maxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(maxAttempts))
	}
	b.Reset()
	return b
}
