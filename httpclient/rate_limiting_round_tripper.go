/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default parameter values for RateLimitingRoundTripper.
const (
	DefaultRateLimitingBurst       = 1
	DefaultRateLimitingWaitTimeout = 15 * time.Second
)

// Phrase announces the remaining request quota of the current window and its reset time in these headers.
const (
	DefaultQuotaRemainingHeader = "X-Rate-Limit-Remaining"
	DefaultQuotaResetHeader     = "X-Rate-Limit-Reset"
)

// RateLimitingQuota configures honoring of the quota announced by the server.
// When the remaining value drops to zero, requests are held until the reset time (unix seconds).
type RateLimitingQuota struct {
	RemainingHeader string
	ResetHeader     string
}

// RateLimitingRoundTripperOpts represents an options for RateLimitingRoundTripper.
type RateLimitingRoundTripperOpts struct {
	Burst       int
	WaitTimeout time.Duration
	Quota       RateLimitingQuota
}

// RateLimitingRoundTripper wraps implementing http.RoundTripper interface object
// and limits the rate of outgoing requests per second.
// It also stops sending requests while the server-announced quota is exhausted.
type RateLimitingRoundTripper struct {
	Delegate http.RoundTripper

	RateLimit   int
	Burst       int
	WaitTimeout time.Duration
	Quota       RateLimitingQuota

	rateLimiter *rate.Limiter

	mu           sync.Mutex
	quotaResetAt time.Time
}

// NewRateLimitingRoundTripper creates a new RateLimitingRoundTripper with specified rate limit.
func NewRateLimitingRoundTripper(delegate http.RoundTripper, rateLimit int) (*RateLimitingRoundTripper, error) {
	return NewRateLimitingRoundTripperWithOpts(delegate, rateLimit, RateLimitingRoundTripperOpts{})
}

// NewRateLimitingRoundTripperWithOpts creates a new RateLimitingRoundTripper with specified rate limit and options.
// For options that are not presented, the default values will be used.
func NewRateLimitingRoundTripperWithOpts(
	delegate http.RoundTripper, rateLimit int, opts RateLimitingRoundTripperOpts,
) (*RateLimitingRoundTripper, error) {
	if rateLimit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive")
	}
	if opts.Burst < 0 {
		return nil, fmt.Errorf("burst must be positive")
	}
	if opts.Burst == 0 {
		opts.Burst = DefaultRateLimitingBurst
	}
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = DefaultRateLimitingWaitTimeout
	}
	return &RateLimitingRoundTripper{
		Delegate:    delegate,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), opts.Burst),
		RateLimit:   rateLimit,
		Burst:       opts.Burst,
		WaitTimeout: opts.WaitTimeout,
		Quota:       opts.Quota,
	}, nil
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *RateLimitingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := rt.wait(r.Context()); err != nil {
		if r.Body != nil {
			_ = r.Body.Close() // Per RoundTripper contract.
		}
		return nil, err
	}

	resp, err := rt.Delegate.RoundTrip(r)
	if err != nil {
		return resp, err
	}
	if rt.Quota.RemainingHeader != "" {
		rt.updateQuota(resp)
	}
	return resp, nil
}

func (rt *RateLimitingRoundTripper) wait(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, rt.WaitTimeout)
	defer cancel()

	if resetIn := rt.quotaResetIn(); resetIn > 0 {
		timer := time.NewTimer(resetIn)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &RateLimitingWaitError{Inner: fmt.Errorf("quota resets in %s: %w", resetIn, ctx.Err())}
		case <-timer.C:
		}
	}

	if err := rt.rateLimiter.Wait(ctx); err != nil {
		return &RateLimitingWaitError{Inner: err}
	}
	return nil
}

func (rt *RateLimitingRoundTripper) quotaResetIn() time.Duration {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.quotaResetAt.IsZero() {
		return 0
	}
	d := time.Until(rt.quotaResetAt)
	if d <= 0 {
		rt.quotaResetAt = time.Time{}
		return 0
	}
	return d
}

func (rt *RateLimitingRoundTripper) updateQuota(resp *http.Response) {
	remaining, err := strconv.Atoi(resp.Header.Get(rt.Quota.RemainingHeader))
	if err != nil || remaining > 0 {
		return
	}
	resetUnix, err := strconv.ParseInt(resp.Header.Get(rt.Quota.ResetHeader), 10, 64)
	if err != nil {
		return
	}
	resetAt := time.Unix(resetUnix, 0)
	rt.mu.Lock()
	if resetAt.After(rt.quotaResetAt) {
		rt.quotaResetAt = resetAt
	}
	rt.mu.Unlock()
}

// RateLimitingWaitError is returned in RoundTrip method of RateLimitingRoundTripper
// when the request could not be sent within the wait timeout.
type RateLimitingWaitError struct {
	Inner error
}

func (e *RateLimitingWaitError) Error() string {
	return fmt.Sprintf("wait due to client side rate limiting: %s", e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *RateLimitingWaitError) Unwrap() error {
	return e.Inner
}
