/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/acronis/phrase-migrate/log"
	"github.com/acronis/phrase-migrate/retry"
)

// Default parameter values for RetryableRoundTripper.
const (
	DefaultMaxRetryAttempts                  = 3
	DefaultExponentialBackoffInitialInterval = time.Second
	DefaultExponentialBackoffMultiplier      = 2
)

// UnlimitedRetryAttempts should be used as RetryableRoundTripperOpts.MaxRetryAttempts value
// when we want to stop retries only by RetryableRoundTripperOpts.BackoffPolicy.
const UnlimitedRetryAttempts = -1

// RetryAttemptNumberHeader is an HTTP header name that will contain the serial number of the retry attempt.
const RetryAttemptNumberHeader = "X-Retry-Attempt"

// CheckRetryFunc is a function that is called right after RoundTrip() method
// and determines if the next retry attempt is needed.
type CheckRetryFunc func(req *http.Request, resp *http.Response, roundTripErr error, doneRetryAttempts int) (bool, error)

// RetryableRoundTripper wraps an object that implements http.RoundTripper interface
// and provides a retrying mechanism for HTTP requests.
type RetryableRoundTripper struct {
	Delegate       http.RoundTripper
	Logger         log.FieldLogger
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// MaxRetryAttempts limits retries, so the request may be sent up to MaxRetryAttempts + 1 times.
	MaxRetryAttempts int

	CheckRetry CheckRetryFunc

	// IgnoreRetryAfter disables waiting for the duration from the Retry-After response header.
	IgnoreRetryAfter bool

	// BackoffPolicy computes the delay when Retry-After is absent or ignored.
	BackoffPolicy retry.Policy
}

// RetryableRoundTripperOpts represents an options for RetryableRoundTripper.
type RetryableRoundTripperOpts struct {
	// Logger is used for logging.
	// When it's necessary to use context-specific logger, LoggerProvider should be used instead.
	Logger log.FieldLogger

	// LoggerProvider is a function that provides a context-specific logger.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// MaxRetryAttempts determines how many maximum retry attempts can be done.
	// If its value is UnlimitedRetryAttempts, it's supposed that retry mechanism will be stopped by BackoffPolicy.
	// By default, DefaultMaxRetryAttempts const is used.
	MaxRetryAttempts int

	// CheckRetryFunc determines if the next retry attempt is needed.
	// By default, DefaultCheckRetry function is used.
	CheckRetryFunc CheckRetryFunc

	IgnoreRetryAfter bool

	// BackoffPolicy is used for computing wait time before doing the next retry attempt.
	// By default, DefaultBackoffPolicy is used.
	BackoffPolicy retry.Policy
}

// NewRetryableRoundTripper returns a new instance of RetryableRoundTripper.
func NewRetryableRoundTripper(delegate http.RoundTripper) (*RetryableRoundTripper, error) {
	return NewRetryableRoundTripperWithOpts(delegate, RetryableRoundTripperOpts{})
}

// NewRetryableRoundTripperWithOpts creates a new instance of RetryableRoundTripper with specified options.
func NewRetryableRoundTripperWithOpts(
	delegate http.RoundTripper, opts RetryableRoundTripperOpts,
) (*RetryableRoundTripper, error) {
	if opts.MaxRetryAttempts < 0 && opts.MaxRetryAttempts != UnlimitedRetryAttempts {
		return nil, fmt.Errorf("incorrect max retry attempts")
	}
	if opts.MaxRetryAttempts == 0 {
		opts.MaxRetryAttempts = DefaultMaxRetryAttempts
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.CheckRetryFunc == nil {
		opts.CheckRetryFunc = DefaultCheckRetry
	}
	if opts.BackoffPolicy == nil {
		opts.BackoffPolicy = DefaultBackoffPolicy
	}
	return &RetryableRoundTripper{
		Delegate:         delegate,
		Logger:           opts.Logger,
		LoggerProvider:   opts.LoggerProvider,
		MaxRetryAttempts: opts.MaxRetryAttempts,
		CheckRetry:       opts.CheckRetryFunc,
		BackoffPolicy:    opts.BackoffPolicy,
		IgnoreRetryAfter: opts.IgnoreRetryAfter,
	}, nil
}

// RoundTrip performs request with retry logic.
// nolint: gocyclo
func (rt *RetryableRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rewindReqBody := func(*http.Request) error { return nil }
	if req.Body != nil && req.Body != http.NoBody {
		originalReqBody := req.Body
		defer func() {
			_ = originalReqBody.Close() // Per RoundTripper contract.
		}()
		var err error
		if rewindReqBody, err = makeRequestBodyRewindable(req); err != nil {
			return nil, &RetryableRoundTripperError{Inner: err}
		}
	}

	getNextWaitTime := rt.makeNextWaitTimeProvider()
	reqCtx := req.Context()
	logger := rt.logger(reqCtx)
	reqCloned := false

	var resp *http.Response
	var roundTripErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if rewindErr := rewindReqBody(req); rewindErr != nil {
				logger.Error(fmt.Sprintf(
					"failed to rewind request body between retry attempts, %d request(s) done", attempt),
					log.Error(rewindErr))
				return resp, roundTripErr
			}
			if !reqCloned {
				req, reqCloned = req.Clone(reqCtx), true // Per RoundTripper contract.
			}
			req.Header.Set(RetryAttemptNumberHeader, strconv.Itoa(attempt))
		}

		resp, roundTripErr = rt.Delegate.RoundTrip(req)

		needRetry, checkErr := rt.CheckRetry(req, resp, roundTripErr, attempt)
		if checkErr != nil {
			logger.Error(fmt.Sprintf("failed to check if retry is needed, %d request(s) done", attempt+1),
				log.Error(checkErr))
			return resp, roundTripErr
		}
		if !needRetry {
			return resp, roundTripErr
		}

		if rt.MaxRetryAttempts > 0 && attempt >= rt.MaxRetryAttempts {
			logger.Warnf("max retry attempts exceeded (%d), %d request(s) done", rt.MaxRetryAttempts, attempt+1)
			return resp, roundTripErr
		}
		waitTime, stop := getNextWaitTime(resp)
		if stop {
			return resp, roundTripErr
		}

		if resp != nil && roundTripErr == nil {
			drainResponseBody(resp, logger)
		}

		logger.Debug("request will be retried",
			log.String("method", req.Method), log.Int("attempt", attempt+1), log.DurationIn(waitTime, time.Millisecond))

		select {
		case <-reqCtx.Done():
			logger.Warnf("context canceled (%v) while waiting for the next retry attempt, %d request(s) done",
				reqCtx.Err(), attempt+1)
			if roundTripErr == nil {
				roundTripErr = reqCtx.Err()
			}
			return nil, roundTripErr
		case <-time.After(waitTime):
		}
	}
}

type waitTimeProvider func(resp *http.Response) (waitTime time.Duration, stop bool)

func (rt *RetryableRoundTripper) makeNextWaitTimeProvider() waitTimeProvider {
	bf := rt.BackoffPolicy.NewBackOff()
	return func(resp *http.Response) (waitTime time.Duration, stop bool) {
		if resp != nil && !rt.IgnoreRetryAfter {
			if retryAfter, ok := parseRetryAfterFromResponse(resp); ok {
				return retryAfter, false
			}
		}
		waitTime = bf.NextBackOff()
		return waitTime, waitTime == backoff.Stop
	}
}

func (rt *RetryableRoundTripper) logger(ctx context.Context) log.FieldLogger {
	if rt.LoggerProvider != nil {
		return rt.LoggerProvider(ctx)
	}
	return rt.Logger
}

// RetryableRoundTripperError is returned in RoundTrip method of RetryableRoundTripper
// when the original request cannot be potentially retried.
type RetryableRoundTripperError struct {
	Inner error
}

func (e *RetryableRoundTripperError) Error() string {
	return fmt.Sprintf("retryable round trip: %s", e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *RetryableRoundTripperError) Unwrap() error {
	return e.Inner
}

// DefaultCheckRetry retries 429 responses for any request.
// Server errors and temporary network errors are retried only for idempotent methods
// or when the request context carries the idempotent hint.
func DefaultCheckRetry(
	req *http.Request, resp *http.Response, roundTripErr error, _ int,
) (needRetry bool, err error) {
	if roundTripErr != nil {
		return IsIdempotentRequest(req) && CheckErrorIsTemporary(roundTripErr), nil
	}
	if resp == nil {
		return false, fmt.Errorf("both response and round trip error are nil")
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}
	return resp.StatusCode >= http.StatusInternalServerError && IsIdempotentRequest(req), nil
}

// IsIdempotentRequest reports whether the request may be safely repeated.
func IsIdempotentRequest(req *http.Request) bool {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete, http.MethodTrace:
		return true
	}
	return GetIdempotentHintFromContext(req.Context())
}

// DefaultBackoffPolicy is a default backoff policy.
var DefaultBackoffPolicy = retry.PolicyFunc(func() backoff.BackOff {
	bf := backoff.NewExponentialBackOff()
	bf.InitialInterval = DefaultExponentialBackoffInitialInterval
	bf.Multiplier = DefaultExponentialBackoffMultiplier
	bf.Reset()
	return bf
})

// CheckErrorIsTemporary checks either error is temporary or not.
func CheckErrorIsTemporary(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var terr interface{ Temporary() bool }
	return errors.As(err, &terr) && terr.Temporary()
}

func parseRetryAfterFromResponse(resp *http.Response) (retryAfter time.Duration, ok bool) {
	retryAfterVal := resp.Header.Get("Retry-After")
	if retryAfterVal == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(retryAfterVal); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	parsedTime, err := http.ParseTime(retryAfterVal)
	if err != nil {
		return 0, false
	}
	if d := time.Until(parsedTime); d > 0 {
		return d, true
	}
	return 0, true
}
