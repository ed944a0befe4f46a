/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/acronis/phrase-migrate/log"
)

// LoggingMode represents a mode of logging.
type LoggingMode string

// Logging modes.
const (
	LoggingModeNone   LoggingMode = "none"
	LoggingModeAll    LoggingMode = "all"
	LoggingModeFailed LoggingMode = "failed"
)

// IsValid checks if the logger mode is valid.
func (lm LoggingMode) IsValid() bool {
	switch lm {
	case LoggingModeNone, LoggingModeAll, LoggingModeFailed:
		return true
	}
	return false
}

// LoggingRoundTripper implements http.RoundTripper for logging requests.
type LoggingRoundTripper struct {
	Delegate http.RoundTripper

	// ReqType is a type of request, overridden per request by NewContextWithRequestType.
	ReqType string

	Opts LoggingRoundTripperOpts
}

// LoggingRoundTripperOpts represents an options for LoggingRoundTripper.
type LoggingRoundTripperOpts struct {
	// LoggerProvider is a function that provides a context-specific logger. Nothing is logged when it's nil.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// Mode of logging: none, all, failed.
	Mode LoggingMode

	// SlowRequestThreshold makes requests that took longer logged at "warn" level regardless of the mode.
	// Zero disables it.
	SlowRequestThreshold time.Duration
}

// NewLoggingRoundTripper creates an HTTP transport that logs all requests to the given logger.
func NewLoggingRoundTripper(delegate http.RoundTripper, reqType string, logger log.FieldLogger) http.RoundTripper {
	return NewLoggingRoundTripperWithOpts(delegate, reqType, LoggingRoundTripperOpts{
		LoggerProvider: func(context.Context) log.FieldLogger { return logger },
		Mode:           LoggingModeAll,
	})
}

// NewLoggingRoundTripperWithOpts creates an HTTP transport that log requests with options.
func NewLoggingRoundTripperWithOpts(
	delegate http.RoundTripper, reqType string, opts LoggingRoundTripperOpts,
) http.RoundTripper {
	if opts.Mode == "" {
		opts.Mode = LoggingModeFailed
	}
	return &LoggingRoundTripper{Delegate: delegate, ReqType: reqType, Opts: opts}
}

// RoundTrip adds logging capabilities to the HTTP transport.
func (rt *LoggingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if rt.Opts.Mode == LoggingModeNone || rt.Opts.LoggerProvider == nil {
		return rt.Delegate.RoundTrip(r)
	}

	start := time.Now()
	resp, err := rt.Delegate.RoundTrip(r)
	elapsed := time.Since(start)

	failed := err != nil || resp.StatusCode >= http.StatusBadRequest
	slow := rt.Opts.SlowRequestThreshold > 0 && elapsed >= rt.Opts.SlowRequestThreshold
	if !failed && !slow && rt.Opts.Mode != LoggingModeAll {
		return resp, err
	}

	ctx := r.Context()
	logger := rt.Opts.LoggerProvider(ctx)
	if logger == nil {
		return resp, err
	}
	fields := []log.Field{
		log.String("method", r.Method),
		log.String("url", r.URL.String()),
		log.String("req_type", requestTypeOrDefault(ctx, rt.ReqType)),
		log.DurationIn(elapsed, time.Millisecond),
	}
	if reqID := r.Header.Get(RequestIDHeader); reqID != "" {
		fields = append(fields, log.String("request_id", reqID))
	}
	if attempt := r.Header.Get(RetryAttemptNumberHeader); attempt != "" {
		fields = append(fields, log.String("retry_attempt", attempt))
	}

	switch {
	case err != nil:
		logger.Error("client http request failed", append(fields, log.Error(err))...)
	case resp.StatusCode >= http.StatusInternalServerError:
		logger.Error("client http request done", append(fields, log.Int("status", resp.StatusCode))...)
	case failed || slow:
		logger.Warn("client http request done", append(fields, log.Int("status", resp.StatusCode), log.Bool("slow", slow))...)
	default:
		logger.Info("client http request done", append(fields, log.Int("status", resp.StatusCode))...)
	}
	return resp, err
}
