/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/acronis/phrase-migrate/log"
)

// DefaultRequestType is used in logs and metrics when Opts.RequestType is empty.
const DefaultRequestType = "external"

// Opts provides options for NewWithOpts function.
type Opts struct {
	// UserAgent is a user agent string.
	UserAgent string

	// RequestType is a type of request (e.g. "phrase") used to correlate logs and metrics.
	RequestType string

	// Delegate is the last RoundTripper in the chain. A clone of http.DefaultTransport is used by default.
	Delegate http.RoundTripper

	// Logger is used by the logging and retryable round trippers.
	Logger log.FieldLogger

	// LoggerProvider is a function that provides a context-specific logger. It has priority over Logger.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// RequestIDProvider provides a request ID. A new xid is generated for each request by default.
	RequestIDProvider func(ctx context.Context) string

	// AuthProvider enables the Authorization header.
	AuthProvider AuthProvider

	// AuthScheme is the Authorization scheme, "Bearer" by default.
	AuthScheme string

	// Collector is a metrics collector.
	Collector MetricsCollector
}

// New creates a new HTTP client with the configured round trippers.
func New(cfg *Config) (*http.Client, error) {
	return NewWithOpts(cfg, Opts{})
}

// NewWithOpts creates a new HTTP client. The outgoing request passes the round trippers in the order:
// retryable, request ID, authorization, user agent, rate limiting, metrics, logging, delegate.
// So every retry attempt is rate limited, measured and logged on its own.
func NewWithOpts(cfg *Config, opts Opts) (*http.Client, error) {
	var err error
	delegate := opts.Delegate
	if delegate == nil {
		delegate = http.DefaultTransport.(*http.Transport).Clone()
	}
	if opts.RequestType == "" {
		opts.RequestType = DefaultRequestType
	}
	loggerProvider := opts.LoggerProvider
	if loggerProvider == nil && opts.Logger != nil {
		loggerProvider = func(context.Context) log.FieldLogger { return opts.Logger }
	}

	if cfg.Logger.Enabled {
		logOpts := cfg.Logger.TransportOpts()
		logOpts.LoggerProvider = loggerProvider
		delegate = NewLoggingRoundTripperWithOpts(delegate, opts.RequestType, logOpts)
	}

	if cfg.Metrics.Enabled && opts.Collector != nil {
		delegate = NewMetricsRoundTripperWithOpts(delegate, MetricsRoundTripperOpts{
			RequestType: opts.RequestType,
			Collector:   opts.Collector,
		})
	}

	if cfg.RateLimits.Enabled {
		delegate, err = NewRateLimitingRoundTripperWithOpts(delegate, cfg.RateLimits.Limit, cfg.RateLimits.TransportOpts())
		if err != nil {
			return nil, fmt.Errorf("create rate limiting round tripper: %w", err)
		}
	}

	if opts.UserAgent != "" {
		delegate = NewUserAgentRoundTripper(delegate, opts.UserAgent)
	}

	if opts.AuthProvider != nil {
		delegate = NewAuthRoundTripperWithOpts(delegate, opts.AuthProvider, AuthRoundTripperOpts{Scheme: opts.AuthScheme})
	}

	delegate = NewRequestIDRoundTripperWithOpts(delegate, RequestIDRoundTripperOpts{
		RequestIDProvider: opts.RequestIDProvider,
	})

	if cfg.Retries.Enabled {
		retryOpts := cfg.Retries.TransportOpts()
		retryOpts.LoggerProvider = loggerProvider
		delegate, err = NewRetryableRoundTripperWithOpts(delegate, retryOpts)
		if err != nil {
			return nil, fmt.Errorf("create retryable round tripper: %w", err)
		}
	}

	return &http.Client{Transport: delegate, Timeout: cfg.Timeout}, nil
}
