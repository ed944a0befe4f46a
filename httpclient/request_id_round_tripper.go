/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"

	"github.com/rs/xid"
)

// RequestIDHeader is the header carrying the request ID.
const RequestIDHeader = "X-Request-ID"

// RequestIDRoundTripperOpts represents options for RequestIDRoundTripper.
type RequestIDRoundTripperOpts struct {
	// RequestIDProvider provides a request ID. A new xid is generated for each request by default.
	RequestIDProvider func(ctx context.Context) string
}

// RequestIDRoundTripper sets X-Request-ID header, so retries of the same request share the ID.
type RequestIDRoundTripper struct {
	Delegate          http.RoundTripper
	RequestIDProvider func(ctx context.Context) string
}

// NewRequestIDRoundTripper creates an HTTP transport with X-Request-ID header support.
func NewRequestIDRoundTripper(delegate http.RoundTripper) http.RoundTripper {
	return NewRequestIDRoundTripperWithOpts(delegate, RequestIDRoundTripperOpts{})
}

// NewRequestIDRoundTripperWithOpts creates an HTTP transport with X-Request-ID header support with options.
func NewRequestIDRoundTripperWithOpts(delegate http.RoundTripper, opts RequestIDRoundTripperOpts) http.RoundTripper {
	if opts.RequestIDProvider == nil {
		opts.RequestIDProvider = func(context.Context) string { return xid.New().String() }
	}
	return &RequestIDRoundTripper{Delegate: delegate, RequestIDProvider: opts.RequestIDProvider}
}

// RoundTrip adds X-Request-ID header to the request.
func (rt *RequestIDRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get(RequestIDHeader) != "" {
		return rt.Delegate.RoundTrip(r)
	}
	requestID := rt.RequestIDProvider(r.Context())
	if requestID == "" {
		return rt.Delegate.RoundTrip(r)
	}
	r = r.Clone(r.Context()) // Per RoundTripper contract.
	r.Header.Set(RequestIDHeader, requestID)
	return rt.Delegate.RoundTrip(r)
}
