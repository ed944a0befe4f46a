/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"fmt"
	"net/http"
)

// DefaultAuthScheme is the default Authorization scheme.
const DefaultAuthScheme = "Bearer"

// AuthRoundTripperError is returned in RoundTrip method of AuthRoundTripper
// when the token cannot be obtained.
type AuthRoundTripperError struct {
	Inner error
}

func (e *AuthRoundTripperError) Error() string {
	return fmt.Sprintf("auth round trip: %s", e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *AuthRoundTripperError) Unwrap() error {
	return e.Inner
}

// AuthProvider provides a token for the Authorization header.
type AuthProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// StaticToken is an AuthProvider for a long-lived access token.
type StaticToken string

// GetToken returns the token, an empty token is an error.
func (t StaticToken) GetToken(context.Context) (string, error) {
	if t == "" {
		return "", fmt.Errorf("access token is not configured")
	}
	return string(t), nil
}

// AuthRoundTripperOpts is options for AuthRoundTripper.
type AuthRoundTripperOpts struct {
	// Scheme is put before the token, e.g. "token" for Phrase. DefaultAuthScheme is used if empty.
	Scheme string
}

// AuthRoundTripper sets Authorization HTTP header in all outgoing requests that don't have it yet.
type AuthRoundTripper struct {
	Delegate     http.RoundTripper
	AuthProvider AuthProvider
	Scheme       string
}

// NewAuthRoundTripper creates a new AuthRoundTripper with the Bearer scheme.
func NewAuthRoundTripper(delegate http.RoundTripper, authProvider AuthProvider) *AuthRoundTripper {
	return NewAuthRoundTripperWithOpts(delegate, authProvider, AuthRoundTripperOpts{})
}

// NewAuthRoundTripperWithOpts creates a new AuthRoundTripper with options.
func NewAuthRoundTripperWithOpts(delegate http.RoundTripper, authProvider AuthProvider, opts AuthRoundTripperOpts) *AuthRoundTripper {
	if opts.Scheme == "" {
		opts.Scheme = DefaultAuthScheme
	}
	return &AuthRoundTripper{Delegate: delegate, AuthProvider: authProvider, Scheme: opts.Scheme}
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *AuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") != "" {
		return rt.Delegate.RoundTrip(req)
	}
	token, err := rt.AuthProvider.GetToken(req.Context())
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close() // Per RoundTripper contract.
		}
		return nil, &AuthRoundTripperError{Inner: err}
	}
	req = req.Clone(req.Context()) // Per RoundTripper contract.
	req.Header.Set("Authorization", rt.Scheme+" "+token)
	return rt.Delegate.RoundTrip(req)
}
