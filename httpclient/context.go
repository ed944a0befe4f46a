/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import "context"

type ctxKey int

const (
	ctxKeyRequestType ctxKey = iota
	ctxKeyIdempotentHint
)

// NewContextWithRequestType creates a new context with request type.
// It overrides the client's request type in logs and metrics, e.g. "phrase.create_key".
func NewContextWithRequestType(ctx context.Context, requestType string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestType, requestType)
}

// GetRequestTypeFromContext extracts request type from the context.
func GetRequestTypeFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyRequestType).(string)
	return s
}

// NewContextWithIdempotentHint returns a derived context that carries an "idempotent request" hint.
// When set to true, RetryableRoundTripper retries the request on server errors even if its method is POST or PATCH.
func NewContextWithIdempotentHint(ctx context.Context, isIdempotent bool) context.Context {
	return context.WithValue(ctx, ctxKeyIdempotentHint, isIdempotent)
}

// GetIdempotentHintFromContext extracts the "idempotent request" hint from context.
// Returns false when the key is not present.
func GetIdempotentHintFromContext(ctx context.Context) bool {
	b, _ := ctx.Value(ctxKeyIdempotentHint).(bool)
	return b
}

func requestTypeOrDefault(ctx context.Context, defaultType string) string {
	if reqType := GetRequestTypeFromContext(ctx); reqType != "" {
		return reqType
	}
	return defaultType
}
