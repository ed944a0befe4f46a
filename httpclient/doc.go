/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package httpclient builds an *http.Client whose transport is a chain of round trippers:
// retries with backoff, request ID, authorization, User-Agent, client-side rate limiting,
// Prometheus metrics and logging. Every link is configurable through Config.
package httpclient
