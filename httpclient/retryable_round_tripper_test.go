/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/phrase-migrate/retry"
)

type reqInfo struct {
	method             string
	body               string
	retryAttemptHeader string
}

// scriptedServer responds with the given status codes in order and 200 afterwards.
type scriptedServer struct {
	*httptest.Server
	mu        sync.Mutex
	reqInfos  []reqInfo
	respCodes []int
	header    http.Header
}

func newScriptedServer(respCodes ...int) *scriptedServer {
	srv := &scriptedServer{respCodes: respCodes, header: http.Header{}}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		srv.mu.Lock()
		srv.reqInfos = append(srv.reqInfos, reqInfo{
			method:             r.Method,
			body:               string(body),
			retryAttemptHeader: r.Header.Get(RetryAttemptNumberHeader),
		})
		code := http.StatusOK
		if len(srv.respCodes) > 0 {
			code, srv.respCodes = srv.respCodes[0], srv.respCodes[1:]
		}
		for k, v := range srv.header {
			rw.Header()[k] = v
		}
		srv.mu.Unlock()
		rw.WriteHeader(code)
	}))
	return srv
}

func (s *scriptedServer) ReqInfos() []reqInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reqInfo(nil), s.reqInfos...)
}

func newTestRetryableClient(t *testing.T, opts RetryableRoundTripperOpts) *http.Client {
	t.Helper()
	if opts.BackoffPolicy == nil {
		opts.BackoffPolicy = retry.NewConstantBackoffPolicy(5*time.Millisecond, 0)
	}
	rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, opts)
	require.NoError(t, err)
	return &http.Client{Transport: rt}
}

func TestRetryableRoundTripper_IdempotentRequestIsRetried(t *testing.T) {
	srv := newScriptedServer(http.StatusServiceUnavailable, http.StatusBadGateway)
	defer srv.Close()

	resp, err := newTestRetryableClient(t, RetryableRoundTripperOpts{}).Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	infos := srv.ReqInfos()
	require.Len(t, infos, 3)
	require.Equal(t, "", infos[0].retryAttemptHeader)
	require.Equal(t, "1", infos[1].retryAttemptHeader)
	require.Equal(t, "2", infos[2].retryAttemptHeader)
}

func TestRetryableRoundTripper_NonIdempotentRequest(t *testing.T) {
	t.Run("server error is not retried", func(t *testing.T) {
		srv := newScriptedServer(http.StatusInternalServerError)
		defer srv.Close()

		resp, err := newTestRetryableClient(t, RetryableRoundTripperOpts{}).Post(srv.URL, "application/json", bytes.NewBufferString(`{}`))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Len(t, srv.ReqInfos(), 1)
	})

	t.Run("too many requests is retried", func(t *testing.T) {
		srv := newScriptedServer(http.StatusTooManyRequests)
		defer srv.Close()

		resp, err := newTestRetryableClient(t, RetryableRoundTripperOpts{}).Post(srv.URL, "application/json", bytes.NewBufferString(`{"a":1}`))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		infos := srv.ReqInfos()
		require.Len(t, infos, 2)
		require.Equal(t, `{"a":1}`, infos[0].body)
		require.Equal(t, `{"a":1}`, infos[1].body)
	})

	t.Run("server error is retried with idempotent hint", func(t *testing.T) {
		srv := newScriptedServer(http.StatusInternalServerError)
		defer srv.Close()

		ctx := NewContextWithIdempotentHint(context.Background(), true)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL, io.NopCloser(bytes.NewBufferString("payload")))
		require.NoError(t, err)
		resp, err := newTestRetryableClient(t, RetryableRoundTripperOpts{}).Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		infos := srv.ReqInfos()
		require.Len(t, infos, 2)
		require.Equal(t, "payload", infos[1].body)
	})
}

func TestRetryableRoundTripper_MaxRetryAttempts(t *testing.T) {
	srv := newScriptedServer(503, 503, 503, 503, 503)
	defer srv.Close()

	resp, err := newTestRetryableClient(t, RetryableRoundTripperOpts{MaxRetryAttempts: 2}).Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Len(t, srv.ReqInfos(), 3)
}

func TestRetryableRoundTripper_RetryAfter(t *testing.T) {
	srv := newScriptedServer(http.StatusTooManyRequests)
	defer srv.Close()
	srv.header.Set("Retry-After", "1")

	// The backoff policy would give up immediately, Retry-After takes precedence.
	client := newTestRetryableClient(t, RetryableRoundTripperOpts{BackoffPolicy: retry.NewConstantBackoffPolicy(time.Hour, 0)})
	start := time.Now()
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestRetryableRoundTripper_ContextCanceledWhileWaiting(t *testing.T) {
	srv := newScriptedServer(503, 503)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	client := newTestRetryableClient(t, RetryableRoundTripperOpts{BackoffPolicy: retry.NewConstantBackoffPolicy(time.Hour, 0)})
	_, err = client.Do(req)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, srv.ReqInfos(), 1)
}

func TestParseRetryAfterFromResponse(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	_, ok := parseRetryAfterFromResponse(resp)
	require.False(t, ok)

	resp.Header.Set("Retry-After", "3")
	d, ok := parseRetryAfterFromResponse(resp)
	require.True(t, ok)
	require.Equal(t, 3*time.Second, d)

	resp.Header.Set("Retry-After", "-3")
	_, ok = parseRetryAfterFromResponse(resp)
	require.False(t, ok)

	resp.Header.Set("Retry-After", time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat))
	d, ok = parseRetryAfterFromResponse(resp)
	require.True(t, ok)
	require.Zero(t, d)
}

func TestNewRetryableRoundTripper_InvalidAttempts(t *testing.T) {
	_, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{MaxRetryAttempts: -5})
	require.Error(t, err)
}
