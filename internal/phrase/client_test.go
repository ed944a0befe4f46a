/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package phrase_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/acronis/phrase-migrate/httpclient"
	"github.com/acronis/phrase-migrate/internal/phrase"
	"github.com/acronis/phrase-migrate/internal/phrase/phrasetest"
	"github.com/acronis/phrase-migrate/log/logtest"
	"github.com/acronis/phrase-migrate/lrucache"
)

const testToken = "test-token"

func newTestHTTPClient(t *testing.T) *http.Client {
	t.Helper()
	cfg := httpclient.NewDefaultConfig()
	cfg.Retries.Enabled = false
	httpClient, err := httpclient.NewWithOpts(cfg, httpclient.Opts{
		AuthProvider: httpclient.StaticToken(testToken),
		AuthScheme:   phrase.AuthScheme,
	})
	require.NoError(t, err)
	return httpClient
}

func newTestClient(t *testing.T, srv *phrasetest.Server, perPage int) *phrase.Client {
	t.Helper()
	client, err := phrase.NewClient(phrase.ClientConfig{BaseURL: srv.URL, PerPage: perPage}, newTestHTTPClient(t), logtest.NewLogger())
	require.NoError(t, err)
	return client
}

func newTestServer(t *testing.T) *phrasetest.Server {
	t.Helper()
	srv := phrasetest.NewServer()
	srv.Token = testToken
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ListLocales_Pagination(t *testing.T) {
	srv := newTestServer(t)
	codes := make([]string, 7)
	for i := range codes {
		codes[i] = fmt.Sprintf("l%d", i)
	}
	srv.AddProject("p1", codes...)

	client := newTestClient(t, srv, 3)
	locales, err := client.ListLocales(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, locales, 7)
	require.Equal(t, "l6", locales[6].Code)
	require.Equal(t, phrasetest.LocaleID("p1", "l0"), locales[0].ID)
	require.Equal(t, 3, srv.RequestCount(phrasetest.RouteListLocales))
}

func TestClient_LocaleIDs_Cached(t *testing.T) {
	srv := newTestServer(t)
	srv.AddProject("p1", "zh-CN", "en-US")

	client := newTestClient(t, srv, 100)
	for i := 0; i < 3; i++ {
		ids, err := client.LocaleIDs(context.Background(), "p1")
		require.NoError(t, err)
		require.Equal(t, map[string]string{
			"zh-CN": phrasetest.LocaleID("p1", "zh-CN"),
			"en-US": phrasetest.LocaleID("p1", "en-US"),
		}, ids)
	}
	require.Equal(t, 1, srv.RequestCount(phrasetest.RouteListLocales))
}

func TestClient_LocaleIDs_ErrorIsNotCached(t *testing.T) {
	srv := newTestServer(t)
	srv.AddProject("p1", "zh-CN")
	failed := false
	srv.FailureHook = func(route string, _ *http.Request) int {
		if !failed {
			failed = true
			return http.StatusServiceUnavailable
		}
		return 0
	}

	client := newTestClient(t, srv, 100)
	_, err := client.LocaleIDs(context.Background(), "p1")
	require.Error(t, err)
	require.Equal(t, http.StatusServiceUnavailable, phrase.StatusCode(err))

	ids, err := client.LocaleIDs(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

func TestClient_LocaleIDs_CacheMetrics(t *testing.T) {
	srv := newTestServer(t)
	srv.AddProject("p1", "zh-CN")

	metrics := lrucache.NewPrometheusMetrics()
	client, err := phrase.NewClientWithOpts(phrase.ClientConfig{BaseURL: srv.URL}, newTestHTTPClient(t), phrase.ClientOpts{
		Logger:              logtest.NewLogger(),
		LocalesCacheMetrics: metrics.ForCache(phrase.LocalesCacheName),
	})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = client.LocaleIDs(context.Background(), "p1")
		require.NoError(t, err)
	}

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.EntriesAmount.WithLabelValues(phrase.LocalesCacheName)))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.HitsTotal.WithLabelValues(phrase.LocalesCacheName)))
	require.Equal(t, 1, srv.RequestCount(phrasetest.RouteListLocales))
}

func TestClient_CreateKey(t *testing.T) {
	srv := newTestServer(t)
	srv.AddProject("p1", "zh-CN")
	client := newTestClient(t, srv, 100)

	key, err := client.CreateKey(context.Background(), "p1", "home.title")
	require.NoError(t, err)
	require.NotEmpty(t, key.ID)
	require.Equal(t, "home.title", key.Name)

	_, err = client.CreateKey(context.Background(), "p1", "home.title")
	require.ErrorIs(t, err, phrase.ErrKeyExists)
	var apiErr *phrase.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Contains(t, apiErr.Error(), "has already been taken")

	require.Equal(t, []string{"home.title"}, srv.Keys("p1"))
}

func TestClient_SetTranslation(t *testing.T) {
	srv := newTestServer(t)
	srv.AddProject("p1", "zh-CN", "en-US")
	client := newTestClient(t, srv, 100)
	ctx := context.Background()

	key, err := client.CreateKey(ctx, "p1", "home.title")
	require.NoError(t, err)
	require.NoError(t, client.SetTranslation(ctx, "p1", key.ID, phrasetest.LocaleID("p1", "en-US"), "Home"))

	require.Equal(t, map[string]map[string]string{"home.title": {"en-US": "Home"}}, srv.Translations("p1"))

	err = client.SetTranslation(ctx, "p1", key.ID, "unknown-locale", "Home")
	require.Error(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, phrase.StatusCode(err))
	require.NotErrorIs(t, err, phrase.ErrKeyExists)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := newTestServer(t)
	srv.AddProject("p1", "zh-CN")
	srv.Token = "another-token"

	_, err := newTestClient(t, srv, 100).ListLocales(context.Background(), "p1")
	var clientErr *phrase.ClientError
	require.True(t, errors.As(err, &clientErr))
	require.Equal(t, http.StatusUnauthorized, clientErr.StatusCode)
	require.Equal(t, http.MethodGet, clientErr.Method)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := phrase.NewClient(phrase.ClientConfig{}, nil, nil)
	require.Error(t, err)
}
