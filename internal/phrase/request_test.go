/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package phrase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/phrase-migrate/log"
)

func TestNewJSONRequest(t *testing.T) {
	req, err := NewJSONRequest(context.Background(), http.MethodPost, "http://localhost/keys", map[string]string{"name": "a"})
	require.NoError(t, err)
	require.Equal(t, ContentTypeAppJSON, req.Header.Get("Content-Type"))
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"a"}`, string(body))
	require.NotNil(t, req.GetBody)

	_, err = NewJSONRequest(context.Background(), http.MethodGet, "http://localhost/keys", map[string]string{})
	require.Error(t, err)
	_, err = NewJSONRequest(context.Background(), http.MethodPost, "http://localhost/keys", nil)
	require.Error(t, err)
}

func TestDoRequestAndUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantErr     string
		wantResult  map[string]string
	}{
		{
			name:        "success",
			status:      http.StatusOK,
			contentType: ContentTypeAppJSON,
			body:        `{"id":"1"}`,
			wantResult:  map[string]string{"id": "1"},
		},
		{
			name:        "api error",
			status:      http.StatusUnprocessableEntity,
			contentType: ContentTypeAppJSON,
			body:        `{"message":"Validation failed","errors":[{"resource":"Key","field":"name","message":"has already been taken"}]}`,
			wantErr:     "status 422: error response: Validation failed (Key name has already been taken)",
		},
		{
			name:        "non-json error",
			status:      http.StatusBadGateway,
			contentType: "text/html",
			body:        "<html>bad gateway</html>",
			wantErr:     "status 502: Bad Gateway",
		},
		{
			name:        "invalid json",
			status:      http.StatusOK,
			contentType: ContentTypeAppJSON,
			body:        `{`,
			wantErr:     "unmarshaling response",
		},
		{
			name:        "empty body",
			status:      http.StatusOK,
			contentType: ContentTypeAppJSON,
			wantErr:     "empty response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
				rw.Header().Set("Content-Type", tt.contentType)
				rw.WriteHeader(tt.status)
				_, _ = rw.Write([]byte(tt.body))
			}))
			defer srv.Close()

			req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
			require.NoError(t, err)
			var result map[string]string
			err = DoRequestAndUnmarshalJSON(srv.Client(), req, &result, log.NewDisabledLogger())
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				require.Equal(t, tt.status, StatusCode(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantResult, result)
		})
	}
}
