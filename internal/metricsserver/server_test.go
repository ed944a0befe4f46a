/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package metricsserver

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/acronis/phrase-migrate/config"
	"github.com/acronis/phrase-migrate/log/logtest"
)

func startServer(t *testing.T, cfg *Config, reg *prometheus.Registry) *Server {
	t.Helper()
	srv := New(cfg, reg, logtest.NewLogger())
	require.NoError(t, srv.Listen())
	startErr := make(chan error, 1)
	go func() { startErr <- srv.Start() }()
	t.Cleanup(func() {
		require.NoError(t, srv.Stop())
		require.NoError(t, <-startErr)
	})
	return srv
}

func TestServer_StartReturnsServeError(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Address = "127.0.0.1:0"
	srv := New(cfg, prometheus.NewRegistry(), logtest.NewLogger())
	require.NoError(t, srv.Listen())
	require.NoError(t, srv.listener.Close())

	err := srv.Start()
	require.Error(t, err)
	require.ErrorContains(t, err, "serve metrics")
	require.NoError(t, srv.Stop())
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_uploads_total", Help: "Test counter."})
	reg.MustRegister(counter)
	counter.Add(3)

	srv := startServer(t, &Config{Address: "127.0.0.1:0"}, reg)

	status, body := get(t, "http://"+srv.Addr()+"/metrics")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "test_uploads_total 3")

	status, _ = get(t, "http://"+srv.Addr()+"/debug/pprof/")
	require.Equal(t, http.StatusNotFound, status)
}

func TestServer_Profiling(t *testing.T) {
	srv := startServer(t, &Config{Address: "127.0.0.1:0", Profiling: true}, prometheus.NewRegistry())
	status, body := get(t, "http://"+srv.Addr()+"/debug/pprof/")
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, body)
}

func TestServer_ListenBusyAddress(t *testing.T) {
	first := startServer(t, &Config{Address: "127.0.0.1:0"}, prometheus.NewRegistry())
	second := New(&Config{Address: first.Addr()}, nil, logtest.NewLogger())
	require.Error(t, second.Listen())
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    *Config
		wantErr string
	}{
		{
			name: "defaults",
			data: ``,
			want: &Config{Address: DefaultAddress},
		},
		{
			name: "enabled",
			data: "metricsServer:\n  enabled: true\n  address: \":9100\"\n  profiling: true\n",
			want: &Config{Enabled: true, Address: ":9100", Profiling: true},
		},
		{
			name:    "enabled without address",
			data:    "metricsServer:\n  enabled: true\n  address: \"\"\n",
			wantErr: "metricsServer.address: cannot be empty when the server is enabled",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.data), config.DataTypeYAML, cfg)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.want.keyPrefix = cfgDefaultKeyPrefix
			require.Equal(t, tt.want, cfg)
		})
	}
}
