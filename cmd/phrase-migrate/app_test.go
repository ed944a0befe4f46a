/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/acronis/phrase-migrate/internal/appconfig"
	"github.com/acronis/phrase-migrate/log/logtest"
)

func TestEnv_StartMetrics(t *testing.T) {
	cfg := appconfig.NewDefault()
	cfg.MetricsServer.Enabled = true
	cfg.MetricsServer.Address = "127.0.0.1:0"
	e := &env{cfg: cfg, logger: logtest.NewLogger()}
	require.NoError(t, e.startMetrics())

	_, err := e.newUploader()
	require.NoError(t, err)

	gathered := func() map[string]bool {
		families, gatherErr := prometheus.DefaultGatherer.Gather()
		require.NoError(t, gatherErr)
		names := make(map[string]bool, len(families))
		for _, f := range families {
			names[f.GetName()] = true
		}
		return names
	}
	names := gathered()
	require.True(t, names[metricsNamespace+"_cache_entries_amount"])
	require.True(t, names[metricsNamespace+"_build_info"])

	e.close()
	names = gathered()
	require.False(t, names[metricsNamespace+"_cache_entries_amount"])
	require.False(t, names[metricsNamespace+"_build_info"])
}
