/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package executor

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/phrase-migrate/config"
	"github.com/acronis/phrase-migrate/internal/ratelimit"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfgData string
		wantCfg *Config
		wantErr string
	}{
		{
			name:    "defaults",
			cfgData: `{}`,
			wantCfg: NewDefaultConfig(),
		},
		{
			name: "all values",
			cfgData: `
executor:
  maxConcurrent: 8
  maxRequestsPerWindow: 100
  windowSize: 1m
  pollInterval: 50ms
  workTimeout: 30s
  algorithm: leaky_bucket
`,
			wantCfg: &Config{
				keyPrefix:            cfgDefaultKeyPrefix,
				MaxConcurrent:        8,
				MaxRequestsPerWindow: 100,
				WindowSize:           time.Minute,
				PollInterval:         50 * time.Millisecond,
				WorkTimeout:          30 * time.Second,
				Algorithm:            ratelimit.AlgorithmLeakyBucket,
			},
		},
		{
			name:    "zero concurrency",
			cfgData: `{"executor":{"maxConcurrent":0}}`,
			wantErr: "executor.maxConcurrent: must be positive",
		},
		{
			name:    "negative requests per window",
			cfgData: `{"executor":{"maxRequestsPerWindow":-1}}`,
			wantErr: "executor.maxRequestsPerWindow: must be positive",
		},
		{
			name:    "invalid window",
			cfgData: `{"executor":{"windowSize":"five minutes"}}`,
			wantErr: "executor.windowSize",
		},
		{
			name:    "negative work timeout",
			cfgData: `{"executor":{"workTimeout":"-1s"}}`,
			wantErr: "executor.workTimeout: cannot be negative",
		},
		{
			name:    "unknown algorithm",
			cfgData: `{"executor":{"algorithm":"fixed_window"}}`,
			wantErr: "executor.algorithm",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, cfg)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantCfg, cfg)
		})
	}
}

func TestConfig_KeyPrefix(t *testing.T) {
	cfg := NewConfigWithKeyPrefix("upload.executor")
	err := config.NewDefaultLoader("").LoadFromReader(
		bytes.NewBufferString(`{"upload":{"executor":{"maxConcurrent":2}}}`), config.DataTypeYAML, cfg)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.MaxConcurrent)
	require.Equal(t, DefaultPollInterval, cfg.PollInterval)
}
