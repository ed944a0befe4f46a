/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/phrase-migrate/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfgData string
		check   func(t *testing.T, cfg *Config)
		wantErr string
	}{
		{
			name:    "defaults",
			cfgData: `{}`,
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, NewDefaultConfig(), cfg)
			},
		},
		{
			name: "custom values",
			cfgData: `
httpClient:
  timeout: 1m
  retries:
    maxAttempts: 5
    policy:
      strategy: constant
      constantBackoffInterval: 2s
  rateLimits:
    enabled: true
    limit: 3
    honorServerQuota: false
  logger:
    mode: all
  metrics:
    enabled: true
`,
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, time.Minute, cfg.Timeout)
				require.Equal(t, 5, cfg.Retries.MaxAttempts)
				require.Equal(t, RetryPolicyConstant, cfg.Retries.Policy.Strategy)
				require.Equal(t, 2*time.Second, cfg.Retries.GetPolicy().NewBackOff().NextBackOff())
				require.True(t, cfg.RateLimits.Enabled)
				require.Equal(t, 3, cfg.RateLimits.Limit)
				require.Empty(t, cfg.RateLimits.TransportOpts().Quota.RemainingHeader)
				require.Equal(t, LoggingModeAll, cfg.Logger.Mode)
				require.True(t, cfg.Metrics.Enabled)
			},
		},
		{
			name:    "unknown retry strategy",
			cfgData: `{"httpClient":{"retries":{"policy":{"strategy":"linear"}}}}`,
			wantErr: "httpClient.retries.policy.strategy",
		},
		{
			name:    "invalid multiplier",
			cfgData: `{"httpClient":{"retries":{"policy":{"exponentialBackoffMultiplier":1}}}}`,
			wantErr: "httpClient.retries.policy.exponentialBackoffMultiplier: must be greater than 1",
		},
		{
			name:    "zero rate limit",
			cfgData: `{"httpClient":{"rateLimits":{"limit":0}}}`,
			wantErr: "httpClient.rateLimits.limit: must be positive",
		},
		{
			name:    "unknown logger mode",
			cfgData: `{"httpClient":{"logger":{"mode":"verbose"}}}`,
			wantErr: "httpClient.logger.mode",
		},
		{
			name:    "negative timeout",
			cfgData: `{"httpClient":{"timeout":"-1s"}}`,
			wantErr: "httpClient.timeout: cannot be negative",
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
			tt.check(t, cfg)
		})
	}
}
