/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package phrase

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/phrase-migrate/config"
)

func loadConfig(t *testing.T, data string) (*Config, error) {
	t.Helper()
	cfg := NewConfig()
	err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(data), config.DataTypeYAML, cfg)
	return cfg, err
}

func TestConfig_Defaults(t *testing.T) {
	t.Setenv(EnvToken, "")
	t.Setenv(EnvTradeProjectID, "")
	t.Setenv(EnvPagesProjectID, "")

	cfg, err := loadConfig(t, `{}`)
	require.NoError(t, err)
	require.Equal(t, NewDefaultConfig(), cfg)
}

func TestConfig_EnvFallbacks(t *testing.T) {
	t.Setenv(EnvToken, "env-token")
	t.Setenv(EnvTradeProjectID, "trade-id")
	t.Setenv(EnvPagesProjectID, "pages-id")

	cfg, err := loadConfig(t, `
phrase:
  baseURL: https://phrase.local/v2/
  projects:
    pages: cfg-pages-id
`)
	require.NoError(t, err)
	require.Equal(t, "https://phrase.local/v2", cfg.BaseURL)
	require.Equal(t, "env-token", cfg.Token)
	require.Equal(t, "trade-id", cfg.Projects.Trade)
	require.Equal(t, "cfg-pages-id", cfg.Projects.Pages)
}

func TestConfig_Invalid(t *testing.T) {
	_, err := loadConfig(t, `{"phrase":{"perPage":500}}`)
	require.ErrorContains(t, err, "phrase.perPage: must be in range [1..100]")

	_, err = loadConfig(t, `{"phrase":{"sourceLocale":""}}`)
	require.ErrorContains(t, err, "phrase.sourceLocale: cannot be empty")
}

func TestConfig_ResolveProject(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Projects = ProjectsConfig{Trade: "t-id"}

	id, err := cfg.ResolveProject("Trade")
	require.NoError(t, err)
	require.Equal(t, "t-id", id)

	_, err = cfg.ResolveProject(ProjectPages)
	require.ErrorContains(t, err, `project ID for "pages" is not configured`)

	id, err = cfg.ResolveProject("0123abcd")
	require.NoError(t, err)
	require.Equal(t, "0123abcd", id)
}
