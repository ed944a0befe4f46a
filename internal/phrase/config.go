/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package phrase

import (
	"fmt"
	"os"
	"strings"

	"github.com/acronis/phrase-migrate/config"
)

const cfgDefaultKeyPrefix = "phrase"

const (
	cfgKeyBaseURL         = "baseURL"
	cfgKeyToken           = "token"
	cfgKeySourceLocale    = "sourceLocale"
	cfgKeyProjectsTrade   = "projects.trade"
	cfgKeyProjectsPages   = "projects.pages"
	cfgKeyPerPage         = "perPage"
	cfgKeyLocaleCacheSize = "localeCacheSize"
)

// Environment variables used when the corresponding configuration values are empty.
const (
	EnvToken          = "PHRASE_TOKEN"
	EnvTradeProjectID = "TRADE_PROJECT_ID"
	EnvPagesProjectID = "PAGES_PROJECT_ID"
)

// Project aliases.
const (
	ProjectTrade = "trade"
	ProjectPages = "pages"
)

// Default values.
const (
	DefaultBaseURL         = "https://api.phrase.com/v2"
	DefaultSourceLocale    = "zh-CN"
	DefaultPerPage         = 100
	DefaultLocaleCacheSize = 16
	MaxPerPage             = 100
)

// Config represents a set of configuration parameters for Phrase access.
type Config struct {
	BaseURL string `mapstructure:"baseURL" yaml:"baseURL" json:"baseURL"`

	// Token is the Phrase access token. PHRASE_TOKEN is used when empty.
	Token string `mapstructure:"token" yaml:"token" json:"token"`

	// SourceLocale is the locale whose keys define what is uploaded.
	SourceLocale string `mapstructure:"sourceLocale" yaml:"sourceLocale" json:"sourceLocale"`

	Projects ProjectsConfig `mapstructure:"projects" yaml:"projects" json:"projects"`

	// PerPage is the page size for list requests, Phrase allows at most 100.
	PerPage int `mapstructure:"perPage" yaml:"perPage" json:"perPage"`

	// LocaleCacheSize is how many projects' locale maps are kept in memory.
	LocaleCacheSize int `mapstructure:"localeCacheSize" yaml:"localeCacheSize" json:"localeCacheSize"`

	keyPrefix string
}

// ProjectsConfig holds IDs of the known Phrase projects.
type ProjectsConfig struct {
	Trade string `mapstructure:"trade" yaml:"trade" json:"trade"`
	Pages string `mapstructure:"pages" yaml:"pages" json:"pages"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the "phrase" key prefix.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
// Environment fallbacks are not applied.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix:       cfgDefaultKeyPrefix,
		BaseURL:         DefaultBaseURL,
		SourceLocale:    DefaultSourceLocale,
		PerPage:         DefaultPerPage,
		LocaleCacheSize: DefaultLocaleCacheSize,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for Phrase in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyBaseURL, DefaultBaseURL)
	dp.SetDefault(cfgKeySourceLocale, DefaultSourceLocale)
	dp.SetDefault(cfgKeyPerPage, DefaultPerPage)
	dp.SetDefault(cfgKeyLocaleCacheSize, DefaultLocaleCacheSize)
}

// Set sets Phrase configuration values from config.DataProvider.
// Empty token and project IDs fall back to PHRASE_TOKEN, TRADE_PROJECT_ID and PAGES_PROJECT_ID.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.BaseURL, err = dp.GetString(cfgKeyBaseURL); err != nil {
		return err
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.BaseURL == "" {
		return dp.WrapKeyErr(cfgKeyBaseURL, fmt.Errorf("cannot be empty"))
	}
	if c.Token, err = getStringWithEnvFallback(dp, cfgKeyToken, EnvToken); err != nil {
		return err
	}
	if c.SourceLocale, err = dp.GetString(cfgKeySourceLocale); err != nil {
		return err
	}
	if c.SourceLocale == "" {
		return dp.WrapKeyErr(cfgKeySourceLocale, fmt.Errorf("cannot be empty"))
	}
	if c.Projects.Trade, err = getStringWithEnvFallback(dp, cfgKeyProjectsTrade, EnvTradeProjectID); err != nil {
		return err
	}
	if c.Projects.Pages, err = getStringWithEnvFallback(dp, cfgKeyProjectsPages, EnvPagesProjectID); err != nil {
		return err
	}
	if c.PerPage, err = dp.GetInt(cfgKeyPerPage); err != nil {
		return err
	}
	if c.PerPage <= 0 || c.PerPage > MaxPerPage {
		return dp.WrapKeyErr(cfgKeyPerPage, fmt.Errorf("must be in range [1..%d]", MaxPerPage))
	}
	if c.LocaleCacheSize, err = dp.GetInt(cfgKeyLocaleCacheSize); err != nil {
		return err
	}
	if c.LocaleCacheSize <= 0 {
		return dp.WrapKeyErr(cfgKeyLocaleCacheSize, fmt.Errorf("must be positive"))
	}
	return nil
}

func getStringWithEnvFallback(dp config.DataProvider, key, envName string) (string, error) {
	val, err := dp.GetString(key)
	if err != nil {
		return "", err
	}
	if val == "" {
		val = os.Getenv(envName)
	}
	return val, nil
}

// ResolveProject maps "trade" and "pages" to the configured project IDs.
// Any other non-empty value is taken as a project ID.
func (c *Config) ResolveProject(nameOrID string) (string, error) {
	var id string
	switch strings.ToLower(nameOrID) {
	case ProjectTrade:
		id = c.Projects.Trade
	case ProjectPages:
		id = c.Projects.Pages
	default:
		id = nameOrID
	}
	if id == "" {
		return "", fmt.Errorf("project ID for %q is not configured", nameOrID)
	}
	return id, nil
}

// ClientConfig returns the part of the configuration needed by the API client.
func (c *Config) ClientConfig() ClientConfig {
	return ClientConfig{BaseURL: c.BaseURL, PerPage: c.PerPage, LocaleCacheSize: c.LocaleCacheSize}
}
