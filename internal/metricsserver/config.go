/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package metricsserver

import (
	"fmt"

	"github.com/acronis/phrase-migrate/config"
)

const cfgDefaultKeyPrefix = "metricsServer"

const (
	cfgKeyEnabled   = "enabled"
	cfgKeyAddress   = "address"
	cfgKeyProfiling = "profiling"
)

// DefaultAddress is the listen address used when none is configured.
const DefaultAddress = "127.0.0.1:9464"

// Config represents a set of configuration parameters for the metrics server.
type Config struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Address string `mapstructure:"address" yaml:"address" json:"address"`

	// Profiling mounts pprof handlers under /debug.
	Profiling bool `mapstructure:"profiling" yaml:"profiling" json:"profiling"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the "metricsServer" key prefix.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix, Address: DefaultAddress}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the metrics server in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyEnabled, false)
	dp.SetDefault(cfgKeyAddress, DefaultAddress)
	dp.SetDefault(cfgKeyProfiling, false)
}

// Set sets metrics server configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Enabled, err = dp.GetBool(cfgKeyEnabled); err != nil {
		return err
	}
	if c.Address, err = dp.GetString(cfgKeyAddress); err != nil {
		return err
	}
	if c.Enabled && c.Address == "" {
		return dp.WrapKeyErr(cfgKeyAddress, fmt.Errorf("cannot be empty when the server is enabled"))
	}
	if c.Profiling, err = dp.GetBool(cfgKeyProfiling); err != nil {
		return err
	}
	return nil
}
