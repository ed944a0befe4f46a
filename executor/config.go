/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package executor

import (
	"fmt"
	"time"

	"github.com/acronis/phrase-migrate/config"
	"github.com/acronis/phrase-migrate/internal/ratelimit"
)

const cfgDefaultKeyPrefix = "executor"

const (
	cfgKeyMaxConcurrent        = "maxConcurrent"
	cfgKeyMaxRequestsPerWindow = "maxRequestsPerWindow"
	cfgKeyWindowSize           = "windowSize"
	cfgKeyPollInterval         = "pollInterval"
	cfgKeyWorkTimeout          = "workTimeout"
	cfgKeyAlgorithm            = "algorithm"
)

// Default values.
const (
	DefaultMaxConcurrent        = 4
	DefaultMaxRequestsPerWindow = 1000
	DefaultWindowSize           = 5 * time.Minute
	DefaultPollInterval         = 200 * time.Millisecond
)

// Config represents a set of configuration parameters for the executor.
// It is immutable once the executor is constructed.
type Config struct {
	// MaxConcurrent is the maximum number of simultaneously running tasks.
	MaxConcurrent int `mapstructure:"maxConcurrent" yaml:"maxConcurrent" json:"maxConcurrent"`

	// MaxRequestsPerWindow is the maximum number of tasks started within any trailing WindowSize.
	MaxRequestsPerWindow int `mapstructure:"maxRequestsPerWindow" yaml:"maxRequestsPerWindow" json:"maxRequestsPerWindow"`

	WindowSize time.Duration `mapstructure:"windowSize" yaml:"windowSize" json:"windowSize"`

	// PollInterval is how often admission is re-checked while blocked.
	// A finished task wakes the admission earlier.
	PollInterval time.Duration `mapstructure:"pollInterval" yaml:"pollInterval" json:"pollInterval"`

	// WorkTimeout bounds the context passed to each task. Zero means no timeout.
	// A task that ignores its context keeps its concurrency slot until it returns.
	WorkTimeout time.Duration `mapstructure:"workTimeout" yaml:"workTimeout" json:"workTimeout"`

	// Algorithm selects the window limiter. Only the rolling log is exact,
	// the others may admit slightly more than MaxRequestsPerWindow in some windows.
	Algorithm ratelimit.Algorithm `mapstructure:"algorithm" yaml:"algorithm" json:"algorithm"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the "executor" key prefix.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewConfigWithKeyPrefix creates a new instance of the Config with the given key prefix.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix:            cfgDefaultKeyPrefix,
		MaxConcurrent:        DefaultMaxConcurrent,
		MaxRequestsPerWindow: DefaultMaxRequestsPerWindow,
		WindowSize:           DefaultWindowSize,
		PollInterval:         DefaultPollInterval,
		Algorithm:            ratelimit.AlgorithmRollingLog,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the executor in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyMaxConcurrent, DefaultMaxConcurrent)
	dp.SetDefault(cfgKeyMaxRequestsPerWindow, DefaultMaxRequestsPerWindow)
	dp.SetDefault(cfgKeyWindowSize, DefaultWindowSize.String())
	dp.SetDefault(cfgKeyPollInterval, DefaultPollInterval.String())
	dp.SetDefault(cfgKeyAlgorithm, string(ratelimit.AlgorithmRollingLog))
}

// Set sets executor configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.MaxConcurrent, err = dp.GetInt(cfgKeyMaxConcurrent); err != nil {
		return err
	}
	if c.MaxConcurrent <= 0 {
		return dp.WrapKeyErr(cfgKeyMaxConcurrent, fmt.Errorf("must be positive"))
	}

	if c.MaxRequestsPerWindow, err = dp.GetInt(cfgKeyMaxRequestsPerWindow); err != nil {
		return err
	}
	if c.MaxRequestsPerWindow <= 0 {
		return dp.WrapKeyErr(cfgKeyMaxRequestsPerWindow, fmt.Errorf("must be positive"))
	}

	if c.WindowSize, err = dp.GetDuration(cfgKeyWindowSize); err != nil {
		return err
	}
	if c.WindowSize <= 0 {
		return dp.WrapKeyErr(cfgKeyWindowSize, fmt.Errorf("must be positive"))
	}

	if c.PollInterval, err = dp.GetDuration(cfgKeyPollInterval); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return dp.WrapKeyErr(cfgKeyPollInterval, fmt.Errorf("must be positive"))
	}

	if c.WorkTimeout, err = dp.GetDuration(cfgKeyWorkTimeout); err != nil {
		return err
	}
	if c.WorkTimeout < 0 {
		return dp.WrapKeyErr(cfgKeyWorkTimeout, fmt.Errorf("cannot be negative"))
	}

	algorithms := make([]string, len(ratelimit.Algorithms))
	for i := range ratelimit.Algorithms {
		algorithms[i] = string(ratelimit.Algorithms[i])
	}
	alg, err := dp.GetStringFromSet(cfgKeyAlgorithm, algorithms, false)
	if err != nil {
		return err
	}
	c.Algorithm = ratelimit.Algorithm(alg)
	return nil
}

// Validate checks the values of a Config filled in code.
func (c *Config) Validate() error {
	switch {
	case c.MaxConcurrent <= 0:
		return fmt.Errorf("%s must be positive", cfgKeyMaxConcurrent)
	case c.MaxRequestsPerWindow <= 0:
		return fmt.Errorf("%s must be positive", cfgKeyMaxRequestsPerWindow)
	case c.WindowSize <= 0:
		return fmt.Errorf("%s must be positive", cfgKeyWindowSize)
	case c.PollInterval <= 0:
		return fmt.Errorf("%s must be positive", cfgKeyPollInterval)
	case c.WorkTimeout < 0:
		return fmt.Errorf("%s cannot be negative", cfgKeyWorkTimeout)
	}
	return nil
}
