/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/acronis/phrase-migrate/config"
	"github.com/acronis/phrase-migrate/retry"
)

const cfgDefaultKeyPrefix = "httpClient"

// Retry policy strategies.
const (
	RetryPolicyExponential = "exponential"
	RetryPolicyConstant    = "constant"
)

const (
	cfgKeyTimeout                                 = "timeout"
	cfgKeyRetriesEnabled                          = "retries.enabled"
	cfgKeyRetriesMax                              = "retries.maxAttempts"
	cfgKeyRetriesIgnoreRetryAfter                 = "retries.ignoreRetryAfter"
	cfgKeyRetriesPolicyStrategy                   = "retries.policy.strategy"
	cfgKeyRetriesPolicyExponentialInitialInterval = "retries.policy.exponentialBackoffInitialInterval"
	cfgKeyRetriesPolicyExponentialMultiplier      = "retries.policy.exponentialBackoffMultiplier"
	cfgKeyRetriesPolicyConstantInterval           = "retries.policy.constantBackoffInterval"
	cfgKeyRateLimitsEnabled                       = "rateLimits.enabled"
	cfgKeyRateLimitsLimit                         = "rateLimits.limit"
	cfgKeyRateLimitsBurst                         = "rateLimits.burst"
	cfgKeyRateLimitsWaitTimeout                   = "rateLimits.waitTimeout"
	cfgKeyRateLimitsHonorQuota                    = "rateLimits.honorServerQuota"
	cfgKeyLoggerEnabled                           = "logger.enabled"
	cfgKeyLoggerMode                              = "logger.mode"
	cfgKeyLoggerSlowRequestThreshold              = "logger.slowRequestThreshold"
	cfgKeyMetricsEnabled                          = "metrics.enabled"
)

// Default values.
const (
	DefaultTimeout                     = 30 * time.Second
	DefaultRateLimit                   = 10
	DefaultLoggerSlowRequestThreshold  = 5 * time.Second
	DefaultConstantBackoffInterval     = time.Second
	defaultExponentialBackoffMultiplier = float64(DefaultExponentialBackoffMultiplier)
)

// Config represents options for HTTP client configuration.
type Config struct {
	// Timeout limits the whole request including retries and reading the response body. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`

	Retries    RetriesConfig   `mapstructure:"retries" yaml:"retries" json:"retries"`
	RateLimits RateLimitConfig `mapstructure:"rateLimits" yaml:"rateLimits" json:"rateLimits"`
	Logger     LoggerConfig    `mapstructure:"logger" yaml:"logger" json:"logger"`
	Metrics    MetricsConfig   `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	keyPrefix string
}

// RetriesConfig represents configuration options for HTTP client retries policy.
type RetriesConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// MaxAttempts is the maximum number of retries, so up to MaxAttempts + 1 requests are sent.
	MaxAttempts int `mapstructure:"maxAttempts" yaml:"maxAttempts" json:"maxAttempts"`

	IgnoreRetryAfter bool `mapstructure:"ignoreRetryAfter" yaml:"ignoreRetryAfter" json:"ignoreRetryAfter"`

	Policy PolicyConfig `mapstructure:"policy" yaml:"policy" json:"policy"`
}

// PolicyConfig represents configuration options for policy retry.
type PolicyConfig struct {
	// Strategy is one of [exponential, constant].
	Strategy string `mapstructure:"strategy" yaml:"strategy" json:"strategy"`

	ExponentialBackoffInitialInterval time.Duration `mapstructure:"exponentialBackoffInitialInterval" yaml:"exponentialBackoffInitialInterval" json:"exponentialBackoffInitialInterval"`
	ExponentialBackoffMultiplier      float64       `mapstructure:"exponentialBackoffMultiplier" yaml:"exponentialBackoffMultiplier" json:"exponentialBackoffMultiplier"`
	ConstantBackoffInterval           time.Duration `mapstructure:"constantBackoffInterval" yaml:"constantBackoffInterval" json:"constantBackoffInterval"`
}

// RateLimitConfig represents configuration options for HTTP client rate limits.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Limit is the maximum number of requests per second.
	Limit int `mapstructure:"limit" yaml:"limit" json:"limit"`

	Burst       int           `mapstructure:"burst" yaml:"burst" json:"burst"`
	WaitTimeout time.Duration `mapstructure:"waitTimeout" yaml:"waitTimeout" json:"waitTimeout"`

	// HonorServerQuota holds requests while the X-Rate-Limit-Remaining response header is zero.
	HonorServerQuota bool `mapstructure:"honorServerQuota" yaml:"honorServerQuota" json:"honorServerQuota"`
}

// LoggerConfig represents configuration options for HTTP client logs.
type LoggerConfig struct {
	Enabled              bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Mode                 LoggingMode   `mapstructure:"mode" yaml:"mode" json:"mode"`
	SlowRequestThreshold time.Duration `mapstructure:"slowRequestThreshold" yaml:"slowRequestThreshold" json:"slowRequestThreshold"`
}

// MetricsConfig represents configuration options for HTTP client metrics.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the "httpClient" key prefix.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewConfigWithKeyPrefix creates a new instance of the Config.
// Allows specifying key prefix which will be used for parsing configuration parameters.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix: cfgDefaultKeyPrefix,
		Timeout:   DefaultTimeout,
		Retries: RetriesConfig{
			Enabled:     true,
			MaxAttempts: DefaultMaxRetryAttempts,
			Policy: PolicyConfig{
				Strategy:                          RetryPolicyExponential,
				ExponentialBackoffInitialInterval: DefaultExponentialBackoffInitialInterval,
				ExponentialBackoffMultiplier:      defaultExponentialBackoffMultiplier,
				ConstantBackoffInterval:           DefaultConstantBackoffInterval,
			},
		},
		RateLimits: RateLimitConfig{
			Limit:            DefaultRateLimit,
			Burst:            DefaultRateLimitingBurst,
			WaitTimeout:      DefaultRateLimitingWaitTimeout,
			HonorServerQuota: true,
		},
		Logger: LoggerConfig{
			Enabled:              true,
			Mode:                 LoggingModeFailed,
			SlowRequestThreshold: DefaultLoggerSlowRequestThreshold,
		},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for HTTP client in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyTimeout, DefaultTimeout.String())
	dp.SetDefault(cfgKeyRetriesEnabled, true)
	dp.SetDefault(cfgKeyRetriesMax, DefaultMaxRetryAttempts)
	dp.SetDefault(cfgKeyRetriesPolicyStrategy, RetryPolicyExponential)
	dp.SetDefault(cfgKeyRetriesPolicyExponentialInitialInterval, DefaultExponentialBackoffInitialInterval.String())
	dp.SetDefault(cfgKeyRetriesPolicyExponentialMultiplier, defaultExponentialBackoffMultiplier)
	dp.SetDefault(cfgKeyRetriesPolicyConstantInterval, DefaultConstantBackoffInterval.String())
	dp.SetDefault(cfgKeyRateLimitsLimit, DefaultRateLimit)
	dp.SetDefault(cfgKeyRateLimitsBurst, DefaultRateLimitingBurst)
	dp.SetDefault(cfgKeyRateLimitsWaitTimeout, DefaultRateLimitingWaitTimeout.String())
	dp.SetDefault(cfgKeyRateLimitsHonorQuota, true)
	dp.SetDefault(cfgKeyLoggerEnabled, true)
	dp.SetDefault(cfgKeyLoggerMode, string(LoggingModeFailed))
	dp.SetDefault(cfgKeyLoggerSlowRequestThreshold, DefaultLoggerSlowRequestThreshold.String())
}

// Set sets HTTP client configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Timeout, err = dp.GetDuration(cfgKeyTimeout); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return dp.WrapKeyErr(cfgKeyTimeout, fmt.Errorf("cannot be negative"))
	}
	if err = c.setRetries(dp); err != nil {
		return err
	}
	if err = c.setRateLimits(dp); err != nil {
		return err
	}
	if err = c.setLogger(dp); err != nil {
		return err
	}
	c.Metrics.Enabled, err = dp.GetBool(cfgKeyMetricsEnabled)
	return err
}

func (c *Config) setRetries(dp config.DataProvider) error {
	var err error
	if c.Retries.Enabled, err = dp.GetBool(cfgKeyRetriesEnabled); err != nil {
		return err
	}
	if c.Retries.MaxAttempts, err = dp.GetInt(cfgKeyRetriesMax); err != nil {
		return err
	}
	if c.Retries.MaxAttempts < 0 {
		return dp.WrapKeyErr(cfgKeyRetriesMax, fmt.Errorf("cannot be negative"))
	}
	if c.Retries.IgnoreRetryAfter, err = dp.GetBool(cfgKeyRetriesIgnoreRetryAfter); err != nil {
		return err
	}

	p := &c.Retries.Policy
	if p.Strategy, err = dp.GetStringFromSet(cfgKeyRetriesPolicyStrategy,
		[]string{RetryPolicyExponential, RetryPolicyConstant}, false); err != nil {
		return err
	}
	if p.ExponentialBackoffInitialInterval, err = dp.GetDuration(cfgKeyRetriesPolicyExponentialInitialInterval); err != nil {
		return err
	}
	if p.ExponentialBackoffInitialInterval <= 0 {
		return dp.WrapKeyErr(cfgKeyRetriesPolicyExponentialInitialInterval, fmt.Errorf("must be positive"))
	}
	if p.ExponentialBackoffMultiplier, err = dp.GetFloat64(cfgKeyRetriesPolicyExponentialMultiplier); err != nil {
		return err
	}
	if p.ExponentialBackoffMultiplier <= 1 {
		return dp.WrapKeyErr(cfgKeyRetriesPolicyExponentialMultiplier, fmt.Errorf("must be greater than 1"))
	}
	if p.ConstantBackoffInterval, err = dp.GetDuration(cfgKeyRetriesPolicyConstantInterval); err != nil {
		return err
	}
	if p.ConstantBackoffInterval <= 0 {
		return dp.WrapKeyErr(cfgKeyRetriesPolicyConstantInterval, fmt.Errorf("must be positive"))
	}
	return nil
}

func (c *Config) setRateLimits(dp config.DataProvider) error {
	var err error
	if c.RateLimits.Enabled, err = dp.GetBool(cfgKeyRateLimitsEnabled); err != nil {
		return err
	}
	if c.RateLimits.Limit, err = dp.GetInt(cfgKeyRateLimitsLimit); err != nil {
		return err
	}
	if c.RateLimits.Limit <= 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitsLimit, fmt.Errorf("must be positive"))
	}
	if c.RateLimits.Burst, err = dp.GetInt(cfgKeyRateLimitsBurst); err != nil {
		return err
	}
	if c.RateLimits.Burst < 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitsBurst, fmt.Errorf("cannot be negative"))
	}
	if c.RateLimits.WaitTimeout, err = dp.GetDuration(cfgKeyRateLimitsWaitTimeout); err != nil {
		return err
	}
	if c.RateLimits.WaitTimeout < 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitsWaitTimeout, fmt.Errorf("cannot be negative"))
	}
	c.RateLimits.HonorServerQuota, err = dp.GetBool(cfgKeyRateLimitsHonorQuota)
	return err
}

func (c *Config) setLogger(dp config.DataProvider) error {
	var err error
	if c.Logger.Enabled, err = dp.GetBool(cfgKeyLoggerEnabled); err != nil {
		return err
	}
	mode, err := dp.GetStringFromSet(cfgKeyLoggerMode,
		[]string{string(LoggingModeNone), string(LoggingModeAll), string(LoggingModeFailed)}, true)
	if err != nil {
		return err
	}
	c.Logger.Mode = LoggingMode(mode)
	if c.Logger.SlowRequestThreshold, err = dp.GetDuration(cfgKeyLoggerSlowRequestThreshold); err != nil {
		return err
	}
	if c.Logger.SlowRequestThreshold < 0 {
		return dp.WrapKeyErr(cfgKeyLoggerSlowRequestThreshold, fmt.Errorf("cannot be negative"))
	}
	return nil
}

// GetPolicy returns a retry policy based on the configured strategy.
func (c *RetriesConfig) GetPolicy() retry.Policy {
	switch c.Policy.Strategy {
	case RetryPolicyConstant:
		return retry.NewConstantBackoffPolicy(c.Policy.ConstantBackoffInterval, 0)
	case RetryPolicyExponential:
		initial, multiplier := c.Policy.ExponentialBackoffInitialInterval, c.Policy.ExponentialBackoffMultiplier
		return retry.PolicyFunc(func() backoff.BackOff {
			bf := backoff.NewExponentialBackOff()
			bf.InitialInterval = initial
			bf.Multiplier = multiplier
			bf.MaxElapsedTime = 0
			bf.Reset()
			return bf
		})
	}
	return nil
}

// TransportOpts returns options for RetryableRoundTripper.
func (c *RetriesConfig) TransportOpts() RetryableRoundTripperOpts {
	return RetryableRoundTripperOpts{
		MaxRetryAttempts: c.MaxAttempts,
		IgnoreRetryAfter: c.IgnoreRetryAfter,
		BackoffPolicy:    c.GetPolicy(),
	}
}

// TransportOpts returns options for RateLimitingRoundTripper.
func (c *RateLimitConfig) TransportOpts() RateLimitingRoundTripperOpts {
	opts := RateLimitingRoundTripperOpts{Burst: c.Burst, WaitTimeout: c.WaitTimeout}
	if c.HonorServerQuota {
		opts.Quota = RateLimitingQuota{RemainingHeader: DefaultQuotaRemainingHeader, ResetHeader: DefaultQuotaResetHeader}
	}
	return opts
}

// TransportOpts returns options for LoggingRoundTripper.
func (c *LoggerConfig) TransportOpts() LoggingRoundTripperOpts {
	return LoggingRoundTripperOpts{Mode: c.Mode, SlowRequestThreshold: c.SlowRequestThreshold}
}
