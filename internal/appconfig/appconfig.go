/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package appconfig assembles the configuration of phrase-migrate from its components.
package appconfig

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/acronis/phrase-migrate/config"
	"github.com/acronis/phrase-migrate/executor"
	"github.com/acronis/phrase-migrate/httpclient"
	"github.com/acronis/phrase-migrate/internal/metricsserver"
	"github.com/acronis/phrase-migrate/internal/phrase"
	"github.com/acronis/phrase-migrate/log"
)

// EnvVarsPrefix prefixes environment variables overriding configuration keys,
// e.g. PHRASE_MIGRATE_EXECUTOR_MAXCONCURRENT.
const EnvVarsPrefix = "phrase_migrate"

// DefaultEnvFile is the dotenv file loaded into the environment before configuration.
const DefaultEnvFile = ".env"

// Config is the whole configuration of the tool.
type Config struct {
	Source        *SourceConfig         `yaml:"source"`
	Phrase        *phrase.Config        `yaml:"phrase"`
	Executor      *executor.Config      `yaml:"executor"`
	HTTPClient    *httpclient.Config    `yaml:"httpClient"`
	Log           *log.Config           `yaml:"log"`
	MetricsServer *metricsserver.Config `yaml:"metricsServer"`
}

var _ config.Config = (*Config)(nil)

// New creates an empty Config ready for loading.
func New() *Config {
	return &Config{
		Source:        NewSourceConfig(),
		Phrase:        phrase.NewConfig(),
		Executor:      executor.NewConfig(),
		HTTPClient:    httpclient.NewConfig(),
		Log:           log.NewConfig(),
		MetricsServer: metricsserver.NewConfig(),
	}
}

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	return &Config{
		Source:        NewDefaultSourceConfig(),
		Phrase:        phrase.NewDefaultConfig(),
		Executor:      executor.NewDefaultConfig(),
		HTTPClient:    httpclient.NewDefaultConfig(),
		Log:           log.NewDefaultConfig(),
		MetricsServer: metricsserver.NewDefaultConfig(),
	}
}

// SetProviderDefaults sets default values of all components.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	config.CallSetProviderDefaultsForFields(c, dp)
}

// Set sets values of all components.
func (c *Config) Set(dp config.DataProvider) error {
	return config.CallSetForFields(c, dp)
}

// Load loads the configuration.
// Variables from envFile (if it exists) are exported into the process environment first,
// then defaults, the file at path (if it's not empty) and PHRASE_MIGRATE_* variables are applied.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := config.LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	}
	cfg := New()
	loader := config.NewDefaultLoader(EnvVarsPrefix)
	if path == "" {
		if err := loader.Load(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err := loader.LoadFromFile(path, config.DataTypeFromPath(path), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteDefaultYAML writes the default configuration to w.
func WriteDefaultYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDefault()); err != nil {
		return fmt.Errorf("encode default configuration: %w", err)
	}
	return enc.Close()
}
