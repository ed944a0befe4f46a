/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package appconfig

import (
	"fmt"

	"github.com/acronis/phrase-migrate/config"
)

const cfgSourceKeyPrefix = "source"

const (
	cfgKeySourceRepoPath         = "repoPath"
	cfgKeySourceBranch           = "branch"
	cfgKeySourceSync             = "sync"
	cfgKeySourceKeyFile          = "keyFile"
	cfgKeySourceExistingKeysFile = "existingKeysFile"
	cfgKeySourceOutputFile       = "outputFile"
)

// Source defaults.
const (
	DefaultRepoPath   = "./web-language"
	DefaultBranch     = "main"
	DefaultKeyFile    = "./key.txt"
	DefaultOutputFile = "./valuesByLocale.ts"
)

// SourceConfig describes where translations are collected from and where the result is written.
type SourceConfig struct {
	// RepoPath is a git working copy with <locale>.json files in its root.
	RepoPath string `mapstructure:"repoPath" yaml:"repoPath" json:"repoPath"`
	Branch   string `mapstructure:"branch" yaml:"branch" json:"branch"`

	// Sync updates the working copy (checkout and pull) before collecting.
	Sync bool `mapstructure:"sync" yaml:"sync" json:"sync"`

	// KeyFile lists keys to migrate, one per line.
	KeyFile string `mapstructure:"keyFile" yaml:"keyFile" json:"keyFile"`

	// ExistingKeysFile lists keys that are already in Phrase and must not be created. Optional.
	ExistingKeysFile string `mapstructure:"existingKeysFile" yaml:"existingKeysFile" json:"existingKeysFile"`

	// OutputFile receives collected translations, ".ts" files get the TypeScript export form.
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile" json:"outputFile"`

	keyPrefix string
}

var _ config.Config = (*SourceConfig)(nil)
var _ config.KeyPrefixProvider = (*SourceConfig)(nil)

// NewSourceConfig creates a new instance of the SourceConfig with the "source" key prefix.
func NewSourceConfig() *SourceConfig {
	return &SourceConfig{keyPrefix: cfgSourceKeyPrefix}
}

// NewDefaultSourceConfig creates a new instance of the SourceConfig with default values.
func NewDefaultSourceConfig() *SourceConfig {
	return &SourceConfig{
		keyPrefix:  cfgSourceKeyPrefix,
		RepoPath:   DefaultRepoPath,
		Branch:     DefaultBranch,
		Sync:       true,
		KeyFile:    DefaultKeyFile,
		OutputFile: DefaultOutputFile,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *SourceConfig) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgSourceKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the source in config.DataProvider.
func (c *SourceConfig) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeySourceRepoPath, DefaultRepoPath)
	dp.SetDefault(cfgKeySourceBranch, DefaultBranch)
	dp.SetDefault(cfgKeySourceSync, true)
	dp.SetDefault(cfgKeySourceKeyFile, DefaultKeyFile)
	dp.SetDefault(cfgKeySourceOutputFile, DefaultOutputFile)
}

// Set sets source configuration values from config.DataProvider.
func (c *SourceConfig) Set(dp config.DataProvider) error {
	var err error
	for _, s := range []struct {
		key      string
		dst      *string
		optional bool
	}{
		{cfgKeySourceRepoPath, &c.RepoPath, false},
		{cfgKeySourceBranch, &c.Branch, false},
		{cfgKeySourceKeyFile, &c.KeyFile, false},
		{cfgKeySourceExistingKeysFile, &c.ExistingKeysFile, true},
		{cfgKeySourceOutputFile, &c.OutputFile, false},
	} {
		if *s.dst, err = dp.GetString(s.key); err != nil {
			return err
		}
		if *s.dst == "" && !s.optional {
			return dp.WrapKeyErr(s.key, fmt.Errorf("cannot be empty"))
		}
	}
	if c.Sync, err = dp.GetBool(cfgKeySourceSync); err != nil {
		return err
	}
	return nil
}
