/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/subosito/gotenv"
)

// Loader loads configuration values from data provider (with initializing default values before)
// and sets them in configuration objects.
type Loader struct {
	DataProvider DataProvider
}

// NewDefaultLoader creates a new configurations loader with an ability to read values from the environment variables.
func NewDefaultLoader(envVarsPrefix string) *Loader {
	va := NewViperAdapter()
	va.UseEnvVars(envVarsPrefix)
	return NewLoader(va)
}

// NewLoader creates a new configurations' loader.
func NewLoader(dp DataProvider) *Loader {
	return &Loader{dp}
}

// Load sets configuration values in configuration objects using only defaults and environment variables
// (if they are enabled for the data provider).
func (l *Loader) Load(cfg Config, cfgs ...Config) error {
	return l.load(append([]Config{cfg}, cfgs...))
}

// LoadFromFile loads configuration values from file and sets them in configuration objects.
func (l *Loader) LoadFromFile(path string, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.DataProvider.SetFromFile(path, dataType); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	return l.load(append([]Config{cfg}, cfgs...))
}

// LoadFromReader loads configuration values from reader and sets them in configuration objects.
func (l *Loader) LoadFromReader(reader io.Reader, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.DataProvider.SetFromReader(reader, dataType); err != nil {
		return err
	}
	return l.load(append([]Config{cfg}, cfgs...))
}

func (l *Loader) load(cfgs []Config) error {
	for _, cfg := range cfgs {
		cfg.SetProviderDefaults(dataProviderFor(cfg, l.DataProvider))
	}
	for _, cfg := range cfgs {
		if err := cfg.Set(dataProviderFor(cfg, l.DataProvider)); err != nil {
			return err
		}
	}
	return nil
}

// DataTypeFromPath detects configuration data format by the file extension.
// YAML is used for unknown extensions.
func DataTypeFromPath(path string) DataType {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return DataTypeJSON
	}
	return DataTypeYAML
}

// LoadEnvFile exports variables from the dotenv file into the process environment.
// Variables that are already present in the environment are not overridden.
// A missing file is not an error, loaded is false in this case.
func LoadEnvFile(path string) (loaded bool, err error) {
	if _, err = os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat env file %s: %w", path, err)
	}
	if err = gotenv.Load(path); err != nil {
		return false, fmt.Errorf("load env file %s: %w", path, err)
	}
	return true, nil
}
