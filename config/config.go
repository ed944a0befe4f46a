/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package config loads configuration of the tool's components from YAML/JSON files,
// environment variables and dotenv files.
//
// Every configurable component exposes a structure that implements Config.
// Loader calls SetProviderDefaults for all of them first and then Set,
// so a component may rely on defaults of its own keys while reading them.
package config

import "reflect"

// Config is a common interface for configuration objects that may be used by Loader.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is an interface for providing key prefix that will be used for configuration parameters.
type KeyPrefixProvider interface {
	KeyPrefix() string
}

// CallSetProviderDefaultsForFields finds all initialized (non-nil) fields of the passed object
// that implement Config interface and calls SetProviderDefaults() method for each of them.
func CallSetProviderDefaultsForFields(obj interface{}, dp DataProvider) {
	_ = visitConfigFields(obj, dp, func(c Config, cDp DataProvider) error {
		c.SetProviderDefaults(cDp)
		return nil
	})
}

// CallSetForFields finds all initialized (non-nil) fields of the passed object
// that implement Config interface and calls Set() method for each of them.
func CallSetForFields(obj interface{}, dp DataProvider) error {
	return visitConfigFields(obj, dp, func(c Config, cDp DataProvider) error {
		return c.Set(cDp)
	})
}

func visitConfigFields(obj interface{}, dp DataProvider, fn func(c Config, cDp DataProvider) error) error {
	el := reflect.ValueOf(obj).Elem()
	for i := 0; i < el.NumField(); i++ {
		if !el.Type().Field(i).IsExported() {
			continue
		}
		field := el.Field(i)
		if (field.Kind() == reflect.Ptr || field.Kind() == reflect.Interface) && field.IsNil() {
			continue
		}
		c, ok := field.Interface().(Config)
		if !ok {
			continue
		}
		if err := fn(c, dataProviderFor(c, dp)); err != nil {
			return err
		}
	}
	return nil
}

// dataProviderFor returns a data provider that is scoped with the key prefix of the config (if any).
func dataProviderFor(c Config, dp DataProvider) DataProvider {
	if kp, ok := c.(KeyPrefixProvider); ok && kp.KeyPrefix() != "" {
		return NewKeyPrefixedDataProvider(dp, kp.KeyPrefix())
	}
	return dp
}
