/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package translations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TypeScriptExport is the declaration that prefixes the set in .ts files.
const TypeScriptExport = "export const valuesByLocale = "

// WriteFile writes the set as a TypeScript module when path ends with ".ts", and as indented JSON otherwise.
func WriteFile(path string, set *Set) error {
	data, err := set.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal translations: %w", err)
	}
	var buf bytes.Buffer
	if isTypeScript(path) {
		buf.WriteString(TypeScriptExport)
	}
	if err = json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("indent translations: %w", err)
	}
	buf.WriteByte('\n')
	if err = os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write translations file: %w", err)
	}
	return nil
}

// ReadFile reads a set written by WriteFile.
func ReadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read translations file: %w", err)
	}
	if isTypeScript(path) {
		idx := bytes.IndexByte(data, '{')
		if idx < 0 {
			return nil, fmt.Errorf("translations file %s: no object found", path)
		}
		data = bytes.TrimRight(bytes.TrimSpace(data[idx:]), ";")
	}
	set := NewSet()
	if err = set.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("parse translations file %s: %w", path, err)
	}
	return set, nil
}

func isTypeScript(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".ts")
}
