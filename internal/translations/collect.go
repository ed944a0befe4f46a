/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package translations

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/acronis/phrase-migrate/internal/locale"
	"github.com/acronis/phrase-migrate/log"
)

// ErrKeyFileNotFound is returned by ReadKeyFile when the file does not exist.
var ErrKeyFileNotFound = errors.New("key file not found")

// ReadKeyFile reads one key per line. Lines are trimmed, empty lines and repeated keys are dropped.
func ReadKeyFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeyFileNotFound, path)
		}
		return nil, fmt.Errorf("open key file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var keys []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key := strings.TrimSpace(scanner.Text())
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}
	return keys, nil
}

// Collect reads every *.json file directly in dir and keeps allow-listed keys with string values,
// ordered as in allowedKeys. A file is named after its locale (e.g. "zh_cn.json").
// Files with unknown locales or invalid content are logged and skipped.
// Locales without any allowed key are omitted.
func Collect(dir string, allowedKeys []string, logger log.FieldLogger) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read translations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	set := NewSet()
	if len(files) == 0 {
		logger.Warn("no JSON files found", log.String("dir", dir))
		return set, nil
	}
	logger.Info(fmt.Sprintf("found %d JSON files", len(files)), log.String("dir", dir))

	for _, file := range files {
		fileLogger := logger.With(log.String("file", file))
		code, ok := locale.Normalize(strings.TrimSuffix(file, filepath.Ext(file)))
		if !ok {
			fileLogger.Error("no locale found for file")
			continue
		}
		values, readErr := readJSONFile(filepath.Join(dir, file))
		if readErr != nil {
			fileLogger.Error("failed to process file", log.Error(readErr))
			continue
		}
		if set.HasLocale(code) {
			fileLogger.Warn("locale is collected from several files, the last one wins", log.String("locale", code))
			set.RemoveLocale(code)
		}
		kept := 0
		for _, key := range allowedKeys {
			raw, found := values[key]
			if !found {
				continue
			}
			var str string
			if unmarshalErr := json.Unmarshal(raw, &str); unmarshalErr != nil {
				fileLogger.Warn("value is not a string, skipped", log.String("key", key))
				continue
			}
			set.Add(code, key, str)
			kept++
		}
		fileLogger.Info("file processed", log.String("locale", code), log.Int("keys", kept))
	}
	return set, nil
}

func readJSONFile(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values map[string]json.RawMessage
	if err = json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return values, nil
}
