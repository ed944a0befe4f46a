/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package translations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/phrase-migrate/log"
	"github.com/acronis/phrase-migrate/log/logtest"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadKeyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "key.txt", "  home.title \n\nhome.subtitle\r\nhome.title\n\t\n")

	keys, err := ReadKeyFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"home.title", "home.subtitle"}, keys)

	_, err = ReadKeyFile(filepath.Join(dir, "missing.txt"))
	require.ErrorIs(t, err, ErrKeyFileNotFound)
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "zh_cn.json", `{"b":"乙","a":"甲","c":"丙","skip":"x"}`)
	writeTestFile(t, dir, "EN.json", `{"a":"A","c":{"nested":"C"}}`)
	writeTestFile(t, dir, "fr.json", `{"skip":"x"}`)
	writeTestFile(t, dir, "klingon.json", `{"a":"Qapla'"}`)
	writeTestFile(t, dir, "ja.json", `{"a":`)
	writeTestFile(t, dir, "readme.md", `# not a translation`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o700))

	logger := logtest.NewRecorder()
	set, err := Collect(dir, []string{"a", "b", "c"}, logger)
	require.NoError(t, err)

	require.Equal(t, []string{"en-US", "zh-CN"}, set.Locales())
	require.Equal(t, []string{"a", "b", "c"}, set.Keys("zh-CN"))
	require.Equal(t, []string{"a"}, set.Keys("en-US"))

	_, found := logger.FindEntry("no locale found for file")
	require.True(t, found)
	_, found = logger.FindEntry("failed to process file")
	require.True(t, found)
	_, found = logger.FindEntry("value is not a string, skipped")
	require.True(t, found)
	require.Len(t, logger.FindAllEntriesByLevel(log.LevelError), 2)
}

func TestCollect_DuplicateLocale(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "zh.json", `{"a":"first"}`)
	writeTestFile(t, dir, "zh_cn.json", `{"a":"second"}`)

	set, err := Collect(dir, []string{"a"}, logtest.NewLogger())
	require.NoError(t, err)
	v, _ := set.Value("zh-CN", "a")
	require.Equal(t, "second", v)
}

func TestCollect_NoFiles(t *testing.T) {
	logger := logtest.NewRecorder()
	set, err := Collect(t.TempDir(), []string{"a"}, logger)
	require.NoError(t, err)
	require.Zero(t, set.Len())
	_, found := logger.FindEntry("no JSON files found")
	require.True(t, found)

	_, err = Collect(filepath.Join(t.TempDir(), "missing"), nil, logger)
	require.Error(t, err)
}

func TestWriteReadFile(t *testing.T) {
	set := NewSet()
	set.Add("zh-CN", "b", "乙")
	set.Add("zh-CN", "a", "甲")
	set.Add("en-US", "b", "B & <b>")

	for _, name := range []string{"valuesByLocale.ts", "values.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteFile(path, set))

			got, err := ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, set.Locales(), got.Locales())
			require.Equal(t, set.Keys("zh-CN"), got.Keys("zh-CN"))
			v, _ := got.Value("en-US", "b")
			require.Equal(t, "B & <b>", v)
		})
	}

	path := filepath.Join(t.TempDir(), "valuesByLocale.ts")
	require.NoError(t, WriteFile(path, set))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, TypeScriptExport+"{\n  \"zh-CN\": {\n    \"b\": \"乙\",\n    \"a\": \"甲\"\n  },\n"+
		"  \"en-US\": {\n    \"b\": \"B & <b>\"\n  }\n}\n", string(data))
}
