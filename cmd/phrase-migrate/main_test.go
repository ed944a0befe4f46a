/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/acronis/phrase-migrate/internal/phrase/phrasetest"
	"github.com/acronis/phrase-migrate/internal/translations"
)

const (
	testToken   = "test-token"
	testProject = "pages-id"
)

type CLITestSuite struct {
	suite.Suite
	dir    string
	srv    *phrasetest.Server
	config string
	out    *bytes.Buffer
}

func TestCLI(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (s *CLITestSuite) SetupTest() {
	s.T().Setenv("PHRASE_TOKEN", "")
	s.T().Setenv("TRADE_PROJECT_ID", "")
	s.T().Setenv("PAGES_PROJECT_ID", "")

	s.dir = s.T().TempDir()
	s.srv = phrasetest.NewServer()
	s.srv.Token = testToken
	s.srv.AddProject(testProject, "zh-CN", "en-US")
	s.out = &bytes.Buffer{}

	repo := filepath.Join(s.dir, "web-language")
	s.Require().NoError(os.Mkdir(repo, 0o755))
	s.writeFile("web-language/zh.json", `{"hello": "你好", "bye": "再见", "other": "其他"}`)
	s.writeFile("web-language/en.json", `{"bye": "Bye", "hello": "Hello"}`)
	s.writeFile("web-language/xx.json", `{"hello": "?"}`)
	s.writeFile("key.txt", "hello\nbye\n")
	s.config = s.writeConfig(testToken)
}

func (s *CLITestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *CLITestSuite) writeFile(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *CLITestSuite) writeConfig(token string) string {
	return s.writeFile("config.yml", fmt.Sprintf(`
source:
  repoPath: %[1]s/web-language
  sync: false
  keyFile: %[1]s/key.txt
  outputFile: %[1]s/valuesByLocale.ts
phrase:
  baseURL: %[2]s
  token: %[3]q
  projects:
    pages: %[4]s
executor:
  pollInterval: 10ms
httpClient:
  retries:
    enabled: false
log:
  level: error
`, s.dir, s.srv.URL, token, testProject))
}

func (s *CLITestSuite) run(args ...string) error {
	app := newApp()
	app.Writer = s.out
	app.ErrWriter = s.out
	return app.RunContext(context.Background(),
		append([]string{"phrase-migrate", "--config", s.config, "--env-file=", "--no-color"}, args...))
}

func (s *CLITestSuite) TestCollect() {
	s.Require().NoError(s.run("collect"))

	set, err := translations.ReadFile(filepath.Join(s.dir, "valuesByLocale.ts"))
	s.Require().NoError(err)
	s.Require().Equal([]string{"en-US", "zh-CN"}, set.Locales())
	s.Require().Equal([]string{"hello", "bye"}, set.Keys("en-US"))
	s.Require().Equal([]string{"hello", "bye"}, set.Keys("zh-CN"))
	s.Require().Contains(s.out.String(), "✓ zh-CN: 2 keys")
}

func (s *CLITestSuite) TestCollect_MissingKeyFile() {
	s.Require().NoError(os.Remove(filepath.Join(s.dir, "key.txt")))
	err := s.run("collect")
	s.Require().ErrorIs(err, translations.ErrKeyFileNotFound)
}

func (s *CLITestSuite) TestUpload() {
	s.Require().NoError(s.run("collect", "--output", filepath.Join(s.dir, "out.json")))
	s.out.Reset()

	s.Require().NoError(s.run("upload", "--project", "pages", "--input", filepath.Join(s.dir, "out.json")))

	s.Require().Equal([]string{"hello", "bye"}, s.srv.Keys(testProject))
	s.Require().Equal(map[string]map[string]string{
		"hello": {"zh-CN": "你好", "en-US": "Hello"},
		"bye":   {"zh-CN": "再见", "en-US": "Bye"},
	}, s.srv.Translations(testProject))
	s.Require().Contains(s.out.String(), "✓ (1/2) hello: en-US, zh-CN")
	s.Require().Contains(s.out.String(), "4 translations uploaded")
}

func (s *CLITestSuite) TestUpload_ExistingKeys() {
	s.Require().NoError(s.run("collect"))
	existing := s.writeFile("existing.txt", "bye\n")

	s.Require().NoError(s.run("upload", "--project", testProject, "--existing-keys", existing))
	s.Require().Equal([]string{"hello"}, s.srv.Keys(testProject))
	s.Require().Contains(s.out.String(), "bye already exists in the existing keys list, skipped")
}

func (s *CLITestSuite) TestUpload_DryRun() {
	s.config = s.writeConfig("")
	s.Require().NoError(s.run("collect"))

	s.Require().NoError(s.run("upload", "--project", "pages", "--dry-run"))
	s.Require().Empty(s.srv.Keys(testProject))
	s.Require().Contains(s.out.String(), "2 keys would be created")
}

func (s *CLITestSuite) TestUpload_Errors() {
	s.Require().NoError(s.run("collect"))

	s.Require().EqualError(s.run("upload", "--project", "trade"), `project ID for "trade" is not configured`)

	s.config = s.writeConfig("")
	s.Require().ErrorContains(s.run("upload", "--project", "pages"), "phrase token is not configured")

	s.config = s.writeConfig(testToken)
	s.srv.FailureHook = func(route string, _ *http.Request) int {
		if route == phrasetest.RouteSetTranslation {
			return http.StatusInternalServerError
		}
		return 0
	}
	err := s.run("upload", "--project", "pages")
	s.Require().ErrorIs(err, errUploadFailed)
	s.Require().Contains(s.out.String(), "0 translations uploaded, 4 failed")
}

func (s *CLITestSuite) TestMigrate_PromptsForProject() {
	prompted := false
	origSelect := selectProject
	selectProject = func() (string, error) {
		prompted = true
		return "pages", nil
	}
	defer func() { selectProject = origSelect }()

	s.Require().NoError(s.run("migrate", "--no-sync"))
	s.Require().True(prompted)
	s.Require().Equal([]string{"hello", "bye"}, s.srv.Keys(testProject))
	s.Require().FileExists(filepath.Join(s.dir, "valuesByLocale.ts"))
	s.Require().Contains(s.out.String(), "All steps completed")
}

func (s *CLITestSuite) TestMigrate_ProjectFlag() {
	origSelect := selectProject
	selectProject = func() (string, error) {
		return "", fmt.Errorf("unexpected prompt")
	}
	defer func() { selectProject = origSelect }()

	s.Require().NoError(s.run("migrate", "--project", testProject, "--dry-run"))
	s.Require().Empty(s.srv.Keys(testProject))
	s.Require().Contains(s.out.String(), "2 keys would be created")
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "phrase-migrate.yml")
	var out bytes.Buffer
	run := func(args ...string) error {
		app := newApp()
		app.Writer = &out
		return app.RunContext(context.Background(), append([]string{"phrase-migrate", "config", "init"}, args...))
	}

	require.NoError(t, run("--output", path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "maxRequestsPerWindow: 1000")

	require.Error(t, run("--output", path))
	require.NoError(t, run("--output", path, "--force"))

	out.Reset()
	require.NoError(t, run("--output", "-"))
	require.Contains(t, out.String(), "sourceLocale: zh-CN")
}
