/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger_FileOutput(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = FormatJSON
	cfg.Output = OutputFile
	cfg.Level = LevelInfo
	cfg.File.Path = filepath.Join(t.TempDir(), "migrate-{{pid}}.log")

	logger, closeFn := NewLogger(cfg)
	logger.Debug("debug is disabled")
	logger.Info("key uploaded", String("key", "app.title"), Int("locales", 3))
	logger.Error("request failed", String("header", "Authorization: token 0123abcdef"))
	closeFn()

	data, err := os.ReadFile(resolvePlaceholders(cfg.File.Path))
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "key uploaded")
	require.Contains(t, content, `"key":"app.title"`)
	require.Contains(t, content, `"pid":`+strconv.Itoa(os.Getpid()))
	require.NotContains(t, content, "debug is disabled")
	require.NotContains(t, content, "0123abcdef")
}

func TestResolvePlaceholders(t *testing.T) {
	got := resolvePlaceholders("/tmp/{{pid}}/app.log")
	require.Equal(t, "/tmp/"+strconv.Itoa(os.Getpid())+"/app.log", got)
	require.Equal(t, "/tmp/app.log", resolvePlaceholders("/tmp/app.log"))
}

func TestPrefixedLogger(t *testing.T) {
	rec := &recordingLogger{}
	logger := NewPrefixedLogger(rec, "git: ")
	logger.Info("Already up to date.")
	logger.Warnf("exit code %d", 1)
	require.Equal(t, []string{"git: Already up to date.", "git: exit code 1"}, rec.messages)
}

// recordingLogger is a minimal FieldLogger, logtest cannot be imported from here.
type recordingLogger struct {
	messages []string
}

func (r *recordingLogger) With(...Field) FieldLogger         { return r }
func (r *recordingLogger) Debug(s string, _ ...Field)        { r.messages = append(r.messages, s) }
func (r *recordingLogger) Info(s string, _ ...Field)         { r.messages = append(r.messages, s) }
func (r *recordingLogger) Warn(s string, _ ...Field)         { r.messages = append(r.messages, s) }
func (r *recordingLogger) Error(s string, _ ...Field)        { r.messages = append(r.messages, s) }
func (r *recordingLogger) Debugf(f string, a ...interface{}) { r.Debug(fmt.Sprintf(f, a...)) }
func (r *recordingLogger) Infof(f string, a ...interface{})  { r.Info(fmt.Sprintf(f, a...)) }
func (r *recordingLogger) Warnf(f string, a ...interface{})  { r.Warn(fmt.Sprintf(f, a...)) }
func (r *recordingLogger) Errorf(f string, a ...interface{}) { r.Error(fmt.Sprintf(f, a...)) }
func (r *recordingLogger) AtLevel(_ Level, fn func(LogFunc)) { fn(r.Info) }
func (r *recordingLogger) WithLevel(Level) FieldLogger       { return r }
