/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package gitsync

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/phrase-migrate/log/logtest"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	args = append([]string{"-c", "user.name=test", "-c", "user.email=test@example.com", "-c", "commit.gpgsign=false"}, args...)
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func commitFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	gitCmd(t, dir, "add", name)
	gitCmd(t, dir, "commit", "-m", "add "+name)
}

// newRepos creates an origin repository with the "main" branch and its clone.
func newRepos(t *testing.T) (origin, clone string) {
	t.Helper()
	origin = t.TempDir()
	gitCmd(t, origin, "init")
	gitCmd(t, origin, "checkout", "-b", "main")
	commitFile(t, origin, "en.json", `{"a":"A"}`)

	clone = filepath.Join(t.TempDir(), "clone")
	gitCmd(t, filepath.Dir(clone), "clone", origin, clone)
	gitCmd(t, clone, "checkout", "-b", "feature")
	return origin, clone
}

func TestUpdate(t *testing.T) {
	requireGit(t)
	origin, clone := newRepos(t)
	commitFile(t, origin, "de.json", `{"a":"A-de"}`)

	logger := logtest.NewRecorder()
	require.NoError(t, Update(context.Background(), clone, "main", logger))

	data, err := os.ReadFile(filepath.Join(clone, "de.json"))
	require.NoError(t, err)
	require.Equal(t, `{"a":"A-de"}`, string(data))
	require.NotEmpty(t, logger.FindAllEntriesByFilter(func(e logtest.RecordedEntry) bool {
		return len(e.Text) > 5 && e.Text[:5] == "git: "
	}))
}

func TestUpdate_UnknownBranch(t *testing.T) {
	requireGit(t)
	_, clone := newRepos(t)

	err := Update(context.Background(), clone, "no-such-branch", logtest.NewLogger())
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, []string{"checkout", "no-such-branch"}, cmdErr.Args)
}

func TestUpdate_PullRetries(t *testing.T) {
	requireGit(t)
	origin, clone := newRepos(t)
	require.NoError(t, os.RemoveAll(origin))

	logger := logtest.NewRecorder()
	err := UpdateWithOpts(context.Background(), clone, "main", logger, Opts{PullRetries: 2, PullRetryBackoff: time.Millisecond})
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, []string{"pull"}, cmdErr.Args)
	require.Len(t, logger.FindAllEntriesByFilter(func(e logtest.RecordedEntry) bool {
		return e.Text == "git pull failed, retrying"
	}), 2)

	logger.Reset()
	err = UpdateWithOpts(context.Background(), clone, "main", logger, Opts{PullRetries: -1})
	require.Error(t, err)
	_, found := logger.FindEntry("git pull failed, retrying")
	require.False(t, found)
}

func TestUpdate_InvalidPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	err := Update(context.Background(), file, "main", logtest.NewLogger())
	require.ErrorContains(t, err, "is not a directory")

	err = Update(context.Background(), filepath.Join(t.TempDir(), "missing"), "main", logtest.NewLogger())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestUpdate_GitNotFound(t *testing.T) {
	err := UpdateWithOpts(context.Background(), t.TempDir(), "main", logtest.NewLogger(),
		Opts{GitPath: filepath.Join(t.TempDir(), "no-git")})
	require.Error(t, err)
}

func TestLineLogger(t *testing.T) {
	logger := logtest.NewRecorder()
	ll := &lineLogger{logger: logger}
	_, _ = ll.Write([]byte("Already "))
	_, _ = ll.Write([]byte("up to date.\nSwitched to branch 'main'\r\npartial"))
	ll.Flush()

	entries := logger.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, "Already up to date.", entries[0].Text)
	require.Equal(t, "Switched to branch 'main'", entries[1].Text)
	require.Equal(t, "partial", entries[2].Text)
	require.Equal(t, "Already up to date.\nSwitched to branch 'main'\r\npartial", ll.Output())
}
