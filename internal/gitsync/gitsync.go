/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package gitsync brings a local checkout of the translations repository up to date.
package gitsync

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/acronis/phrase-migrate/log"
	"github.com/acronis/phrase-migrate/retry"
)

// Default values for Opts.
const (
	DefaultGitPath          = "git"
	DefaultPullRetries      = 2
	DefaultPullRetryBackoff = 2 * time.Second
)

// Opts represents options for UpdateWithOpts.
type Opts struct {
	// GitPath is the git executable, looked up in PATH by default.
	GitPath string

	// PullRetries is how many times a failed "git pull" is repeated. Negative disables retries.
	PullRetries int

	PullRetryBackoff time.Duration
}

// CommandError is returned when a git command fails.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + lastLine(out)
	}
	return msg
}

// Unwrap returns the next error in the error chain.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Update checks out the branch and pulls it. Command output is logged line by line with the "git: " prefix.
func Update(ctx context.Context, repoPath, branch string, logger log.FieldLogger) error {
	return UpdateWithOpts(ctx, repoPath, branch, logger, Opts{})
}

// UpdateWithOpts is Update with options.
func UpdateWithOpts(ctx context.Context, repoPath, branch string, logger log.FieldLogger, opts Opts) error {
	fi, err := os.Stat(repoPath)
	if err != nil {
		return fmt.Errorf("stat repository: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("repository path %s is not a directory", repoPath)
	}
	if branch == "" {
		return errors.New("branch cannot be empty")
	}
	if opts.GitPath == "" {
		opts.GitPath = DefaultGitPath
	}
	if opts.PullRetries == 0 {
		opts.PullRetries = DefaultPullRetries
	}
	if opts.PullRetryBackoff <= 0 {
		opts.PullRetryBackoff = DefaultPullRetryBackoff
	}

	logger.Info(fmt.Sprintf("updating %s to the latest %s branch", repoPath, branch))
	r := &runner{gitPath: opts.GitPath, dir: repoPath, logger: log.NewPrefixedLogger(logger, "git: ")}

	if err = r.run(ctx, "checkout", branch); err != nil {
		return err
	}

	pull := func(ctx context.Context) error { return r.run(ctx, "pull") }
	if opts.PullRetries < 0 {
		return pull(ctx)
	}
	policy := retry.NewConstantBackoffPolicy(opts.PullRetryBackoff, opts.PullRetries)
	notify := func(err error, next time.Duration) {
		logger.Warn("git pull failed, retrying", log.Error(err), log.DurationIn(next, time.Millisecond))
	}
	return retry.DoWithRetry(ctx, policy, isRetryable, notify, pull)
}

// isRetryable excludes failures that repeat deterministically.
func isRetryable(err error) bool {
	var execErr *exec.Error
	return !errors.As(err, &execErr) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

type runner struct {
	gitPath string
	dir     string
	logger  log.FieldLogger
}

func (r *runner) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.gitPath, args...)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	out := &lineLogger{logger: r.logger}
	cmd.Stdout = out
	cmd.Stderr = out
	err := cmd.Run()
	out.Flush()
	if err != nil {
		return &CommandError{Args: args, Output: out.Output(), Err: err}
	}
	return nil
}

// lineLogger logs every complete line written to it and keeps the whole output.
type lineLogger struct {
	logger  log.FieldLogger
	mu      sync.Mutex
	pending bytes.Buffer
	output  bytes.Buffer
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write(p)
	l.pending.Write(p)
	for {
		line, err := l.pending.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// Keep the partial line for the next write.
			l.pending.Reset()
			l.pending.WriteString(line)
			return len(p), nil
		}
		l.logLine(line)
	}
}

// Flush logs the trailing line without a newline.
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending.Len() > 0 {
		l.logLine(l.pending.String())
		l.pending.Reset()
	}
}

func (l *lineLogger) Output() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.output.String()
}

func (l *lineLogger) logLine(line string) {
	if line = strings.TrimRight(line, "\r\n"); line != "" {
		l.logger.Info(line)
	}
}

func lastLine(s string) string {
	var last string
	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	return last
}
