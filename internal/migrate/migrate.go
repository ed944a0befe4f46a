/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package migrate uploads collected translations to a Phrase project.
// All Phrase API calls go through a rate-limited executor.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/vasayxtx/go-glob"

	"github.com/acronis/phrase-migrate/executor"
	"github.com/acronis/phrase-migrate/internal/phrase"
	"github.com/acronis/phrase-migrate/internal/translations"
	"github.com/acronis/phrase-migrate/log"
)

// API is the part of the Phrase client used by Uploader.
type API interface {
	LocaleIDs(ctx context.Context, projectID string) (map[string]string, error)
	CreateKey(ctx context.Context, projectID, name string) (phrase.Key, error)
	SetTranslation(ctx context.Context, projectID, keyID, localeID, content string) error
}

var _ API = (*phrase.Client)(nil)

// KeyStatus is the outcome of a single key.
type KeyStatus string

// Key statuses.
const (
	KeyStatusCreated KeyStatus = "created"
	KeyStatusListed  KeyStatus = "listed"  // in the existing keys list, not sent
	KeyStatusExists  KeyStatus = "exists"  // rejected by Phrase as already existing
	KeyStatusFailed  KeyStatus = "failed"  // key creation failed
	KeyStatusPlanned KeyStatus = "planned" // dry run
)

// KeyResult describes how a key was processed. It is passed to RunOpts.Progress.
type KeyResult struct {
	Key    string
	Index  int // 1-based
	Total  int
	Status KeyStatus

	// Locales are the locale codes whose translations were uploaded (or would be, in a dry run).
	Locales []string
	// FailedLocales are the locale codes whose translation upload failed.
	FailedLocales []string
	Err           error
}

// RunOpts represents options for Uploader.Run.
type RunOpts struct {
	// SourceLocale defines the keys to migrate and their order.
	SourceLocale string

	// ExistingKeys are skipped without calling Phrase. An entry with "*" is a glob pattern, e.g. "legacy.*".
	ExistingKeys []string

	// DryRun reports what would be uploaded without calling Phrase.
	// Locale availability is not checked in this mode.
	DryRun bool

	Progress func(res KeyResult)
}

// Report summarizes a migration run.
type Report struct {
	ProjectID     string
	KeysTotal     int
	KeysCreated   int
	KeysSkipped   int
	KeysFailed    int
	UploadsOK     int
	UploadsFailed int

	// UnknownLocales are locales of the set the project doesn't have. Their translations are not uploaded.
	UnknownLocales []string
}

// Uploader migrates translation sets to Phrase.
type Uploader struct {
	api    API
	exec   *executor.Executor
	logger log.FieldLogger
}

// NewUploader creates a new Uploader.
func NewUploader(api API, exec *executor.Executor, logger log.FieldLogger) *Uploader {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &Uploader{api: api, exec: exec, logger: logger}
}

// Run uploads the set to the project.
// Keys are processed one at a time in source locale order: the key is created,
// then its translations are uploaded concurrently, and all of them finish before the next key starts.
// Failures of single keys and uploads don't stop the run, they are aggregated into the returned error.
// The returned report is valid even if an error is returned.
func (u *Uploader) Run(ctx context.Context, projectID string, set *translations.Set, opts RunOpts) (Report, error) {
	report := Report{ProjectID: projectID}
	if !set.HasLocale(opts.SourceLocale) {
		return report, fmt.Errorf("source locale %q not found in translations", opts.SourceLocale)
	}
	logger := u.logger.With(log.String("project_id", projectID))

	var localeIDs map[string]string
	if !opts.DryRun {
		var err error
		if localeIDs, err = executor.Submit(u.exec, ctx, func(ctx context.Context) (map[string]string, error) {
			return u.api.LocaleIDs(ctx, projectID)
		}).Wait(ctx); err != nil {
			return report, fmt.Errorf("get locales: %w", err)
		}
		for _, code := range set.Locales() {
			if _, ok := localeIDs[code]; !ok {
				report.UnknownLocales = append(report.UnknownLocales, code)
			}
		}
		if len(report.UnknownLocales) != 0 {
			logger.Warn("locales missing in project, their translations are skipped",
				log.Strings("locales", report.UnknownLocales))
		}
	}

	existing := newKeyMatcher(opts.ExistingKeys)

	keys := set.Keys(opts.SourceLocale)
	report.KeysTotal = len(keys)
	logger.Info("migration started", log.Int("keys", len(keys)), log.Bool("dry_run", opts.DryRun))

	var errs *multierror.Error
	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := KeyResult{Key: key, Index: i + 1, Total: len(keys)}
		switch {
		case existing.match(key):
			res.Status = KeyStatusListed
			report.KeysSkipped++
		case opts.DryRun:
			res.Status = KeyStatusPlanned
			res.Locales = localesWithValue(set, key, nil)
			report.KeysCreated++
			report.UploadsOK += len(res.Locales)
		default:
			if err := u.migrateKey(ctx, projectID, set, key, localeIDs, &res); err != nil {
				return report, err
			}
			switch res.Status {
			case KeyStatusCreated:
				report.KeysCreated++
			case KeyStatusExists:
				report.KeysSkipped++
			case KeyStatusFailed:
				report.KeysFailed++
			}
			report.UploadsOK += len(res.Locales)
			report.UploadsFailed += len(res.FailedLocales)
			if res.Err != nil {
				errs = multierror.Append(errs, res.Err)
			}
		}
		if opts.Progress != nil {
			opts.Progress(res)
		}
	}

	logger.Info("migration finished",
		log.Int("keys_created", report.KeysCreated),
		log.Int("keys_skipped", report.KeysSkipped),
		log.Int("keys_failed", report.KeysFailed),
		log.Int("uploads_ok", report.UploadsOK),
		log.Int("uploads_failed", report.UploadsFailed),
	)
	return report, errs.ErrorOrNil()
}

// migrateKey fills res. The returned error is fatal for the whole run, per-key failures are kept in res.Err.
func (u *Uploader) migrateKey(
	ctx context.Context, projectID string, set *translations.Set, key string, localeIDs map[string]string, res *KeyResult,
) error {
	created, err := executor.Submit(u.exec, ctx, func(ctx context.Context) (phrase.Key, error) {
		return u.api.CreateKey(ctx, projectID, key)
	}).Wait(ctx)
	if err != nil {
		switch {
		case errors.Is(err, phrase.ErrKeyExists):
			res.Status = KeyStatusExists
			u.logger.Warn("key already exists in project, skipped", log.String("key", key))
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			res.Status = KeyStatusFailed
			res.Err = err
			u.logger.Error("failed to create key", log.String("key", key), log.Error(err))
			return nil
		}
	}
	res.Status = KeyStatusCreated

	type upload struct {
		locale string
		future *executor.Future[struct{}]
	}
	var uploads []upload
	for _, code := range localesWithValue(set, key, localeIDs) {
		localeID, content := localeIDs[code], valueOf(set, code, key)
		uploads = append(uploads, upload{code, executor.Submit(u.exec, ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, u.api.SetTranslation(ctx, projectID, created.ID, localeID, content)
		})})
	}
	if err = u.exec.Drain(ctx); err != nil {
		return err
	}

	var errs *multierror.Error
	for _, up := range uploads {
		if _, upErr := up.future.Result(); upErr != nil {
			res.FailedLocales = append(res.FailedLocales, up.locale)
			errs = multierror.Append(errs, fmt.Errorf("upload %q translation of key %q: %w", up.locale, key, upErr))
			u.logger.Error("failed to upload translation",
				log.String("key", key), log.String("locale", up.locale), log.Error(upErr))
			continue
		}
		res.Locales = append(res.Locales, up.locale)
	}
	if errs != nil {
		res.Err = errs.ErrorOrNil()
	}
	u.logger.Debug("key migrated", log.String("key", key),
		log.Int("uploaded", len(res.Locales)), log.Int("failed", len(res.FailedLocales)))
	return nil
}

// localesWithValue returns the set's locales having a non-empty value for the key.
// If localeIDs is not nil, locales unknown to the project are left out.
func localesWithValue(set *translations.Set, key string, localeIDs map[string]string) []string {
	var res []string
	for _, code := range set.Locales() {
		if localeIDs != nil {
			if _, ok := localeIDs[code]; !ok {
				continue
			}
		}
		if v, ok := set.Value(code, key); ok && v != "" {
			res = append(res, code)
		}
	}
	return res
}

func valueOf(set *translations.Set, locale, key string) string {
	v, _ := set.Value(locale, key)
	return v
}

type keyMatcher struct {
	exact    map[string]struct{}
	patterns []func(s string) bool
}

func newKeyMatcher(keys []string) keyMatcher {
	m := keyMatcher{exact: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		if strings.Contains(k, "*") {
			m.patterns = append(m.patterns, glob.Compile(k))
			continue
		}
		m.exact[k] = struct{}{}
	}
	return m
}

func (m keyMatcher) match(key string) bool {
	if _, ok := m.exact[key]; ok {
		return true
	}
	for _, matchPattern := range m.patterns {
		if matchPattern(key) {
			return true
		}
	}
	return false
}
