/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/acronis/phrase-migrate/internal/migrate"
)

// printer writes human-readable progress, separately from the structured log.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) printer {
	return printer{w: w}
}

func (p printer) printf(c *color.Color, format string, args ...interface{}) {
	_, _ = c.Fprintf(p.w, format+"\n", args...)
}

var (
	stepColor  = color.New(color.FgCyan, color.Bold)
	plainColor = color.New()
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	failColor  = color.New(color.FgRed)
)

func (p printer) step(format string, args ...interface{}) { p.printf(stepColor, format, args...) }
func (p printer) info(format string, args ...interface{}) { p.printf(plainColor, format, args...) }
func (p printer) ok(format string, args ...interface{})   { p.printf(okColor, "✓ "+format, args...) }
func (p printer) warn(format string, args ...interface{}) { p.printf(warnColor, "⚠ "+format, args...) }
func (p printer) fail(format string, args ...interface{}) { p.printf(failColor, "✗ "+format, args...) }

func (p printer) keyResult(res migrate.KeyResult) {
	progress := fmt.Sprintf("(%d/%d)", res.Index, res.Total)
	switch res.Status {
	case migrate.KeyStatusListed:
		p.warn("%s %s already exists in the existing keys list, skipped", progress, res.Key)
	case migrate.KeyStatusExists:
		p.warn("%s %s already exists in Phrase, skipped", progress, res.Key)
	case migrate.KeyStatusFailed:
		p.fail("%s %s: %v", progress, res.Key, res.Err)
	case migrate.KeyStatusPlanned:
		p.info("%s %s would be created with %s", progress, res.Key, localesList(res.Locales))
	default:
		if len(res.FailedLocales) != 0 {
			p.fail("%s %s: uploaded %s, failed %s", progress, res.Key,
				localesList(res.Locales), localesList(res.FailedLocales))
			return
		}
		p.ok("%s %s: %s", progress, res.Key, localesList(res.Locales))
	}
}

func (p printer) report(r migrate.Report, dryRun bool) {
	if dryRun {
		p.step("Dry run for project %s: %d keys would be created, %d skipped, %d translations would be uploaded",
			r.ProjectID, r.KeysCreated, r.KeysSkipped, r.UploadsOK)
		return
	}
	p.step("Project %s: %d of %d keys created, %d skipped, %d failed",
		r.ProjectID, r.KeysCreated, r.KeysTotal, r.KeysSkipped, r.KeysFailed)
	if r.UploadsFailed != 0 {
		p.fail("%d translations uploaded, %d failed", r.UploadsOK, r.UploadsFailed)
	} else {
		p.ok("%d translations uploaded", r.UploadsOK)
	}
	if len(r.UnknownLocales) != 0 {
		p.warn("locales missing in the project: %s", localesList(r.UnknownLocales))
	}
}

func localesList(locales []string) string {
	if len(locales) == 0 {
		return "no translations"
	}
	return strings.Join(locales, ", ")
}
