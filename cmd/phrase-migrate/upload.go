/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/acronis/phrase-migrate/internal/migrate"
	"github.com/acronis/phrase-migrate/internal/phrase"
	"github.com/acronis/phrase-migrate/internal/translations"
)

var (
	projectFlag = &cli.StringFlag{
		Name:    "project",
		Aliases: []string{"p"},
		Usage:   `Phrase project: "trade", "pages" or a project ID`,
	}
	inputFlag = &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "file with collected translations (defaults to source.outputFile)",
	}
	dryRunFlag = &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "report what would be uploaded without calling Phrase",
	}
	existingKeysFlag = &cli.StringFlag{
		Name:  "existing-keys",
		Usage: "file with keys that must not be created, one per line (overrides source.existingKeysFile)",
	}
)

var uploadCmd = &cli.Command{
	Name:  "upload",
	Usage: "Upload collected translations to a Phrase project",
	Flags: []cli.Flag{withRequired(projectFlag), inputFlag, dryRunFlag, existingKeysFlag},
	Action: func(cctx *cli.Context) error {
		e, err := setupEnv(cctx)
		if err != nil {
			return err
		}
		defer e.close()

		input := cctx.String(inputFlag.Name)
		if input == "" {
			input = e.cfg.Source.OutputFile
		}
		set, err := translations.ReadFile(input)
		if err != nil {
			return err
		}
		return runUpload(cctx.Context, e, newPrinter(cctx.App.Writer), set, uploadOpts{
			project:          cctx.String(projectFlag.Name),
			dryRun:           cctx.Bool(dryRunFlag.Name),
			existingKeysFile: cctx.String(existingKeysFlag.Name),
		})
	},
}

func withRequired(f *cli.StringFlag) *cli.StringFlag {
	required := *f
	required.Required = true
	return &required
}

type uploadOpts struct {
	project          string
	dryRun           bool
	existingKeysFile string
}

var errUploadFailed = errors.New("some keys or translations were not migrated")

func runUpload(ctx context.Context, e *env, p printer, set *translations.Set, opts uploadOpts) error {
	projectID, err := e.cfg.Phrase.ResolveProject(opts.project)
	if err != nil {
		return err
	}
	if e.cfg.Phrase.Token == "" && !opts.dryRun {
		return fmt.Errorf("phrase token is not configured, set %s or phrase.token", phrase.EnvToken)
	}

	existingKeysFile := opts.existingKeysFile
	if existingKeysFile == "" {
		existingKeysFile = e.cfg.Source.ExistingKeysFile
	}
	var existingKeys []string
	if existingKeysFile != "" {
		if existingKeys, err = translations.ReadKeyFile(existingKeysFile); err != nil {
			return fmt.Errorf("read existing keys: %w", err)
		}
	}

	uploader, err := e.newUploader()
	if err != nil {
		return err
	}

	p.step("Migrating translations to Phrase project %s...", projectID)
	report, err := uploader.Run(ctx, projectID, set, migrate.RunOpts{
		SourceLocale: e.cfg.Phrase.SourceLocale,
		ExistingKeys: existingKeys,
		DryRun:       opts.dryRun,
		Progress:     p.keyResult,
	})
	if report.KeysTotal != 0 || err == nil {
		p.report(report, opts.dryRun)
	}
	if err != nil {
		if report.KeysFailed+report.UploadsFailed != 0 {
			return fmt.Errorf("%w: %w", errUploadFailed, err)
		}
		return fmt.Errorf("migrate translations: %w", err)
	}
	return nil
}
