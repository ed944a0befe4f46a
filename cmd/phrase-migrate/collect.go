/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/acronis/phrase-migrate/internal/gitsync"
	"github.com/acronis/phrase-migrate/internal/translations"
)

var (
	noSyncFlag = &cli.BoolFlag{
		Name:  "no-sync",
		Usage: "don't update the source repository before collecting",
	}
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "file to write collected translations to (overrides source.outputFile)",
	}
)

var collectCmd = &cli.Command{
	Name:  "collect",
	Usage: "Collect translations of the listed keys from the source repository into a file",
	Flags: []cli.Flag{noSyncFlag, outputFlag},
	Action: func(cctx *cli.Context) error {
		e, err := setupEnv(cctx)
		if err != nil {
			return err
		}
		defer e.close()

		_, err = runCollect(cctx.Context, e, newPrinter(cctx.App.Writer), collectOpts{
			noSync: cctx.Bool(noSyncFlag.Name),
			output: cctx.String(outputFlag.Name),
		})
		return err
	},
}

type collectOpts struct {
	noSync bool
	output string
}

func runCollect(ctx context.Context, e *env, p printer, opts collectOpts) (*translations.Set, error) {
	src := e.cfg.Source
	if src.Sync && !opts.noSync {
		p.step("Updating %s to the latest %s...", src.RepoPath, src.Branch)
		if err := gitsync.Update(ctx, src.RepoPath, src.Branch, e.logger); err != nil {
			return nil, fmt.Errorf("update source repository: %w", err)
		}
	}

	keys, err := translations.ReadKeyFile(src.KeyFile)
	if err != nil {
		return nil, err
	}
	p.step("Collecting %d keys from %s...", len(keys), src.RepoPath)

	set, err := translations.Collect(src.RepoPath, keys, e.logger)
	if err != nil {
		return nil, fmt.Errorf("collect translations: %w", err)
	}
	if set.Len() == 0 {
		p.warn("no translations found")
	}
	for _, l := range set.Locales() {
		p.ok("%s: %d keys", l, len(set.Keys(l)))
	}

	output := opts.output
	if output == "" {
		output = src.OutputFile
	}
	if err = translations.WriteFile(output, set); err != nil {
		return nil, fmt.Errorf("write translations: %w", err)
	}
	p.step("Translations written to %s", output)
	return set, nil
}
