/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v2"

	"github.com/acronis/phrase-migrate/internal/phrase"
)

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "Collect translations and upload them to Phrase in one go",
	Flags: []cli.Flag{projectFlag, noSyncFlag, outputFlag, dryRunFlag, existingKeysFlag},
	Action: func(cctx *cli.Context) error {
		p := newPrinter(cctx.App.Writer)
		p.step("Starting i18n migration")

		project := cctx.String(projectFlag.Name)
		if project == "" {
			var err error
			if project, err = selectProject(); err != nil {
				return fmt.Errorf("select project: %w", err)
			}
		}

		e, err := setupEnv(cctx)
		if err != nil {
			return err
		}
		defer e.close()

		set, err := runCollect(cctx.Context, e, p, collectOpts{
			noSync: cctx.Bool(noSyncFlag.Name),
			output: cctx.String(outputFlag.Name),
		})
		if err != nil {
			return err
		}
		if err = runUpload(cctx.Context, e, p, set, uploadOpts{
			project:          project,
			dryRun:           cctx.Bool(dryRunFlag.Name),
			existingKeysFile: cctx.String(existingKeysFlag.Name),
		}); err != nil {
			return err
		}
		p.ok("All steps completed")
		return nil
	},
}

var projectChoices = []struct {
	label, name string
}{
	{"Trade", phrase.ProjectTrade},
	{"Pages", phrase.ProjectPages},
}

// selectProject asks which project to migrate to. Pages is preselected.
var selectProject = func() (string, error) {
	labels := make([]string, len(projectChoices))
	for i, c := range projectChoices {
		labels[i] = c.label
	}
	idx, _, err := (&promptui.Select{
		Label:     "Select project type",
		Items:     labels,
		CursorPos: 1,
	}).Run()
	if err != nil {
		return "", err
	}
	return projectChoices[idx].name, nil
}
