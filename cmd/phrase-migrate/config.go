/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/acronis/phrase-migrate/internal/appconfig"
)

const defaultConfigFile = "phrase-migrate.yml"

var configCmd = &cli.Command{
	Name:  "config",
	Usage: "Manage the configuration file",
	Subcommands: []*cli.Command{
		{
			Name:  "init",
			Usage: "Write the default configuration",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   `destination file, "-" for stdout`,
					Value:   defaultConfigFile,
				},
				&cli.BoolFlag{
					Name:  "force",
					Usage: "overwrite an existing file",
				},
			},
			Action: func(cctx *cli.Context) error {
				var buf bytes.Buffer
				if err := appconfig.WriteDefaultYAML(&buf); err != nil {
					return err
				}
				output := cctx.String("output")
				if output == "-" {
					_, err := cctx.App.Writer.Write(buf.Bytes())
					return err
				}
				flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
				if !cctx.Bool("force") {
					flags |= os.O_EXCL
				}
				f, err := os.OpenFile(output, flags, 0o644)
				if err != nil {
					return fmt.Errorf("create config file: %w", err)
				}
				if _, err = f.Write(buf.Bytes()); err != nil {
					_ = f.Close()
					return fmt.Errorf("write config file: %w", err)
				}
				if err = f.Close(); err != nil {
					return fmt.Errorf("write config file: %w", err)
				}
				newPrinter(cctx.App.Writer).ok("Configuration written to %s", output)
				return nil
			},
		},
	},
}
