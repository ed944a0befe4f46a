/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Command phrase-migrate collects web translations from a git repository and migrates them to Phrase.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		stop()
		os.Exit(1)
	}
}
