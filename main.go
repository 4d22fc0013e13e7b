// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"timbre/cmd"
	applog "timbre/internal/log"
	"timbre/pkg/build"
)

// main wires process-level concerns around the command tree:
//
//  1. Build information from ldflags, falling back to development defaults.
//  2. A context cancelled on SIGINT/SIGTERM, so serving and playback stop
//     cleanly.
//  3. Command dispatch and the exit status.
func main() {
	if err := build.Initialize(); err != nil {
		applog.Debugf("build: %v, using development build info", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()

	if err != nil {
		applog.Error(err)
		applog.Sync()
		os.Exit(1)
	}
	applog.Sync()
}
