// Package main provides the replay CLI: play one seed of a scenario and print
// its combat narrative.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	replaycmd "github.com/louisbranch/skirmish/internal/cmd/replay"
	"github.com/louisbranch/skirmish/internal/platform/config"
)

func main() {
	cfg, err := replaycmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := replaycmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		stop()
		config.ExitError(cfg.Locale, err)
	}
}
