// Package main provides the simulate CLI: survey a combat scenario and print
// its percentile report.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	simulatecmd "github.com/louisbranch/skirmish/internal/cmd/simulate"
	"github.com/louisbranch/skirmish/internal/platform/config"
)

func main() {
	cfg, err := simulatecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := simulatecmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		stop()
		config.ExitError(cfg.Locale, err)
	}
}
