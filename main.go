// Package main is the entry point for the machinetools command line.
// It loads configuration, builds the logger and hands over to the CLI.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"machinetools/src/app/cli"
	"machinetools/src/infra/config"
	"machinetools/src/infra/logger"
)

func main() {
	if err := run(); err != nil {
		log.Printf("fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize logger
	log := logger.New(cfg.Log)
	log.Debug("starting machinetools",
		"driver", cfg.Database.Driver,
		"log_level", cfg.Log.Level,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, cfg, log, os.Args[1:])
}
