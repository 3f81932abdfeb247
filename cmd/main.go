package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/spotpair/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("SPOTPAIR_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	runner := NewRunner(RunnerOpts{
		ConfigPath: configPath,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.app().Run(ctx, os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		logger.Fatalf("application error: %v", err)
	}
}
