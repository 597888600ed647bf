package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitalabs/competition-engine/internal/config"
	"github.com/vitalabs/competition-engine/internal/platform/logging"
)

func main() {
	root := &cobra.Command{
		Use:   "worker",
		Short: "Background processes for the competition engine",
		Long:  "Runs the game scheduler loop and one-off maintenance jobs that the API process does not serve.",
	}

	root.AddCommand(serveSchedulerCmd())
	root.AddCommand(cleanupDuplicatesCmd())
	root.AddCommand(evaluateDateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadRuntime() (cfg config.Config, logger *logging.Logger, err error) {
	cfg, err = config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger = logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)

	return cfg, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
