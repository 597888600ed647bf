package main

import (
	"github.com/spf13/cobra"

	"github.com/vitalabs/competition-engine/internal/app"
)

func serveSchedulerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-scheduler",
		Short: "Run the game lifecycle scheduler loop",
		Long:  "Ticks the scheduler that starts due games, finishes expired ones, evaluates finished games and dispatches per-season evaluation crons, until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			rt, err := app.NewRuntime(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			ctx, stop := signalContext()
			defer stop()

			logger.Info("scheduler starting", "tick_interval", cfg.SchedulerTickInterval)
			rt.Scheduler.Run(ctx)
			logger.Info("scheduler stopped")

			return nil
		},
	}
}
