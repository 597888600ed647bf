package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalabs/competition-engine/internal/app"
)

func evaluateDateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate-date <YYYY-MM-DD>",
		Short: "Force-evaluate finished games whose week ended on a given date",
		Long:  "Runs EvaluationService.EvaluateGame for every finished, unevaluated game whose week_end_date falls on the given date. Intended for backfilling a missed scheduler tick.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := time.Parse("2006-01-02", args[0])
			if err != nil {
				return fmt.Errorf("parse date %q: %w", args[0], err)
			}

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

			ctx := cmd.Context()
			games, err := rt.GameRepo.ListFinishedUnevaluated(ctx)
			if err != nil {
				return fmt.Errorf("list finished unevaluated games: %w", err)
			}

			evaluated := 0
			for _, g := range games {
				if !sameDay(g.WeekEndDate, day) {
					continue
				}
				if err := rt.Evaluator.EvaluateGame(ctx, g.ID); err != nil {
					logger.Error("evaluate game failed", "game_id", g.ID, "error", err)
					continue
				}
				evaluated++
			}

			logger.Info("evaluate-date finished", "date", args[0], "candidates", len(games), "evaluated", evaluated)
			return nil
		},
	}
}

func sameDay(t, day time.Time) bool {
	ty, tm, td := t.UTC().Date()
	dy, dm, dd := day.UTC().Date()
	return ty == dy && tm == dm && td == dd
}
