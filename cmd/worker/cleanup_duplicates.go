package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/vitalabs/competition-engine/internal/app"
	"github.com/vitalabs/competition-engine/internal/domain/workout"
	"github.com/vitalabs/competition-engine/internal/usecase"
)

// activeUserIDs collects every user who could plausibly have uploaded a
// workout: team members across every season, plus anyone currently sitting
// in the player pool.
func activeUserIDs(ctx context.Context, rt *app.Runtime) ([]string, error) {
	seen := make(map[string]struct{})

	seasons, err := rt.SeasonRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}

	for _, s := range seasons {
		teams, err := rt.TeamRepo.ListBySeason(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("list teams for season %s: %w", s.ID, err)
		}

		for _, t := range teams {
			members, err := rt.TeamRepo.ListMembers(ctx, t.ID)
			if err != nil {
				return nil, fmt.Errorf("list members for team %s: %w", t.ID, err)
			}
			for _, m := range members {
				seen[m.UserID] = struct{}{}
			}
		}
	}

	poolEntries, err := rt.PlayerPoolRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list player pool: %w", err)
	}
	for _, entry := range poolEntries {
		seen[entry.UserID] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for userID := range seen {
		out = append(out, userID)
	}

	return out, nil
}

func cleanupDuplicatesCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "cleanup-duplicates",
		Short: "Scan every active player's workout history and flag overlapping uploads as duplicates",
		Long:  "The offline cleanup job referenced by workout.Workout's doc comment: re-checks every active player for workouts whose time ranges overlap within the upload tolerance, keeps the highest-calorie one (earliest-uploaded on a tie) and flags the rest.",
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

			ctx := cmd.Context()
			userIDs, err := activeUserIDs(ctx, rt)
			if err != nil {
				return fmt.Errorf("collect active user ids: %w", err)
			}

			pool, err := ants.NewPool(workers)
			if err != nil {
				return fmt.Errorf("create worker pool: %w", err)
			}
			defer pool.Release()

			var scanned, flagged atomic.Int32
			var wg sync.WaitGroup

			for _, userID := range userIDs {
				userID := userID
				wg.Add(1)
				if err := pool.Submit(func() {
					defer wg.Done()

					n, err := cleanupUserDuplicates(ctx, rt.WorkoutRepo, userID)
					if err != nil {
						logger.Error("cleanup duplicates failed", "user_id", userID, "error", err)
						return
					}
					scanned.Add(1)
					flagged.Add(int32(n))
				}); err != nil {
					wg.Done()
					logger.Error("submit cleanup task failed", "user_id", userID, "error", err)
				}
			}

			wg.Wait()
			logger.Info("cleanup-duplicates finished",
				"players_scanned", scanned.Load(),
				"workouts_flagged", flagged.Load(),
			)

			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 8, "number of players scanned concurrently")

	return cmd
}

// cleanupUserDuplicates keeps the highest-calorie workout of each
// time-overlapping cluster (the earliest-uploaded one on a calorie tie) and
// flags the others, mirroring the tolerance the ingestor itself uses at
// upload time.
func cleanupUserDuplicates(ctx context.Context, repo workout.Repository, userID string) (int, error) {
	workouts, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list workouts for user %s: %w", userID, err)
	}

	sort.Slice(workouts, func(i, j int) bool {
		return workouts[i].Start.Before(workouts[j].Start)
	})

	var toFlag []string
	current := -1
	for i, w := range workouts {
		if w.IsDuplicate {
			continue
		}
		if current == -1 {
			current = i
			continue
		}

		anchor := workouts[current]
		if w.Start.Before(anchor.End.Add(usecase.DefaultOverlapTolerance)) {
			if w.Calories > anchor.Calories || (w.Calories == anchor.Calories && w.CreatedAt.Before(anchor.CreatedAt)) {
				toFlag = append(toFlag, anchor.ID)
				current = i
			} else {
				toFlag = append(toFlag, w.ID)
			}
			continue
		}

		current = i
	}

	if len(toFlag) == 0 {
		return 0, nil
	}

	if err := repo.MarkDuplicate(ctx, toFlag); err != nil {
		return 0, fmt.Errorf("mark duplicate for user %s: %w", userID, err)
	}

	return len(toFlag), nil
}
