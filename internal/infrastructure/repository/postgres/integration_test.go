//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/vitalabs/competition-engine/internal/domain/game"
	"github.com/vitalabs/competition-engine/internal/domain/jobscheduler"
	"github.com/vitalabs/competition-engine/internal/domain/season"
	"github.com/vitalabs/competition-engine/internal/domain/team"
	"github.com/vitalabs/competition-engine/internal/domain/workout"
	"github.com/vitalabs/competition-engine/internal/testutils"
)

// TestMigrationsAndRepositories applies every db/migrations/*.up.sql file
// against a real Postgres container and exercises the invariants that only
// show up against a real database: the workout_uuid uniqueness constraint
// and the job_dispatches partial-unique-index ON CONFLICT arbiter.
func TestMigrationsAndRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	root, err := testutils.ProjectRoot()
	require.NoError(t, err)

	rawDB, connStr, cleanup := testutils.SetupTestDB(t,
		testutils.WithMigrations(root+"/db/migrations"),
	)
	defer cleanup()
	_ = connStr

	db := sqlx.NewDb(rawDB, "postgres")
	ctx := context.Background()

	userRepo := NewUserRepository(db)
	seasonRepo := NewSeasonRepository(db)
	teamRepo := NewTeamRepository(db)
	gameRepo := NewGameRepository(db)
	workoutRepo := NewWorkoutRepository(db)
	dispatchRepo := NewJobDispatchRepository(db)

	// user.Repository is read-only by design (registration lives with the
	// external auth collaborator), so seeding a row here goes straight
	// through SQL rather than a repository method.
	userID := uuid.NewString()
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, "integration-user", "integration@example.com", "hash", "user", "active",
	)
	require.NoError(t, err)

	seededUser, found, err := userRepo.GetByID(ctx, userID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "integration-user", seededUser.Username)

	seasonID, err := seasonRepo.Create(ctx, season.Season{
		LeagueID:              "integration-league",
		StartDate:             time.Now().UTC(),
		GameDurationMinutes:   60,
		AutoEvaluationEnabled: true,
		IsActive:              true,
	})
	require.NoError(t, err)

	homeTeamID, err := teamRepo.Create(ctx, team.Team{
		Name:        "Home",
		Color:       "#ff0000",
		OwnerUserID: userID,
		SeasonID:    seasonID,
	})
	require.NoError(t, err)

	awayTeamID, err := teamRepo.Create(ctx, team.Team{
		Name:        "Away",
		Color:       "#0000ff",
		OwnerUserID: userID,
		SeasonID:    seasonID,
	})
	require.NoError(t, err)

	gameStart := time.Now().UTC()
	gameID, err := gameRepo.Create(ctx, game.Game{
		SeasonID:      seasonID,
		HomeTeamID:    homeTeamID,
		AwayTeamID:    awayTeamID,
		Status:        game.StatusScheduled,
		GameStartTime: &gameStart,
	})
	require.NoError(t, err)
	require.NotEmpty(t, gameID)

	t.Run("workout_uuid is unique per user", func(t *testing.T) {
		w := workout.Workout{
			UserID:      userID,
			DeviceID:    "device-1",
			WorkoutUUID: "dup-uuid",
			Start:       time.Now().UTC(),
			End:         time.Now().UTC().Add(30 * time.Minute),
		}

		_, err := workoutRepo.Insert(ctx, w)
		require.NoError(t, err)

		_, err = workoutRepo.Insert(ctx, w)
		require.Error(t, err)
	})

	t.Run("job dispatch upsert is idempotent under the live partial index", func(t *testing.T) {
		event := jobscheduler.DispatchEvent{
			DispatchID: "dispatch-1",
			JobName:    "evaluate-season",
			JobPath:    "scheduler.evaluateFinishedGames",
			SeasonID:   seasonID,
			Status:     jobscheduler.StatusCompleted,
			OccurredAt: time.Now().UTC(),
		}

		require.NoError(t, dispatchRepo.UpsertEvent(ctx, event))
		require.NoError(t, dispatchRepo.UpsertEvent(ctx, event))
	})
}
