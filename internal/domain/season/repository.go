package season

import (
	"context"

	"github.com/vitalabs/competition-engine/internal/domain/team"
)

// Repository is persistence for seasons. CreateWithSchedule executes the
// season insert, roster insert, schedule generation, and standings bootstrap
// atomically.
type Repository interface {
	List(ctx context.Context) ([]Season, error)
	GetByID(ctx context.Context, seasonID string) (Season, bool, error)
	GetActiveByLeague(ctx context.Context, leagueID string) (Season, bool, error)
	Create(ctx context.Context, s Season) (string, error)
	// CreateWithSchedule inserts s, inserts one team row per roster entry
	// against the new season id, generates the double round-robin schedule
	// over those teams via GenerateSchedule, persists one game per fixture,
	// and bootstraps a zeroed standings row per team — all in one
	// transaction. Team rows are created here (not through team.Repository)
	// because teams.season_id is foreign-keyed to a season row that does not
	// exist until this call commits. It returns the season id, the created
	// team ids in roster order, and the created game ids in fixture order.
	CreateWithSchedule(ctx context.Context, s Season, roster []team.Team) (seasonID string, teamIDs []string, gameIDs []string, err error)
	SetActive(ctx context.Context, seasonID string, active bool) error
}
