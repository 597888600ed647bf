package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vitalabs/competition-engine/internal/domain/game"
	"github.com/vitalabs/competition-engine/internal/domain/season"
	"github.com/vitalabs/competition-engine/internal/domain/team"
	qb "github.com/vitalabs/competition-engine/internal/platform/querybuilder"
)

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) List(ctx context.Context) ([]season.Season, error) {
	query, args, err := qb.Select("*").From("seasons").OrderBy("start_date DESC").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list seasons query: %w", err)
	}

	var rows []seasonTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select seasons: %w", err)
	}

	out := make([]season.Season, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapSeasonRow(row))
	}

	return out, nil
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID string) (season.Season, bool, error) {
	query, args, err := qb.Select("*").From("seasons").Where(qb.Eq("id", seasonID)).ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build get season by id query: %w", err)
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, fmt.Errorf("get season by id: %w", err)
	}

	return mapSeasonRow(row), true, nil
}

func (r *SeasonRepository) GetActiveByLeague(ctx context.Context, leagueID string) (season.Season, bool, error) {
	query, args, err := qb.Select("*").From("seasons").
		Where(qb.Eq("league_id", leagueID), qb.Eq("is_active", true)).
		ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build get active season query: %w", err)
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, fmt.Errorf("get active season: %w", err)
	}

	return mapSeasonRow(row), true, nil
}

func (r *SeasonRepository) Create(ctx context.Context, s season.Season) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	insertModel := struct {
		ID                    string    `db:"id"`
		LeagueID              string    `db:"league_id"`
		StartDate             time.Time `db:"start_date"`
		GameDurationMinutes   int       `db:"game_duration_minutes"`
		EvaluationCron        string    `db:"evaluation_cron"`
		EvaluationTimezone    string    `db:"evaluation_timezone"`
		AutoEvaluationEnabled bool      `db:"auto_evaluation_enabled"`
		IsActive              bool      `db:"is_active"`
	}{
		ID:                    s.ID,
		LeagueID:              s.LeagueID,
		StartDate:             s.StartDate,
		GameDurationMinutes:   s.GameDurationMinutes,
		EvaluationCron:        s.EvaluationCron,
		EvaluationTimezone:    s.EvaluationTimezone,
		AutoEvaluationEnabled: s.AutoEvaluationEnabled,
		IsActive:              s.IsActive,
	}

	query, args, err := qb.InsertModel("seasons", insertModel, "")
	if err != nil {
		return "", fmt.Errorf("build insert season query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert season: %w", err)
	}

	return s.ID, nil
}

// CreateWithSchedule inserts season s, one team row per roster entry against
// the new season id, the double round-robin schedule GenerateSchedule
// produces for that roster, and a zeroed standings row per team, all in one
// transaction. Teams are inserted here rather than through TeamRepository
// because teams.season_id is foreign-keyed to a season row that does not
// exist until this transaction commits.
func (r *SeasonRepository) CreateWithSchedule(ctx context.Context, s season.Season, roster []team.Team) (string, []string, []string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", nil, nil, fmt.Errorf("begin tx create season with schedule: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	seasonInsertModel := struct {
		ID                    string    `db:"id"`
		LeagueID              string    `db:"league_id"`
		StartDate             time.Time `db:"start_date"`
		GameDurationMinutes   int       `db:"game_duration_minutes"`
		EvaluationCron        string    `db:"evaluation_cron"`
		EvaluationTimezone    string    `db:"evaluation_timezone"`
		AutoEvaluationEnabled bool      `db:"auto_evaluation_enabled"`
		IsActive              bool      `db:"is_active"`
	}{
		ID:                    s.ID,
		LeagueID:              s.LeagueID,
		StartDate:             s.StartDate,
		GameDurationMinutes:   s.GameDurationMinutes,
		EvaluationCron:        s.EvaluationCron,
		EvaluationTimezone:    s.EvaluationTimezone,
		AutoEvaluationEnabled: s.AutoEvaluationEnabled,
		IsActive:              s.IsActive,
	}
	query, args, err := qb.InsertModel("seasons", seasonInsertModel, "")
	if err != nil {
		return "", nil, nil, fmt.Errorf("build insert season query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return "", nil, nil, fmt.Errorf("insert season: %w", err)
	}

	teamIDs := make([]string, 0, len(roster))
	for _, t := range roster {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.SeasonID = s.ID

		teamInsertModel := struct {
			ID          string `db:"id"`
			Name        string `db:"name"`
			Color       string `db:"color"`
			OwnerUserID string `db:"owner_user_id"`
			SeasonID    string `db:"season_id"`
		}{t.ID, t.Name, t.Color, t.OwnerUserID, t.SeasonID}

		query, args, err := qb.InsertModel("teams", teamInsertModel, "")
		if err != nil {
			return "", nil, nil, fmt.Errorf("build insert team query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return "", nil, nil, fmt.Errorf("insert team id=%s: %w", t.ID, err)
		}

		teamIDs = append(teamIDs, t.ID)
	}

	fixtures := season.GenerateSchedule(teamIDs, s.StartDate, s.GameDuration())

	gameIDs := make([]string, 0, len(fixtures))
	for _, f := range fixtures {
		gameID := uuid.NewString()

		gameInsertModel := struct {
			ID            string    `db:"id"`
			SeasonID      string    `db:"season_id"`
			HomeTeamID    string    `db:"home_team_id"`
			AwayTeamID    string    `db:"away_team_id"`
			WeekNumber    int       `db:"week_number"`
			IsFirstLeg    bool      `db:"is_first_leg"`
			Status        string    `db:"status"`
			ScheduledTime time.Time `db:"scheduled_time"`
			WeekStartDate time.Time `db:"week_start_date"`
			WeekEndDate   time.Time `db:"week_end_date"`
		}{
			ID:            gameID,
			SeasonID:      s.ID,
			HomeTeamID:    f.HomeTeamID,
			AwayTeamID:    f.AwayTeamID,
			WeekNumber:    f.WeekNumber,
			IsFirstLeg:    f.IsFirstLeg,
			Status:        string(game.StatusScheduled),
			ScheduledTime: f.GameStartTime,
			WeekStartDate: f.WeekStartDate,
			WeekEndDate:   f.WeekEndDate,
		}

		query, args, err := qb.InsertModel("games", gameInsertModel, "")
		if err != nil {
			return "", nil, nil, fmt.Errorf("build insert game query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return "", nil, nil, fmt.Errorf("insert scheduled game id=%s: %w", gameID, err)
		}

		gameIDs = append(gameIDs, gameID)
	}

	for _, teamID := range teamIDs {
		standingInsertModel := struct {
			SeasonID string `db:"season_id"`
			TeamID   string `db:"team_id"`
		}{s.ID, teamID}

		query, args, err := qb.InsertModel("standings", standingInsertModel, "ON CONFLICT (season_id, team_id) DO NOTHING")
		if err != nil {
			return "", nil, nil, fmt.Errorf("build bootstrap standing query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return "", nil, nil, fmt.Errorf("bootstrap standing season_id=%s team_id=%s: %w", s.ID, teamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", nil, nil, fmt.Errorf("commit create season with schedule tx: %w", err)
	}

	return s.ID, teamIDs, gameIDs, nil
}

func (r *SeasonRepository) SetActive(ctx context.Context, seasonID string, active bool) error {
	query, args, err := qb.Update("seasons").
		Set("is_active", active).
		Where(qb.Eq("id", seasonID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set active season query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set season active id=%s: %w", seasonID, err)
	}

	return nil
}

func mapSeasonRow(row seasonTableModel) season.Season {
	return season.Season{
		ID:                    row.ID,
		LeagueID:              row.LeagueID,
		StartDate:             row.StartDate,
		GameDurationMinutes:   row.GameDurationMinutes,
		EvaluationCron:        nullStringToString(row.EvaluationCron),
		EvaluationTimezone:    nullStringToString(row.EvaluationTimezone),
		AutoEvaluationEnabled: row.AutoEvaluationEnabled,
		IsActive:              row.IsActive,
	}
}
