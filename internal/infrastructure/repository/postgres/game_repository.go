package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vitalabs/competition-engine/internal/domain/game"
	qb "github.com/vitalabs/competition-engine/internal/platform/querybuilder"
)

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) GetByID(ctx context.Context, id string) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game by id query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game by id: %w", err)
	}

	return mapGameRow(row), true, nil
}

func (r *GameRepository) ListBySeason(ctx context.Context, seasonID string) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("week_number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games by season query: %w", err)
	}

	return r.selectGames(ctx, query, args...)
}

func (r *GameRepository) ListLive(ctx context.Context, now time.Time) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("status", string(game.StatusInProgress)),
			qb.Expr("game_start_time <= ?", now),
			qb.Expr("game_end_time > ?", now),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list live games query: %w", err)
	}

	return r.selectGames(ctx, query, args...)
}

func (r *GameRepository) ListActiveForTeams(ctx context.Context, teamIDs []string, now time.Time) ([]game.Game, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("status", string(game.StatusInProgress)),
			qb.Expr("game_start_time <= ?", now),
			qb.Expr("game_end_time > ?", now),
			qb.Expr("(home_team_id = ANY(?) OR away_team_id = ANY(?))", pq.Array(teamIDs), pq.Array(teamIDs)),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active games for teams query: %w", err)
	}

	return r.selectGames(ctx, query, args...)
}

func (r *GameRepository) Create(ctx context.Context, g game.Game) (string, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = game.StatusScheduled
	}

	insertModel := struct {
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
		ID:            g.ID,
		SeasonID:      g.SeasonID,
		HomeTeamID:    g.HomeTeamID,
		AwayTeamID:    g.AwayTeamID,
		WeekNumber:    g.WeekNumber,
		IsFirstLeg:    g.IsFirstLeg,
		Status:        string(g.Status),
		ScheduledTime: g.ScheduledTime,
		WeekStartDate: g.WeekStartDate,
		WeekEndDate:   g.WeekEndDate,
	}

	query, args, err := qb.InsertModel("games", insertModel, "")
	if err != nil {
		return "", fmt.Errorf("build insert game query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert game: %w", err)
	}

	return g.ID, nil
}

func (r *GameRepository) ListDueToStart(ctx context.Context, now time.Time) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("status", string(game.StatusScheduled)),
			qb.Expr("scheduled_time <= ?", now),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games due to start query: %w", err)
	}

	return r.selectGames(ctx, query, args...)
}

func (r *GameRepository) ListExpiredInProgress(ctx context.Context, now time.Time) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("status", string(game.StatusInProgress)),
			qb.Expr("week_end_date <= ?", now),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list expired in-progress games query: %w", err)
	}

	return r.selectGames(ctx, query, args...)
}

func (r *GameRepository) ListFinishedUnevaluated(ctx context.Context) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.Eq("status", string(game.StatusFinished))).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list finished unevaluated games query: %w", err)
	}

	return r.selectGames(ctx, query, args...)
}

func (r *GameRepository) Start(ctx context.Context, gameID string, now time.Time) error {
	end := now.Add(24 * time.Hour)
	if g, ok, err := r.GetByID(ctx, gameID); err == nil && ok {
		end = now.Add(g.WeekEndDate.Sub(g.WeekStartDate))
	}

	query, args, err := qb.Update("games").
		Set("status", string(game.StatusInProgress)).
		Set("game_start_time", now).
		Set("game_end_time", end).
		Where(
			qb.Eq("id", gameID),
			qb.Eq("status", string(game.StatusScheduled)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build start game query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("start game id=%s: %w", gameID, err)
	}

	return nil
}

func (r *GameRepository) Finish(ctx context.Context, gameID string, now time.Time) error {
	query, args, err := qb.Update("games").
		Set("status", string(game.StatusFinished)).
		Where(
			qb.Eq("id", gameID),
			qb.Eq("status", string(game.StatusInProgress)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finish game query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("finish game id=%s: %w", gameID, err)
	}

	return nil
}

func (r *GameRepository) MarkEvaluated(ctx context.Context, gameID string, homeFinal, awayFinal int, winnerTeamID *string) error {
	builder := qb.Update("games").
		Set("status", string(game.StatusEvaluated)).
		Set("home_score_final", homeFinal).
		Set("away_score_final", awayFinal)
	if winnerTeamID != nil {
		builder = builder.Set("winner_team_id", *winnerTeamID)
	}

	query, args, err := builder.
		Where(
			qb.Eq("id", gameID),
			qb.Eq("status", string(game.StatusFinished)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark game evaluated query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark game evaluated id=%s: %w", gameID, err)
	}

	return nil
}

func (r *GameRepository) Postpone(ctx context.Context, gameID string) error {
	query, args, err := qb.Update("games").
		Set("status", string(game.StatusPostponed)).
		Where(
			qb.Eq("id", gameID),
			qb.Eq("status", string(game.StatusScheduled)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build postpone game query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("postpone game id=%s: %w", gameID, err)
	}

	return nil
}

func (r *GameRepository) ApplyScoreDelta(ctx context.Context, delta game.ScoreDelta) error {
	column := "home_score"
	if delta.Side == game.SideAway {
		column = "away_score"
	}

	query, args, err := qb.Update("games").
		SetExpr(column, column+" + ?", delta.Delta).
		Set("last_score_time", delta.At).
		Set("last_scorer_user_id", delta.ScorerUserID).
		Set("last_scorer_team", string(delta.Side)).
		Where(
			qb.Eq("id", delta.GameID),
			qb.Eq("status", string(game.StatusInProgress)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build apply score delta query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("apply score delta game_id=%s: %w", delta.GameID, err)
	}

	return nil
}

func (r *GameRepository) selectGames(ctx context.Context, query string, args ...any) ([]game.Game, error) {
	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapGameRow(row))
	}

	return out, nil
}

func mapGameRow(row gameTableModel) game.Game {
	var winnerTeamID *string
	if row.WinnerTeamID.Valid {
		v := row.WinnerTeamID.String
		winnerTeamID = &v
	}

	return game.Game{
		ID:             row.ID,
		SeasonID:       row.SeasonID,
		HomeTeamID:     row.HomeTeamID,
		AwayTeamID:     row.AwayTeamID,
		WeekNumber:     row.WeekNumber,
		IsFirstLeg:     row.IsFirstLeg,
		Status:         game.Status(row.Status),
		ScheduledTime:  row.ScheduledTime,
		WeekStartDate:  row.WeekStartDate,
		WeekEndDate:    row.WeekEndDate,
		HomeScore:      row.HomeScore,
		AwayScore:      row.AwayScore,
		HomeScoreFinal: row.HomeScoreFinal,
		AwayScoreFinal: row.AwayScoreFinal,
		WinnerTeamID:   winnerTeamID,
		GameStartTime:  row.GameStartTime,
		GameEndTime:    row.GameEndTime,
		LastScoreTime:  row.LastScoreTime,
		LastScorerUser: nullStringToString(row.LastScorerUser),
		LastScorerTeam: game.TeamSide(nullStringToString(row.LastScorerTeam)),
	}
}
