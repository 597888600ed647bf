package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vitalabs/competition-engine/internal/domain/standing"
	qb "github.com/vitalabs/competition-engine/internal/platform/querybuilder"
)

type StandingRepository struct {
	db *sqlx.DB
}

func NewStandingRepository(db *sqlx.DB) *StandingRepository {
	return &StandingRepository{db: db}
}

func (r *StandingRepository) ListBySeason(ctx context.Context, seasonID string) ([]standing.Standing, error) {
	query, args, err := qb.Select("*").From("standings").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("position").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list standings query: %w", err)
	}

	var rows []standingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select standings: %w", err)
	}

	out := make([]standing.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapStandingRow(row))
	}

	return out, nil
}

func (r *StandingRepository) EnsureExists(ctx context.Context, seasonID, teamID string) error {
	insertModel := struct {
		SeasonID string `db:"season_id"`
		TeamID   string `db:"team_id"`
	}{seasonID, teamID}

	query, args, err := qb.InsertModel("standings", insertModel, "ON CONFLICT (season_id, team_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build ensure standing exists query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("ensure standing exists season_id=%s team_id=%s: %w", seasonID, teamID, err)
	}

	return nil
}

func (r *StandingRepository) RecordOutcome(ctx context.Context, seasonID, teamID string, outcome standing.Outcome) error {
	builder := qb.Update("standings").
		SetExpr("games_played", "games_played + 1")

	switch outcome {
	case standing.OutcomeWin:
		builder = builder.SetExpr("wins", "wins + 1")
	case standing.OutcomeDraw:
		builder = builder.SetExpr("draws", "draws + 1")
	case standing.OutcomeLoss:
		builder = builder.SetExpr("losses", "losses + 1")
	}

	query, args, err := builder.
		SetExpr("points", "wins * 3 + draws").
		Where(qb.Eq("season_id", seasonID), qb.Eq("team_id", teamID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build record outcome query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record outcome season_id=%s team_id=%s: %w", seasonID, teamID, err)
	}

	return nil
}

func (r *StandingRepository) UpdatePositions(ctx context.Context, seasonID string, ordered []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx update positions: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for idx, teamID := range ordered {
		query, args, err := qb.Update("standings").
			Set("position", idx+1).
			Where(qb.Eq("season_id", seasonID), qb.Eq("team_id", teamID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update position query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update position season_id=%s team_id=%s: %w", seasonID, teamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update positions tx: %w", err)
	}

	return nil
}

func mapStandingRow(row standingTableModel) standing.Standing {
	var points *int
	if row.Points.Valid {
		v := int(row.Points.Int64)
		points = &v
	}

	return standing.Standing{
		SeasonID:    row.SeasonID,
		TeamID:      row.TeamID,
		GamesPlayed: row.GamesPlayed,
		Wins:        row.Wins,
		Draws:       row.Draws,
		Losses:      row.Losses,
		Points:      points,
		Position:    row.Position,
	}
}
