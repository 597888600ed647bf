package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vitalabs/competition-engine/internal/domain/game"
	"github.com/vitalabs/competition-engine/internal/domain/scoreevent"
	qb "github.com/vitalabs/competition-engine/internal/platform/querybuilder"
)

type ScoreEventRepository struct {
	db *sqlx.DB
}

func NewScoreEventRepository(db *sqlx.DB) *ScoreEventRepository {
	return &ScoreEventRepository{db: db}
}

func (r *ScoreEventRepository) Append(ctx context.Context, e scoreevent.ScoreEvent) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	insertModel := scoreEventTableModel{
		ID:             e.ID,
		GameID:         e.GameID,
		UserID:         e.UserID,
		Username:       e.Username,
		TeamID:         e.TeamID,
		TeamSide:       string(e.TeamSide),
		ScorePoints:    e.ScorePoints,
		StaminaGained:  e.StaminaGained,
		StrengthGained: e.StrengthGained,
		OccurredAt:     e.OccurredAt,
	}

	query, args, err := qb.InsertModel("score_events", insertModel, "")
	if err != nil {
		return "", fmt.Errorf("build insert score event query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert score event: %w", err)
	}

	return e.ID, nil
}

func (r *ScoreEventRepository) ListByGame(ctx context.Context, gameID string) ([]scoreevent.ScoreEvent, error) {
	query, args, err := qb.Select("*").From("score_events").
		Where(qb.Eq("game_id", gameID)).
		OrderBy("occurred_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list score events by game query: %w", err)
	}

	var rows []scoreEventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select score events by game: %w", err)
	}

	out := make([]scoreevent.ScoreEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapScoreEventRow(row))
	}

	return out, nil
}

func (r *ScoreEventRepository) ListDailyTotalsByUser(ctx context.Context, userID string, days int) (map[string]int, error) {
	query, args, err := qb.Select(
		"to_char(occurred_at, 'YYYY-MM-DD') AS day",
		"SUM(stamina_gained + strength_gained) AS total",
	).From("score_events").
		Where(
			qb.Eq("user_id", userID),
			qb.Expr("occurred_at >= now() - (?::text || ' days')::interval", days),
		).
		GroupBy("day").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build daily totals query: %w", err)
	}

	var rows []struct {
		Day   string `db:"day"`
		Total int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select daily totals: %w", err)
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Day] = row.Total
	}

	return out, nil
}

func mapScoreEventRow(row scoreEventTableModel) scoreevent.ScoreEvent {
	return scoreevent.ScoreEvent{
		ID:             row.ID,
		GameID:         row.GameID,
		UserID:         row.UserID,
		Username:       row.Username,
		TeamID:         row.TeamID,
		TeamSide:       game.TeamSide(row.TeamSide),
		ScorePoints:    row.ScorePoints,
		StaminaGained:  row.StaminaGained,
		StrengthGained: row.StrengthGained,
		OccurredAt:     row.OccurredAt,
	}
}
