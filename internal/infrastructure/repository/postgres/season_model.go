package postgres

import (
	"database/sql"
	"time"
)

type seasonTableModel struct {
	ID                    string         `db:"id"`
	LeagueID              string         `db:"league_id"`
	StartDate             time.Time      `db:"start_date"`
	GameDurationMinutes   int            `db:"game_duration_minutes"`
	EvaluationCron        sql.NullString `db:"evaluation_cron"`
	EvaluationTimezone    sql.NullString `db:"evaluation_timezone"`
	AutoEvaluationEnabled bool           `db:"auto_evaluation_enabled"`
	IsActive              bool           `db:"is_active"`
}
