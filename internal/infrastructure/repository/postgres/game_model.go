package postgres

import (
	"database/sql"
	"time"
)

type gameTableModel struct {
	ID             string         `db:"id"`
	SeasonID       string         `db:"season_id"`
	HomeTeamID     string         `db:"home_team_id"`
	AwayTeamID     string         `db:"away_team_id"`
	WeekNumber     int            `db:"week_number"`
	IsFirstLeg     bool           `db:"is_first_leg"`
	Status         string         `db:"status"`
	ScheduledTime  time.Time      `db:"scheduled_time"`
	WeekStartDate  time.Time      `db:"week_start_date"`
	WeekEndDate    time.Time      `db:"week_end_date"`
	HomeScore      int            `db:"home_score"`
	AwayScore      int            `db:"away_score"`
	HomeScoreFinal int            `db:"home_score_final"`
	AwayScoreFinal int            `db:"away_score_final"`
	WinnerTeamID   sql.NullString `db:"winner_team_id"`
	GameStartTime  *time.Time     `db:"game_start_time"`
	GameEndTime    *time.Time     `db:"game_end_time"`
	LastScoreTime  *time.Time     `db:"last_score_time"`
	LastScorerUser sql.NullString `db:"last_scorer_user_id"`
	LastScorerTeam sql.NullString `db:"last_scorer_team"`
}
