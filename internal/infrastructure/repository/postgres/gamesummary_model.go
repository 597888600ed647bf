package postgres

import "database/sql"

type gameSummaryTableModel struct {
	GameID                string         `db:"game_id"`
	SeasonID              string         `db:"season_id"`
	HomeTeamID            string         `db:"home_team_id"`
	HomeTotalScore        int            `db:"home_total_score"`
	HomeAvgScorePerPlayer float64        `db:"home_avg_score_per_player"`
	HomeTotalWorkouts     int            `db:"home_total_workouts"`
	HomeTopScorerUserID   sql.NullString `db:"home_top_scorer_user_id"`
	HomeLowestUserID      sql.NullString `db:"home_lowest_user_id"`
	AwayTeamID            string         `db:"away_team_id"`
	AwayTotalScore        int            `db:"away_total_score"`
	AwayAvgScorePerPlayer float64        `db:"away_avg_score_per_player"`
	AwayTotalWorkouts     int            `db:"away_total_workouts"`
	AwayTopScorerUserID   sql.NullString `db:"away_top_scorer_user_id"`
	AwayLowestUserID      sql.NullString `db:"away_lowest_user_id"`
	FinalHomeScore        int            `db:"final_home_score"`
	FinalAwayScore        int            `db:"final_away_score"`
	WinnerTeamID          sql.NullString `db:"winner_team_id"`
	MVPUserID             string         `db:"mvp_user_id"`
	LVPUserID             string         `db:"lvp_user_id"`
}
