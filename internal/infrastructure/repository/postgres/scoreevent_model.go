package postgres

import "time"

type scoreEventTableModel struct {
	ID             string    `db:"id"`
	GameID         string    `db:"game_id"`
	UserID         string    `db:"user_id"`
	Username       string    `db:"username"`
	TeamID         string    `db:"team_id"`
	TeamSide       string    `db:"team_side"`
	ScorePoints    int       `db:"score_points"`
	StaminaGained  int       `db:"stamina_gained"`
	StrengthGained int       `db:"strength_gained"`
	OccurredAt     time.Time `db:"occurred_at"`
}
