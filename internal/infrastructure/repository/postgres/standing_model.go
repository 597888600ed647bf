package postgres

import "database/sql"

type standingTableModel struct {
	SeasonID    string        `db:"season_id"`
	TeamID      string        `db:"team_id"`
	GamesPlayed int           `db:"games_played"`
	Wins        int           `db:"wins"`
	Draws       int           `db:"draws"`
	Losses      int           `db:"losses"`
	Points      sql.NullInt64 `db:"points"`
	Position    int           `db:"position"`
}
