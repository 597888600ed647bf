package postgres

import "time"

type teamTableModel struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Color       string    `db:"color"`
	OwnerUserID string    `db:"owner_user_id"`
	SeasonID    string    `db:"season_id"`
	CreatedAt   time.Time `db:"created_at"`
}

type teamMemberTableModel struct {
	TeamID   string    `db:"team_id"`
	UserID   string    `db:"user_id"`
	Role     string    `db:"role"`
	Status   string    `db:"status"`
	JoinedAt time.Time `db:"joined_at"`
}

type playerPoolTableModel struct {
	UserID       string    `db:"user_id"`
	LastActiveAt time.Time `db:"last_active_at"`
}
