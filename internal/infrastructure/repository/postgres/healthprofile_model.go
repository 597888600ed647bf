package postgres

import "database/sql"

type healthProfileTableModel struct {
	UserID    string        `db:"user_id"`
	Age       int           `db:"age"`
	Gender    string        `db:"gender"`
	RestingHR int           `db:"resting_hr"`
	MaxHR     int           `db:"max_hr"`
	Z1High    sql.NullInt64 `db:"z1_high"`
	Z2High    sql.NullInt64 `db:"z2_high"`
	Z3High    sql.NullInt64 `db:"z3_high"`
	Z4High    sql.NullInt64 `db:"z4_high"`
}
