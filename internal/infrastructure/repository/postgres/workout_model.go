package postgres

import "time"

type workoutTableModel struct {
	ID             string    `db:"id"`
	UserID         string    `db:"user_id"`
	DeviceID       string    `db:"device_id"`
	WorkoutUUID    string    `db:"workout_uuid"`
	StartTime      time.Time `db:"start_time"`
	EndTime        time.Time `db:"end_time"`
	Calories       int       `db:"calories"`
	HRSamples      string    `db:"hr_samples"`
	DurationMin    float64   `db:"duration_min"`
	StaminaGained  int       `db:"stamina_gained"`
	StrengthGained int       `db:"strength_gained"`
	ZoneBreakdown  string    `db:"zone_breakdown"`
	AvgHeartRate   int       `db:"avg_heart_rate"`
	MaxHeartRate   int       `db:"max_heart_rate"`
	MinHeartRate   int       `db:"min_heart_rate"`
	IsDuplicate    bool      `db:"is_duplicate"`
	Visibility     string    `db:"visibility"`
	CreatedAt      time.Time `db:"created_at"`
}
