package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vitalabs/competition-engine/internal/domain/workout"
	"github.com/vitalabs/competition-engine/internal/domain/zonescore"
	qb "github.com/vitalabs/competition-engine/internal/platform/querybuilder"
)

type WorkoutRepository struct {
	db *sqlx.DB
}

func NewWorkoutRepository(db *sqlx.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

func (r *WorkoutRepository) Insert(ctx context.Context, w workout.Workout) (string, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}

	insertModel := workoutInsertModel{
		ID:             w.ID,
		UserID:         w.UserID,
		DeviceID:       w.DeviceID,
		WorkoutUUID:    w.WorkoutUUID,
		StartTime:      w.Start,
		EndTime:        w.End,
		Calories:       w.Calories,
		HRSamples:      encodeSamples(w.HRSamples),
		DurationMin:    w.DurationMin,
		StaminaGained:  w.StaminaGained,
		StrengthGained: w.StrengthGained,
		ZoneBreakdown:  encodeZoneBreakdown(w.ZoneBreakdown),
		AvgHeartRate:   w.AvgHeartRate,
		MaxHeartRate:   w.MaxHeartRate,
		MinHeartRate:   w.MinHeartRate,
		IsDuplicate:    w.IsDuplicate,
		Visibility:     string(w.Visibility),
	}

	query, args, err := qb.InsertModel("workouts", insertModel, "")
	if err != nil {
		return "", fmt.Errorf("build insert workout query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert workout: %w", err)
	}

	return w.ID, nil
}

type workoutInsertModel struct {
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
}

func (r *WorkoutRepository) GetByID(ctx context.Context, id string) (workout.Workout, bool, error) {
	query, args, err := qb.Select("*").From("workouts").Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return workout.Workout{}, false, fmt.Errorf("build get workout query: %w", err)
	}

	var row workoutTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return workout.Workout{}, false, nil
		}
		return workout.Workout{}, false, fmt.Errorf("get workout: %w", err)
	}

	return mapWorkoutRow(row), true, nil
}

func (r *WorkoutRepository) GetByUserAndUUID(ctx context.Context, userID, workoutUUID string) (workout.Workout, bool, error) {
	query, args, err := qb.Select("*").From("workouts").
		Where(qb.Eq("user_id", userID), qb.Eq("workout_uuid", workoutUUID)).
		ToSQL()
	if err != nil {
		return workout.Workout{}, false, fmt.Errorf("build get workout by uuid query: %w", err)
	}

	var row workoutTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return workout.Workout{}, false, nil
		}
		return workout.Workout{}, false, fmt.Errorf("get workout by uuid: %w", err)
	}

	return mapWorkoutRow(row), true, nil
}

func (r *WorkoutRepository) FindOverlappingByTime(ctx context.Context, userID string, start, end time.Time, tolerance time.Duration) ([]workout.Workout, error) {
	query, args, err := qb.Select("*").From("workouts").
		Where(
			qb.Eq("user_id", userID),
			qb.Expr("start_time < ?", end.Add(tolerance)),
			qb.Expr("end_time > ?", start.Add(-tolerance)),
		).
		OrderBy("start_time").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build overlap query: %w", err)
	}

	var rows []workoutTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select overlapping workouts: %w", err)
	}

	out := make([]workout.Workout, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapWorkoutRow(row))
	}

	return out, nil
}

func (r *WorkoutRepository) UpdateScoring(ctx context.Context, id string, w workout.Workout) error {
	query, args, err := qb.Update("workouts").
		Set("duration_min", w.DurationMin).
		Set("stamina_gained", w.StaminaGained).
		Set("strength_gained", w.StrengthGained).
		Set("zone_breakdown", encodeZoneBreakdown(w.ZoneBreakdown)).
		Set("avg_heart_rate", w.AvgHeartRate).
		Set("max_heart_rate", w.MaxHeartRate).
		Set("min_heart_rate", w.MinHeartRate).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update workout scoring query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update workout scoring id=%s: %w", id, err)
	}

	return nil
}

func (r *WorkoutRepository) CheckSynced(ctx context.Context, userID string, uuids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(uuids))
	if len(uuids) == 0 {
		return out, nil
	}

	values := make([]any, len(uuids))
	for i, u := range uuids {
		values[i] = u
		out[u] = false
	}

	query, args, err := qb.Select("workout_uuid").From("workouts").
		Where(qb.Eq("user_id", userID), qb.In("workout_uuid", values)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build check synced query: %w", err)
	}

	var found []string
	if err := r.db.SelectContext(ctx, &found, query, args...); err != nil {
		return nil, fmt.Errorf("select synced uuids: %w", err)
	}
	for _, u := range found {
		out[u] = true
	}

	return out, nil
}

func (r *WorkoutRepository) ListByUser(ctx context.Context, userID string) ([]workout.Workout, error) {
	query, args, err := qb.Select("*").From("workouts").
		Where(qb.Eq("user_id", userID)).
		OrderBy("start_time DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list workouts by user query: %w", err)
	}

	var rows []workoutTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select workouts by user: %w", err)
	}

	out := make([]workout.Workout, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapWorkoutRow(row))
	}

	return out, nil
}

func (r *WorkoutRepository) MarkDuplicate(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}

	query, args, err := qb.Update("workouts").
		Set("is_duplicate", true).
		Where(qb.In("id", values)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark duplicate query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark workouts duplicate: %w", err)
	}

	return nil
}

func (r *WorkoutRepository) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}

	deleteQuery := fmt.Sprintf("DELETE FROM workouts WHERE id IN (%s)", placeholdersFor(len(ids)))
	if _, err := r.db.ExecContext(ctx, deleteQuery, values...); err != nil {
		return fmt.Errorf("delete workouts: %w", err)
	}

	return nil
}

func placeholdersFor(n int) string {
	out := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			out += ", "
		}
		out += fmt.Sprintf("$%d", i)
	}
	return out
}

func mapWorkoutRow(row workoutTableModel) workout.Workout {
	return workout.Workout{
		ID:             row.ID,
		UserID:         row.UserID,
		DeviceID:       row.DeviceID,
		WorkoutUUID:    row.WorkoutUUID,
		Start:          row.StartTime,
		End:            row.EndTime,
		Calories:       row.Calories,
		HRSamples:      decodeSamples(row.HRSamples),
		DurationMin:    row.DurationMin,
		StaminaGained:  row.StaminaGained,
		StrengthGained: row.StrengthGained,
		ZoneBreakdown:  decodeZoneBreakdown(row.ZoneBreakdown),
		AvgHeartRate:   row.AvgHeartRate,
		MaxHeartRate:   row.MaxHeartRate,
		MinHeartRate:   row.MinHeartRate,
		IsDuplicate:    row.IsDuplicate,
		Visibility:     workout.Visibility(row.Visibility),
		CreatedAt:      row.CreatedAt,
	}
}

func encodeSamples(samples []zonescore.Sample) string {
	if len(samples) == 0 {
		return "[]"
	}
	encoded, err := sonic.Marshal(samples)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

func decodeSamples(raw string) []zonescore.Sample {
	if raw == "" {
		return nil
	}
	var out []zonescore.Sample
	if err := sonic.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func encodeZoneBreakdown(breakdown []zonescore.ZoneBreakdown) string {
	if len(breakdown) == 0 {
		return "[]"
	}
	encoded, err := sonic.Marshal(breakdown)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

func decodeZoneBreakdown(raw string) []zonescore.ZoneBreakdown {
	if raw == "" {
		return nil
	}
	var out []zonescore.ZoneBreakdown
	if err := sonic.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
