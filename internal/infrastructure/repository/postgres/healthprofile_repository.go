package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vitalabs/competition-engine/internal/domain/healthprofile"
	qb "github.com/vitalabs/competition-engine/internal/platform/querybuilder"
)

type HealthProfileRepository struct {
	db *sqlx.DB
}

func NewHealthProfileRepository(db *sqlx.DB) *HealthProfileRepository {
	return &HealthProfileRepository{db: db}
}

func (r *HealthProfileRepository) GetByUserID(ctx context.Context, userID string) (healthprofile.HealthProfile, bool, error) {
	query, args, err := qb.Select("*").From("health_profiles").
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return healthprofile.HealthProfile{}, false, fmt.Errorf("build get health profile query: %w", err)
	}

	var row healthProfileTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return healthprofile.HealthProfile{}, false, nil
		}
		return healthprofile.HealthProfile{}, false, fmt.Errorf("get health profile: %w", err)
	}

	return mapHealthProfileRow(row), true, nil
}

func mapHealthProfileRow(row healthProfileTableModel) healthprofile.HealthProfile {
	return healthprofile.HealthProfile{
		UserID:    row.UserID,
		Age:       row.Age,
		Gender:    healthprofile.Gender(row.Gender),
		RestingHR: row.RestingHR,
		MaxHR:     row.MaxHR,
		ZoneThresholds: healthprofile.ZoneThresholds{
			Z1High: int(nullInt64ToInt64(row.Z1High)),
			Z2High: int(nullInt64ToInt64(row.Z2High)),
			Z3High: int(nullInt64ToInt64(row.Z3High)),
			Z4High: int(nullInt64ToInt64(row.Z4High)),
		},
	}
}

func (r *HealthProfileRepository) Upsert(ctx context.Context, profile healthprofile.HealthProfile) error {
	insertModel := struct {
		UserID    string `db:"user_id"`
		Age       int    `db:"age"`
		Gender    string `db:"gender"`
		RestingHR int    `db:"resting_hr"`
		MaxHR     int    `db:"max_hr"`
		Z1High    int    `db:"z1_high"`
		Z2High    int    `db:"z2_high"`
		Z3High    int    `db:"z3_high"`
		Z4High    int    `db:"z4_high"`
	}{
		UserID:    profile.UserID,
		Age:       profile.Age,
		Gender:    string(profile.Gender),
		RestingHR: profile.RestingHR,
		MaxHR:     profile.MaxHR,
		Z1High:    profile.ZoneThresholds.Z1High,
		Z2High:    profile.ZoneThresholds.Z2High,
		Z3High:    profile.ZoneThresholds.Z3High,
		Z4High:    profile.ZoneThresholds.Z4High,
	}

	query, args, err := qb.InsertModel("health_profiles", insertModel, `ON CONFLICT (user_id)
DO UPDATE SET
    age = EXCLUDED.age,
    gender = EXCLUDED.gender,
    resting_hr = EXCLUDED.resting_hr,
    max_hr = EXCLUDED.max_hr,
    z1_high = EXCLUDED.z1_high,
    z2_high = EXCLUDED.z2_high,
    z3_high = EXCLUDED.z3_high,
    z4_high = EXCLUDED.z4_high`)
	if err != nil {
		return fmt.Errorf("build upsert health profile query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert health profile user_id=%s: %w", profile.UserID, err)
	}

	return nil
}
