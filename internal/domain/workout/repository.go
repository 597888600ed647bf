package workout

import (
	"context"
	"time"
)

// Repository is persistence for workouts. Insert and the duplicate-time
// lookup are separate operations because the ingestor must dedup before
// insert.
type Repository interface {
	Insert(ctx context.Context, w Workout) (string, error)
	GetByID(ctx context.Context, id string) (Workout, bool, error)
	GetByUserAndUUID(ctx context.Context, userID, workoutUUID string) (Workout, bool, error)
	FindOverlappingByTime(ctx context.Context, userID string, start, end time.Time, tolerance time.Duration) ([]Workout, error)
	UpdateScoring(ctx context.Context, id string, w Workout) error
	CheckSynced(ctx context.Context, userID string, uuids []string) (map[string]bool, error)
	ListByUser(ctx context.Context, userID string) ([]Workout, error)
	MarkDuplicate(ctx context.Context, ids []string) error
	Delete(ctx context.Context, ids []string) error
}
