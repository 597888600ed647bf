package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vitalabs/competition-engine/internal/domain/healthprofile"
	"github.com/vitalabs/competition-engine/internal/domain/workout"
	"github.com/vitalabs/competition-engine/internal/domain/zonescore"
	"github.com/vitalabs/competition-engine/internal/infrastructure/repository/memory"
)

func newWorkoutServiceDeps() (*memory.WorkoutRepository, *memory.HealthProfileRepository) {
	return memory.NewWorkoutRepository(), memory.NewHealthProfileRepository()
}

func TestWorkoutService_UploadWorkout_RejectsExactUUIDDuplicate(t *testing.T) {
	t.Parallel()

	workouts, profiles := newWorkoutServiceDeps()
	svc := NewWorkoutService(workouts, profiles, "", nil, nil, NewNoopEventPublisher(), nil)

	start := time.Now().UTC()
	in := UploadWorkoutInput{UserID: "user-1", WorkoutUUID: "uuid-1", Start: start, End: start.Add(20 * time.Minute)}

	if _, err := svc.UploadWorkout(context.Background(), in); err != nil {
		t.Fatalf("first upload error: %v", err)
	}

	_, err := svc.UploadWorkout(context.Background(), in)
	if !errors.Is(err, ErrDuplicateUUID) {
		t.Fatalf("expected ErrDuplicateUUID, got %v", err)
	}
}

func TestWorkoutService_UploadWorkout_OverlappingWindowIsSoftDuplicate(t *testing.T) {
	t.Parallel()

	workouts, profiles := newWorkoutServiceDeps()
	svc := NewWorkoutService(workouts, profiles, "", nil, nil, NewNoopEventPublisher(), nil)

	start := time.Now().UTC()
	first := UploadWorkoutInput{UserID: "user-1", WorkoutUUID: "uuid-1", Start: start, End: start.Add(20 * time.Minute)}
	if _, err := svc.UploadWorkout(context.Background(), first); err != nil {
		t.Fatalf("first upload error: %v", err)
	}

	second := UploadWorkoutInput{UserID: "user-1", WorkoutUUID: "uuid-2", Start: start.Add(time.Minute), End: start.Add(21 * time.Minute)}
	result, err := svc.UploadWorkout(context.Background(), second)
	if err != nil {
		t.Fatalf("second upload error: %v", err)
	}
	if !result.IsDuplicate {
		t.Fatalf("expected overlapping upload to be flagged as duplicate, got %+v", result)
	}

	stored, ok, err := workouts.GetByID(context.Background(), result.Workout.ID)
	if err != nil || !ok {
		t.Fatalf("get stored workout: ok=%v err=%v", ok, err)
	}
	if !stored.IsDuplicate {
		t.Fatalf("expected stored workout to carry is_duplicate=true")
	}
}

func TestWorkoutService_UploadWorkout_ScoresAgainstHealthProfile(t *testing.T) {
	t.Parallel()

	workouts, profiles := newWorkoutServiceDeps()
	if err := profiles.Upsert(context.Background(), healthprofile.HealthProfile{UserID: "user-1", Age: 30, RestingHR: 60, MaxHR: 190}); err != nil {
		t.Fatalf("upsert profile: %v", err)
	}

	svc := NewWorkoutService(workouts, profiles, "", nil, nil, NewNoopEventPublisher(), nil)

	start := time.Now().UTC()
	samples := make([]zonescore.Sample, 0, 600)
	for i := 0; i < 600; i++ {
		samples = append(samples, zonescore.Sample{Timestamp: start.Add(time.Duration(i) * time.Second), BPM: 138})
	}

	in := UploadWorkoutInput{UserID: "user-1", WorkoutUUID: "uuid-1", Start: start, End: start.Add(10 * time.Minute), HRSamples: samples}
	result, err := svc.UploadWorkout(context.Background(), in)
	if err != nil {
		t.Fatalf("upload error: %v", err)
	}
	if result.Workout.StaminaGained == 0 {
		t.Fatalf("expected nonzero stamina gained, got %+v", result.Workout)
	}

	stored, ok, err := workouts.GetByID(context.Background(), result.Workout.ID)
	if err != nil || !ok {
		t.Fatalf("get stored workout: ok=%v err=%v", ok, err)
	}
	if stored.StaminaGained != result.Workout.StaminaGained {
		t.Fatalf("expected persisted scoring to match returned result, stored=%+v result=%+v", stored, result.Workout)
	}
}

func TestWorkoutService_UploadWorkout_DropsNonMonotonicSamplesBeforeStorage(t *testing.T) {
	t.Parallel()

	workouts, profiles := newWorkoutServiceDeps()
	svc := NewWorkoutService(workouts, profiles, "", nil, nil, NewNoopEventPublisher(), nil)

	start := time.Now().UTC()
	samples := []zonescore.Sample{
		{Timestamp: start, BPM: 100},
		{Timestamp: start.Add(-time.Second), BPM: 105}, // out of order, must be dropped
		{Timestamp: start, BPM: 110},                   // duplicate timestamp, must be dropped
		{Timestamp: start.Add(time.Second), BPM: 120},
	}

	in := UploadWorkoutInput{UserID: "user-1", WorkoutUUID: "uuid-1", Start: start, End: start.Add(time.Minute), HRSamples: samples}
	result, err := svc.UploadWorkout(context.Background(), in)
	if err != nil {
		t.Fatalf("upload error: %v", err)
	}

	stored, ok, err := workouts.GetByID(context.Background(), result.Workout.ID)
	if err != nil || !ok {
		t.Fatalf("get stored workout: ok=%v err=%v", ok, err)
	}
	if len(stored.HRSamples) != 2 {
		t.Fatalf("expected 2 monotonic samples persisted, got %d: %+v", len(stored.HRSamples), stored.HRSamples)
	}
	if stored.HRSamples[0].BPM != 100 || stored.HRSamples[1].BPM != 120 {
		t.Fatalf("unexpected persisted samples: %+v", stored.HRSamples)
	}
}

func TestWorkoutService_UploadWorkout_MissingHealthProfileScoresZeroNotError(t *testing.T) {
	t.Parallel()

	workouts, profiles := newWorkoutServiceDeps()
	svc := NewWorkoutService(workouts, profiles, "", nil, nil, NewNoopEventPublisher(), nil)

	start := time.Now().UTC()
	in := UploadWorkoutInput{UserID: "user-1", WorkoutUUID: "uuid-1", Start: start, End: start.Add(10 * time.Minute)}

	result, err := svc.UploadWorkout(context.Background(), in)
	if err != nil {
		t.Fatalf("upload error: %v", err)
	}
	if result.Workout.StaminaGained != 0 || result.Workout.StrengthGained != 0 {
		t.Fatalf("expected zero scoring with no health profile on file, got %+v", result.Workout)
	}
}

func TestWorkoutService_UploadWorkout_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	workouts, profiles := newWorkoutServiceDeps()
	svc := NewWorkoutService(workouts, profiles, "", nil, nil, NewNoopEventPublisher(), nil)

	start := time.Now().UTC()
	in := UploadWorkoutInput{UserID: "user-1", WorkoutUUID: "uuid-1", Start: start, End: start.Add(-time.Minute)}

	_, err := svc.UploadWorkout(context.Background(), in)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for end before start, got %v", err)
	}
}

func TestWorkoutService_CheckSyncStatus_ReturnsOnlyUnsyncedUUIDs(t *testing.T) {
	t.Parallel()

	workouts, profiles := newWorkoutServiceDeps()
	svc := NewWorkoutService(workouts, profiles, "", nil, nil, NewNoopEventPublisher(), nil)

	start := time.Now().UTC()
	if _, err := svc.UploadWorkout(context.Background(), UploadWorkoutInput{
		UserID: "user-1", WorkoutUUID: "uuid-synced", Start: start, End: start.Add(time.Minute),
	}); err != nil {
		t.Fatalf("seed upload error: %v", err)
	}

	unsynced, err := svc.CheckSyncStatus(context.Background(), "user-1", []workout.SyncCheckItem{
		{UUID: "uuid-synced"},
		{UUID: "uuid-missing"},
	})
	if err != nil {
		t.Fatalf("CheckSyncStatus error: %v", err)
	}
	if len(unsynced) != 1 || unsynced[0] != "uuid-missing" {
		t.Fatalf("expected only uuid-missing to be unsynced, got %+v", unsynced)
	}
}

func TestWorkoutService_CheckSyncStatus_RejectsMissingUserID(t *testing.T) {
	t.Parallel()

	workouts, profiles := newWorkoutServiceDeps()
	svc := NewWorkoutService(workouts, profiles, "", nil, nil, NewNoopEventPublisher(), nil)

	_, err := svc.CheckSyncStatus(context.Background(), "", nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing user id, got %v", err)
	}
}
