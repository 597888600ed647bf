package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/vitalabs/competition-engine/internal/domain/healthprofile"
	"github.com/vitalabs/competition-engine/internal/domain/workout"
	"github.com/vitalabs/competition-engine/internal/domain/zonescore"
	"github.com/vitalabs/competition-engine/internal/platform/logging"
)

const (
	// DefaultOverlapTolerance is the ±15s window used to detect a duplicate
	// upload of the same activity under a different workout_uuid.
	DefaultOverlapTolerance = 15 * time.Second
)

// ErrDuplicateUUID signals that the exact workout_uuid was already
// ingested for this user. It is a Validation-kind failure: no retry,
// surfaced straight to the caller.
var ErrDuplicateUUID = fmt.Errorf("%w: workout_uuid already ingested", ErrConflict)

// UploadWorkoutInput is the ingest request behind POST /workouts/upload.
type UploadWorkoutInput struct {
	UserID      string
	Username    string
	DeviceID    string
	WorkoutUUID string
	Start       time.Time
	End         time.Time
	Calories    int
	HRSamples   []zonescore.Sample
	Visibility  workout.Visibility
}

// UploadWorkoutResult is what the caller gets back: the stored workout plus
// the scoring stats it was credited (possibly zero, if scoring failed).
type UploadWorkoutResult struct {
	Workout     workout.Workout
	IsDuplicate bool
}

// WorkoutService validates and ingests a workout upload, scores it against
// the user's health profile, and hands the result off for live game
// attribution. Scoring and attribution failures are logged, never
// surfaced — the workout insert, once committed, is never rolled back.
type WorkoutService struct {
	workoutRepo       workout.Repository
	healthProfileRepo healthprofile.Repository
	strategyKind      string
	rates             zonescore.ScoringRates
	attributor        *AttributionService
	bus               EventPublisher
	logger            *logging.Logger
	now               func() time.Time
	tolerance         time.Duration
}

func NewWorkoutService(
	workoutRepo workout.Repository,
	healthProfileRepo healthprofile.Repository,
	strategyKind string,
	rates zonescore.ScoringRates,
	attributor *AttributionService,
	bus EventPublisher,
	logger *logging.Logger,
) *WorkoutService {
	if bus == nil {
		bus = NewNoopEventPublisher()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if rates == nil {
		rates = zonescore.DefaultScoringRates()
	}

	return &WorkoutService{
		workoutRepo:       workoutRepo,
		healthProfileRepo: healthProfileRepo,
		strategyKind:      strategyKind,
		rates:             rates,
		attributor:        attributor,
		bus:               bus,
		logger:            logger,
		now:               time.Now,
		tolerance:         DefaultOverlapTolerance,
	}
}

// UploadWorkout runs the full ingest pipeline: validate, dedup check,
// insert, score, attribute, publish.
func (s *WorkoutService) UploadWorkout(ctx context.Context, in UploadWorkoutInput) (UploadWorkoutResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WorkoutService.UploadWorkout")
	defer span.End()

	w := workout.Workout{
		UserID:      in.UserID,
		DeviceID:    in.DeviceID,
		WorkoutUUID: in.WorkoutUUID,
		Start:       in.Start,
		End:         in.End,
		Calories:    in.Calories,
		HRSamples:   zonescore.FilterMonotonic(in.HRSamples),
		DurationMin: in.End.Sub(in.Start).Minutes(),
		Visibility:  in.Visibility,
	}
	if w.Visibility == "" {
		w.Visibility = workout.VisibilityPublic
	}
	if err := w.Validate(); err != nil {
		return UploadWorkoutResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	isDuplicate, err := s.checkDuplicate(ctx, w)
	if err != nil {
		return UploadWorkoutResult{}, err
	}
	w.IsDuplicate = isDuplicate

	id, err := s.workoutRepo.Insert(ctx, w)
	if err != nil {
		return UploadWorkoutResult{}, fmt.Errorf("insert workout: %w", err)
	}
	w.ID = id

	if isDuplicate {
		s.logger.InfoContext(ctx, "workout ingested as duplicate", "workout_id", id, "user_id", in.UserID)
		return UploadWorkoutResult{Workout: w, IsDuplicate: true}, nil
	}

	s.scoreAndAttribute(ctx, &w, in.Username)

	s.bus.PublishToUser(ctx, in.UserID, EventWorkoutProcessed, workoutProcessedPayload{
		WorkoutID:      w.ID,
		UserID:         w.UserID,
		StaminaGained:  w.StaminaGained,
		StrengthGained: w.StrengthGained,
		DurationMin:    w.DurationMin,
		ZoneBreakdown:  w.ZoneBreakdown,
	})

	return UploadWorkoutResult{Workout: w, IsDuplicate: false}, nil
}

// checkDuplicate applies the two-tier dedup policy: an exact
// workout_uuid match is a hard Conflict; an overlapping time window under a
// different uuid is a soft duplicate that still gets stored, with
// is_duplicate=true and no downstream scoring/attribution.
func (s *WorkoutService) checkDuplicate(ctx context.Context, w workout.Workout) (bool, error) {
	_, exists, err := s.workoutRepo.GetByUserAndUUID(ctx, w.UserID, w.WorkoutUUID)
	if err != nil {
		return false, fmt.Errorf("check exact duplicate: %w", err)
	}
	if exists {
		return false, ErrDuplicateUUID
	}

	overlapping, err := s.workoutRepo.FindOverlappingByTime(ctx, w.UserID, w.Start, w.End, s.tolerance)
	if err != nil {
		return false, fmt.Errorf("check overlapping duplicate: %w", err)
	}

	return len(overlapping) > 0, nil
}

// scoreAndAttribute scores the workout and hands it to C3. Scoring failures
// leave the workout persisted with zero stats, logged, never surfaced
//: the scorer is pure and only a programmer error (e.g. a
// missing health profile) can make this path fail.
func (s *WorkoutService) scoreAndAttribute(ctx context.Context, w *workout.Workout, username string) {
	profile, ok, err := s.healthProfileRepo.GetByUserID(ctx, w.UserID)
	if err != nil {
		s.logger.ErrorContext(ctx, "load health profile failed, workout scored as zero", "workout_id", w.ID, "user_id", w.UserID, "error", err)
		return
	}
	if !ok {
		s.logger.WarnContext(ctx, "no health profile on file, workout scored as zero", "workout_id", w.ID, "user_id", w.UserID)
		return
	}

	strategy := zonescore.NewStrategy(s.strategyKind, s.rates)
	samples := w.HRSamples
	result := strategy.Score(zonescore.Profile{
		RestingHR: profile.RestingHR,
		MaxHR:     profile.MaxHR,
		ZoneThresholds: zonescore.Boundaries{
			Z1High: profile.ZoneThresholds.Z1High,
			Z2High: profile.ZoneThresholds.Z2High,
			Z3High: profile.ZoneThresholds.Z3High,
			Z4High: profile.ZoneThresholds.Z4High,
			MaxHR:  profile.MaxHR,
		},
	}, samples)

	w.StaminaGained = result.StaminaGained
	w.StrengthGained = result.StrengthGained
	w.ZoneBreakdown = result.ZoneBreakdown
	w.AvgHeartRate, w.MaxHeartRate, w.MinHeartRate = hrExtremes(samples)

	if err := s.workoutRepo.UpdateScoring(ctx, w.ID, *w); err != nil {
		s.logger.ErrorContext(ctx, "persist workout scoring failed", "workout_id", w.ID, "error", err)
		return
	}

	if s.attributor != nil {
		s.attributor.Attribute(ctx, AttributionContribution{
			UserID:         w.UserID,
			Username:       username,
			WorkoutID:      w.ID,
			StaminaGained:  w.StaminaGained,
			StrengthGained: w.StrengthGained,
		})
	}
}

// CheckSyncStatus returns the subset of uuids the server has not yet
// ingested for this user, behind POST /workouts/check-sync.
func (s *WorkoutService) CheckSyncStatus(ctx context.Context, userID string, items []workout.SyncCheckItem) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WorkoutService.CheckSyncStatus")
	defer span.End()

	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	uuids := make([]string, 0, len(items))
	for _, item := range items {
		uuids = append(uuids, item.UUID)
	}

	synced, err := s.workoutRepo.CheckSynced(ctx, userID, uuids)
	if err != nil {
		return nil, fmt.Errorf("check synced: %w", err)
	}

	unsynced := make([]string, 0, len(uuids))
	for _, u := range uuids {
		if !synced[u] {
			unsynced = append(unsynced, u)
		}
	}

	return unsynced, nil
}

func hrExtremes(samples []zonescore.Sample) (avg, max, min int) {
	if len(samples) == 0 {
		return 0, 0, 0
	}

	min = samples[0].BPM
	max = samples[0].BPM
	sum := 0
	for _, s := range samples {
		sum += s.BPM
		if s.BPM > max {
			max = s.BPM
		}
		if s.BPM < min {
			min = s.BPM
		}
	}

	return sum / len(samples), max, min
}

type workoutProcessedPayload struct {
	WorkoutID      string                   `json:"workout_id"`
	UserID         string                   `json:"user_id"`
	StaminaGained  int                      `json:"stamina_gained"`
	StrengthGained int                      `json:"strength_gained"`
	DurationMin    float64                  `json:"duration_minutes"`
	ZoneBreakdown  []zonescore.ZoneBreakdown `json:"zone_breakdown"`
}
