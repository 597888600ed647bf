package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/vitalabs/competition-engine/internal/domain/workout"
	"github.com/vitalabs/competition-engine/internal/domain/zonescore"
	"github.com/vitalabs/competition-engine/internal/usecase"
)

type hrSampleRequest struct {
	Timestamp time.Time `json:"timestamp" validate:"required"`
	BPM       int       `json:"bpm" validate:"required,gt=0"`
}

type uploadWorkoutRequest struct {
	DeviceID    string            `json:"device_id" validate:"required"`
	WorkoutUUID string            `json:"workout_uuid" validate:"required"`
	Start       time.Time         `json:"start" validate:"required"`
	End         time.Time         `json:"end" validate:"required"`
	Calories    int               `json:"calories" validate:"gte=0"`
	HRSamples   []hrSampleRequest `json:"hr_samples" validate:"dive"`
	Visibility  string            `json:"visibility" validate:"omitempty,oneof=public private"`
}

type uploadWorkoutResponse struct {
	WorkoutID   string                   `json:"workout_id"`
	IsDuplicate bool                     `json:"is_duplicate"`
	Stats       workoutStatsDTO          `json:"stats"`
}

type workoutStatsDTO struct {
	StaminaGained  int                       `json:"stamina_gained"`
	StrengthGained int                       `json:"strength_gained"`
	DurationMin    float64                   `json:"duration_minutes"`
	ZoneBreakdown  []zoneBreakdownDTO        `json:"zone_breakdown"`
	AvgHeartRate   int                       `json:"avg_heart_rate"`
	MaxHeartRate   int                       `json:"max_heart_rate"`
	MinHeartRate   int                       `json:"min_heart_rate"`
}

type zoneBreakdownDTO struct {
	Zone           string  `json:"zone"`
	Minutes        float64 `json:"minutes"`
	StaminaGained  int     `json:"stamina_gained"`
	StrengthGained int     `json:"strength_gained"`
	HRMin          int     `json:"hr_min"`
	HRMax          int     `json:"hr_max"`
}

type workoutDetailResponse struct {
	WorkoutID   string          `json:"workout_id"`
	UserID      string          `json:"user_id"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	Calories    int             `json:"calories"`
	IsDuplicate bool            `json:"is_duplicate"`
	Visibility  string          `json:"visibility"`
	Stats       workoutStatsDTO `json:"stats"`
}

type checkSyncItemRequest struct {
	UUID  string    `json:"uuid" validate:"required"`
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

type checkSyncRequest struct {
	Workouts []checkSyncItemRequest `json:"workouts" validate:"required,dive"`
}

type checkSyncResponse struct {
	Unsynced []string `json:"unsynced"`
}

// UploadWorkout is POST /workouts/upload.
func (h *Handler) UploadWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UploadWorkout")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: missing principal", usecase.ErrUnauthorized))
		return
	}

	var req uploadWorkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	samples := make([]zonescore.Sample, 0, len(req.HRSamples))
	for _, s := range req.HRSamples {
		samples = append(samples, zonescore.Sample{Timestamp: s.Timestamp, BPM: s.BPM})
	}

	visibility := workout.Visibility(req.Visibility)
	if visibility == "" {
		visibility = workout.VisibilityPublic
	}

	result, err := h.workoutService.UploadWorkout(ctx, usecase.UploadWorkoutInput{
		UserID:      principal.UserID,
		Username:    principal.Username,
		DeviceID:    req.DeviceID,
		WorkoutUUID: req.WorkoutUUID,
		Start:       req.Start,
		End:         req.End,
		Calories:    req.Calories,
		HRSamples:   samples,
		Visibility:  visibility,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, uploadWorkoutResponse{
		WorkoutID:   result.Workout.ID,
		IsDuplicate: result.IsDuplicate,
		Stats:       workoutToStatsDTO(result.Workout),
	})
}

// CheckSyncStatus is POST /workouts/check-sync.
func (h *Handler) CheckSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CheckSyncStatus")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: missing principal", usecase.ErrUnauthorized))
		return
	}

	var req checkSyncRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]workout.SyncCheckItem, 0, len(req.Workouts))
	for _, it := range req.Workouts {
		items = append(items, workout.SyncCheckItem{UUID: it.UUID, Start: it.Start, End: it.End})
	}

	unsynced, err := h.workoutService.CheckSyncStatus(ctx, principal.UserID, items)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, checkSyncResponse{Unsynced: unsynced})
}

// GetWorkout is GET /workouts/{id}.
func (h *Handler) GetWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWorkout")
	defer span.End()

	wk, err := h.loadWorkoutForCaller(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, workoutDetailResponse{
		WorkoutID:   wk.ID,
		UserID:      wk.UserID,
		Start:       wk.Start,
		End:         wk.End,
		Calories:    wk.Calories,
		IsDuplicate: wk.IsDuplicate,
		Visibility:  string(wk.Visibility),
		Stats:       workoutToStatsDTO(wk),
	})
}

// GetWorkoutScoringFeedback is GET /workouts/{id}/scoring-feedback — a
// read endpoint surfacing the same scoring breakdown a client would
// otherwise have to derive from the upload response.
func (h *Handler) GetWorkoutScoringFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWorkoutScoringFeedback")
	defer span.End()

	wk, err := h.loadWorkoutForCaller(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, workoutToStatsDTO(wk))
}

func (h *Handler) loadWorkoutForCaller(r *http.Request) (workout.Workout, error) {
	reqCtx := r.Context()
	principal, ok := principalFromContext(reqCtx)
	if !ok {
		return workout.Workout{}, fmt.Errorf("%w: missing principal", usecase.ErrUnauthorized)
	}

	id := r.PathValue("id")
	wk, found, err := h.workoutRepo.GetByID(reqCtx, id)
	if err != nil {
		return workout.Workout{}, fmt.Errorf("get workout: %w", err)
	}
	if !found {
		return workout.Workout{}, fmt.Errorf("%w: workout=%s", usecase.ErrNotFound, id)
	}
	if wk.UserID != principal.UserID && !principal.IsAdmin() {
		return workout.Workout{}, fmt.Errorf("%w: workout not owned by caller", usecase.ErrForbidden)
	}

	return wk, nil
}

func workoutToStatsDTO(wk workout.Workout) workoutStatsDTO {
	breakdown := make([]zoneBreakdownDTO, 0, len(wk.ZoneBreakdown))
	for _, z := range wk.ZoneBreakdown {
		breakdown = append(breakdown, zoneBreakdownDTO{
			Zone:           z.Zone.String(),
			Minutes:        z.Minutes,
			StaminaGained:  z.StaminaGained,
			StrengthGained: z.StrengthGained,
			HRMin:          z.HRMin,
			HRMax:          z.HRMax,
		})
	}

	return workoutStatsDTO{
		StaminaGained:  wk.StaminaGained,
		StrengthGained: wk.StrengthGained,
		DurationMin:    wk.DurationMin,
		ZoneBreakdown:  breakdown,
		AvgHeartRate:   wk.AvgHeartRate,
		MaxHeartRate:   wk.MaxHeartRate,
		MinHeartRate:   wk.MinHeartRate,
	}
}
