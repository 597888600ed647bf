package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitalabs/competition-engine/internal/domain/workout"
)

type WorkoutRepository struct {
	mu       sync.RWMutex
	byID     map[string]workout.Workout
	byUserUUID map[string]string // userID|uuid -> workout id
}

func NewWorkoutRepository() *WorkoutRepository {
	return &WorkoutRepository{
		byID:       make(map[string]workout.Workout),
		byUserUUID: make(map[string]string),
	}
}

func syncKey(userID, workoutUUID string) string {
	return userID + "|" + workoutUUID
}

func (r *WorkoutRepository) Insert(_ context.Context, w workout.Workout) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.CreatedAt = time.Now().UTC()
	r.byID[w.ID] = w
	r.byUserUUID[syncKey(w.UserID, w.WorkoutUUID)] = w.ID

	return w.ID, nil
}

func (r *WorkoutRepository) GetByID(_ context.Context, id string) (workout.Workout, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.byID[id]
	return w, ok, nil
}

func (r *WorkoutRepository) GetByUserAndUUID(_ context.Context, userID, workoutUUID string) (workout.Workout, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUserUUID[syncKey(userID, workoutUUID)]
	if !ok {
		return workout.Workout{}, false, nil
	}
	w := r.byID[id]
	return w, true, nil
}

func (r *WorkoutRepository) FindOverlappingByTime(_ context.Context, userID string, start, end time.Time, tolerance time.Duration) ([]workout.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []workout.Workout
	for _, w := range r.byID {
		if w.UserID != userID {
			continue
		}
		wStart := w.Start.Add(-tolerance)
		wEnd := w.End.Add(tolerance)
		if start.Before(wEnd) && wStart.Before(end) {
			out = append(out, w)
		}
	}

	return out, nil
}

func (r *WorkoutRepository) UpdateScoring(_ context.Context, id string, w workout.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return nil
	}
	existing.DurationMin = w.DurationMin
	existing.StaminaGained = w.StaminaGained
	existing.StrengthGained = w.StrengthGained
	existing.ZoneBreakdown = w.ZoneBreakdown
	existing.AvgHeartRate = w.AvgHeartRate
	existing.MaxHeartRate = w.MaxHeartRate
	existing.MinHeartRate = w.MinHeartRate
	r.byID[id] = existing

	return nil
}

func (r *WorkoutRepository) CheckSynced(_ context.Context, userID string, uuids []string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(uuids))
	for _, u := range uuids {
		_, ok := r.byUserUUID[syncKey(userID, u)]
		out[u] = ok
	}

	return out, nil
}

func (r *WorkoutRepository) ListByUser(_ context.Context, userID string) ([]workout.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []workout.Workout
	for _, w := range r.byID {
		if w.UserID == userID {
			out = append(out, w)
		}
	}

	return out, nil
}

func (r *WorkoutRepository) MarkDuplicate(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if w, ok := r.byID[id]; ok {
			w.IsDuplicate = true
			r.byID[id] = w
		}
	}

	return nil
}

func (r *WorkoutRepository) Delete(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if w, ok := r.byID[id]; ok {
			delete(r.byUserUUID, syncKey(w.UserID, w.WorkoutUUID))
			delete(r.byID, id)
		}
	}

	return nil
}
