package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitalabs/competition-engine/internal/domain/scoreevent"
)

type ScoreEventRepository struct {
	mu        sync.RWMutex
	byGame    map[string][]scoreevent.ScoreEvent
	byUserDay map[string]map[string]int // userID -> "YYYY-MM-DD" -> total
}

func NewScoreEventRepository() *ScoreEventRepository {
	return &ScoreEventRepository{
		byGame:    make(map[string][]scoreevent.ScoreEvent),
		byUserDay: make(map[string]map[string]int),
	}
}

func (r *ScoreEventRepository) Append(_ context.Context, e scoreevent.ScoreEvent) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	r.byGame[e.GameID] = append(r.byGame[e.GameID], e)

	day := e.OccurredAt.UTC().Format("2006-01-02")
	days, ok := r.byUserDay[e.UserID]
	if !ok {
		days = make(map[string]int)
		r.byUserDay[e.UserID] = days
	}
	days[day] += e.StaminaGained + e.StrengthGained

	return e.ID, nil
}

func (r *ScoreEventRepository) ListByGame(_ context.Context, gameID string) ([]scoreevent.ScoreEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.byGame[gameID]
	out := make([]scoreevent.ScoreEvent, 0, len(events))
	out = append(out, events...)

	return out, nil
}

func (r *ScoreEventRepository) ListDailyTotalsByUser(_ context.Context, userID string, days int) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")

	out := make(map[string]int)
	for day, total := range r.byUserDay[userID] {
		if day < cutoff {
			continue
		}
		out[day] = total
	}

	return out, nil
}
