package memory

import (
	"context"
	"sync"

	"github.com/vitalabs/competition-engine/internal/domain/gamesummary"
)

type GameSummaryRepository struct {
	mu   sync.RWMutex
	byID map[string]gamesummary.GameSummary
}

func NewGameSummaryRepository() *GameSummaryRepository {
	return &GameSummaryRepository{byID: make(map[string]gamesummary.GameSummary)}
}

func (r *GameSummaryRepository) Create(_ context.Context, s gamesummary.GameSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[s.GameID]; exists {
		return nil
	}
	r.byID[s.GameID] = s

	return nil
}

func (r *GameSummaryRepository) GetByGameID(_ context.Context, gameID string) (gamesummary.GameSummary, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[gameID]
	return s, ok, nil
}

func (r *GameSummaryRepository) ExistsForGame(_ context.Context, gameID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byID[gameID]
	return ok, nil
}
