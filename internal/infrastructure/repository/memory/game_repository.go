package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitalabs/competition-engine/internal/domain/game"
)

type GameRepository struct {
	mu   sync.RWMutex
	byID map[string]game.Game
}

func NewGameRepository() *GameRepository {
	return &GameRepository{byID: make(map[string]game.Game)}
}

func (r *GameRepository) GetByID(_ context.Context, id string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	return g, ok, nil
}

func (r *GameRepository) ListBySeason(_ context.Context, seasonID string) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []game.Game
	for _, g := range r.byID {
		if g.SeasonID == seasonID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekNumber < out[j].WeekNumber })

	return out, nil
}

func (r *GameRepository) ListLive(_ context.Context, now time.Time) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []game.Game
	for _, g := range r.byID {
		if g.IsLiveAt(now) {
			out = append(out, g)
		}
	}

	return out, nil
}

func (r *GameRepository) ListActiveForTeams(_ context.Context, teamIDs []string, now time.Time) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]bool, len(teamIDs))
	for _, id := range teamIDs {
		set[id] = true
	}

	var out []game.Game
	for _, g := range r.byID {
		if !set[g.HomeTeamID] && !set[g.AwayTeamID] {
			continue
		}
		if g.IsLiveAt(now) {
			out = append(out, g)
		}
	}

	return out, nil
}

func (r *GameRepository) Create(_ context.Context, g game.Game) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = game.StatusScheduled
	}
	r.byID[g.ID] = g

	return g.ID, nil
}

func (r *GameRepository) ListDueToStart(_ context.Context, now time.Time) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []game.Game
	for _, g := range r.byID {
		if g.Status == game.StatusScheduled && g.GameStartTime != nil && !now.Before(*g.GameStartTime) {
			out = append(out, g)
		}
	}

	return out, nil
}

func (r *GameRepository) ListExpiredInProgress(_ context.Context, now time.Time) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []game.Game
	for _, g := range r.byID {
		if g.Status == game.StatusInProgress && !now.Before(g.WeekEndDate) {
			out = append(out, g)
		}
	}

	return out, nil
}

func (r *GameRepository) ListFinishedUnevaluated(_ context.Context) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []game.Game
	for _, g := range r.byID {
		if g.Status == game.StatusFinished {
			out = append(out, g)
		}
	}

	return out, nil
}

func (r *GameRepository) Start(_ context.Context, gameID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[gameID]
	if !ok {
		return nil
	}
	if g.Status == game.StatusInProgress {
		return nil
	}
	if !g.Status.CanTransition(game.StatusInProgress) {
		return nil
	}
	g.Status = game.StatusInProgress
	start := now
	end := now.Add(g.WeekEndDate.Sub(g.WeekStartDate))
	g.GameStartTime = &start
	g.GameEndTime = &end
	r.byID[gameID] = g

	return nil
}

func (r *GameRepository) Finish(_ context.Context, gameID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[gameID]
	if !ok {
		return nil
	}
	if g.Status == game.StatusFinished {
		return nil
	}
	if !g.Status.CanTransition(game.StatusFinished) {
		return nil
	}
	g.Status = game.StatusFinished
	r.byID[gameID] = g

	return nil
}

func (r *GameRepository) MarkEvaluated(_ context.Context, gameID string, homeFinal, awayFinal int, winnerTeamID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[gameID]
	if !ok {
		return nil
	}
	if g.Status == game.StatusEvaluated {
		return nil
	}
	if !g.Status.CanTransition(game.StatusEvaluated) {
		return nil
	}
	g.Status = game.StatusEvaluated
	g.HomeScoreFinal = homeFinal
	g.AwayScoreFinal = awayFinal
	g.WinnerTeamID = winnerTeamID
	r.byID[gameID] = g

	return nil
}

func (r *GameRepository) Postpone(_ context.Context, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[gameID]
	if !ok {
		return nil
	}
	if g.Status == game.StatusPostponed {
		return nil
	}
	if !g.Status.CanTransition(game.StatusPostponed) {
		return nil
	}
	g.Status = game.StatusPostponed
	r.byID[gameID] = g

	return nil
}

func (r *GameRepository) ApplyScoreDelta(_ context.Context, delta game.ScoreDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[delta.GameID]
	if !ok {
		return nil
	}
	switch delta.Side {
	case game.SideHome:
		g.HomeScore += delta.Delta
	case game.SideAway:
		g.AwayScore += delta.Delta
	}
	at := delta.At
	g.LastScoreTime = &at
	g.LastScorerUser = delta.ScorerUserID
	g.LastScorerTeam = delta.Side
	r.byID[delta.GameID] = g

	return nil
}
