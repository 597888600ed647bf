package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vitalabs/competition-engine/internal/domain/standing"
)

type StandingRepository struct {
	mu   sync.Mutex
	rows map[string]map[string]*standing.Standing // seasonID -> teamID -> row
}

func NewStandingRepository() *StandingRepository {
	return &StandingRepository{rows: make(map[string]map[string]*standing.Standing)}
}

func (r *StandingRepository) ListBySeason(_ context.Context, seasonID string) ([]standing.Standing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []standing.Standing
	for _, row := range r.rows[seasonID] {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })

	return out, nil
}

func (r *StandingRepository) EnsureExists(_ context.Context, seasonID, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	season, ok := r.rows[seasonID]
	if !ok {
		season = make(map[string]*standing.Standing)
		r.rows[seasonID] = season
	}
	if _, ok := season[teamID]; !ok {
		season[teamID] = &standing.Standing{SeasonID: seasonID, TeamID: teamID}
	}

	return nil
}

func (r *StandingRepository) RecordOutcome(_ context.Context, seasonID, teamID string, outcome standing.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	season, ok := r.rows[seasonID]
	if !ok {
		season = make(map[string]*standing.Standing)
		r.rows[seasonID] = season
	}
	row, ok := season[teamID]
	if !ok {
		row = &standing.Standing{SeasonID: seasonID, TeamID: teamID}
		season[teamID] = row
	}

	row.GamesPlayed++
	switch outcome {
	case standing.OutcomeWin:
		row.Wins++
	case standing.OutcomeDraw:
		row.Draws++
	case standing.OutcomeLoss:
		row.Losses++
	}
	points := row.Wins*3 + row.Draws
	row.Points = &points

	return nil
}

func (r *StandingRepository) UpdatePositions(_ context.Context, seasonID string, ordered []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	season, ok := r.rows[seasonID]
	if !ok {
		return nil
	}
	for idx, teamID := range ordered {
		if row, ok := season[teamID]; ok {
			row.Position = idx + 1
		}
	}

	return nil
}
