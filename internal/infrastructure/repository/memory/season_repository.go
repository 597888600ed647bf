package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vitalabs/competition-engine/internal/domain/game"
	"github.com/vitalabs/competition-engine/internal/domain/season"
	"github.com/vitalabs/competition-engine/internal/domain/team"
)

type SeasonRepository struct {
	mu       sync.RWMutex
	byID     map[string]season.Season
	byLeague map[string][]string // leagueID -> season IDs, insertion order

	teams     *TeamRepository
	games     *GameRepository
	standings *StandingRepository
}

// NewSeasonRepository takes the sibling repositories CreateWithSchedule
// writes to; in-memory storage has no shared transaction to coordinate
// across repository instances, so they are wired in directly.
func NewSeasonRepository(teams *TeamRepository, games *GameRepository, standings *StandingRepository) *SeasonRepository {
	return &SeasonRepository{
		byID:      make(map[string]season.Season),
		byLeague:  make(map[string][]string),
		teams:     teams,
		games:     games,
		standings: standings,
	}
}

func (r *SeasonRepository) List(_ context.Context) ([]season.Season, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]season.Season, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}

	return out, nil
}

func (r *SeasonRepository) GetByID(_ context.Context, seasonID string) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[seasonID]
	return s, ok, nil
}

func (r *SeasonRepository) GetActiveByLeague(_ context.Context, leagueID string) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.byLeague[leagueID] {
		s := r.byID[id]
		if s.IsActive {
			return s, true, nil
		}
	}

	return season.Season{}, false, nil
}

func (r *SeasonRepository) Create(_ context.Context, s season.Season) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	r.byID[s.ID] = s
	r.byLeague[s.LeagueID] = append(r.byLeague[s.LeagueID], s.ID)

	return s.ID, nil
}

// CreateWithSchedule inserts s, creates one team per roster entry against
// the new season id, generates the double round-robin schedule for that
// roster, creates one game per fixture, and bootstraps a standings row per
// team.
func (r *SeasonRepository) CreateWithSchedule(ctx context.Context, s season.Season, roster []team.Team) (string, []string, []string, error) {
	r.mu.Lock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	r.byID[s.ID] = s
	r.byLeague[s.LeagueID] = append(r.byLeague[s.LeagueID], s.ID)
	r.mu.Unlock()

	teamIDs := make([]string, 0, len(roster))
	for _, t := range roster {
		t.SeasonID = s.ID
		teamID, err := r.teams.Create(ctx, t)
		if err != nil {
			return "", nil, nil, fmt.Errorf("create team: %w", err)
		}
		teamIDs = append(teamIDs, teamID)
	}

	fixtures := season.GenerateSchedule(teamIDs, s.StartDate, s.GameDuration())

	gameIDs := make([]string, 0, len(fixtures))
	for _, f := range fixtures {
		g := game.Game{
			SeasonID:      s.ID,
			HomeTeamID:    f.HomeTeamID,
			AwayTeamID:    f.AwayTeamID,
			WeekNumber:    f.WeekNumber,
			IsFirstLeg:    f.IsFirstLeg,
			Status:        game.StatusScheduled,
			ScheduledTime: f.GameStartTime,
			WeekStartDate: f.WeekStartDate,
			WeekEndDate:   f.WeekEndDate,
		}

		gameID, err := r.games.Create(ctx, g)
		if err != nil {
			return "", nil, nil, fmt.Errorf("create scheduled game: %w", err)
		}
		gameIDs = append(gameIDs, gameID)
	}

	for _, teamID := range teamIDs {
		if err := r.standings.EnsureExists(ctx, s.ID, teamID); err != nil {
			return "", nil, nil, fmt.Errorf("bootstrap standing team_id=%s: %w", teamID, err)
		}
	}

	return s.ID, teamIDs, gameIDs, nil
}

func (r *SeasonRepository) SetActive(_ context.Context, seasonID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[seasonID]
	if !ok {
		return nil
	}
	s.IsActive = active
	r.byID[seasonID] = s

	return nil
}
