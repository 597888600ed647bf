package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/vitalabs/competition-engine/internal/domain/season"
	"github.com/vitalabs/competition-engine/internal/domain/team"
	"github.com/vitalabs/competition-engine/internal/platform/logging"
)

// MinTeamsPerSeason is the smallest roster GenerateSchedule can turn into a
// double round-robin: below two teams there is no opponent to play.
const MinTeamsPerSeason = 2

// TeamSeed is one roster entry at season creation — a team to be created
// against the new season, not a pre-existing one.
type TeamSeed struct {
	Name        string
	Color       string
	OwnerUserID string
}

// CreateSeasonInput is the request behind the season-creation admin
// endpoint.
type CreateSeasonInput struct {
	LeagueID              string
	StartDate             time.Time
	GameDurationMinutes   int
	EvaluationCron        string
	EvaluationTimezone    string
	AutoEvaluationEnabled bool
	IsActive              bool
	Roster                []TeamSeed
}

// CreateSeasonResult is what the caller gets back: the ids created by the
// atomic season+roster+schedule+standings transaction.
type CreateSeasonResult struct {
	SeasonID string
	TeamIDs  []string
	GameIDs  []string
}

// SeasonService owns season creation: it turns a league and a team roster
// into a season row, the teams, a generated double round-robin schedule,
// and a zeroed standings table, in one atomic operation.
type SeasonService struct {
	seasonRepo season.Repository
	logger     *logging.Logger
}

func NewSeasonService(seasonRepo season.Repository, logger *logging.Logger) *SeasonService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SeasonService{seasonRepo: seasonRepo, logger: logger}
}

// CreateSeason validates in and delegates to
// season.Repository.CreateWithSchedule, which inserts the season, the
// roster, the schedule GenerateSchedule produces for that roster, and a
// standings row per team, atomically. A roster of N teams always yields
// exactly N*(N-1) games.
func (s *SeasonService) CreateSeason(ctx context.Context, in CreateSeasonInput) (CreateSeasonResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.CreateSeason")
	defer span.End()

	if len(in.Roster) < MinTeamsPerSeason {
		return CreateSeasonResult{}, fmt.Errorf("%w: a season needs at least %d teams, got %d", ErrInvalidInput, MinTeamsPerSeason, len(in.Roster))
	}

	sn := season.Season{
		LeagueID:              in.LeagueID,
		StartDate:             in.StartDate,
		GameDurationMinutes:   in.GameDurationMinutes,
		EvaluationCron:        in.EvaluationCron,
		EvaluationTimezone:    in.EvaluationTimezone,
		AutoEvaluationEnabled: in.AutoEvaluationEnabled,
		IsActive:              in.IsActive,
	}
	if err := sn.Validate(); err != nil {
		return CreateSeasonResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	roster := make([]team.Team, 0, len(in.Roster))
	for _, seed := range in.Roster {
		if len(seed.Name) < 2 || len(seed.Name) > 50 {
			return CreateSeasonResult{}, fmt.Errorf("%w: roster team name must be between 2 and 50 characters", ErrInvalidInput)
		}
		if seed.OwnerUserID == "" {
			return CreateSeasonResult{}, fmt.Errorf("%w: roster team %q: owner user id is required", ErrInvalidInput, seed.Name)
		}
		roster = append(roster, team.Team{Name: seed.Name, Color: seed.Color, OwnerUserID: seed.OwnerUserID})
	}

	seasonID, teamIDs, gameIDs, err := s.seasonRepo.CreateWithSchedule(ctx, sn, roster)
	if err != nil {
		return CreateSeasonResult{}, fmt.Errorf("create season with schedule: %w", err)
	}

	s.logger.InfoContext(ctx, "season created with schedule", "season_id", seasonID, "teams", len(teamIDs), "games", len(gameIDs))

	return CreateSeasonResult{SeasonID: seasonID, TeamIDs: teamIDs, GameIDs: gameIDs}, nil
}
