package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/vitalabs/competition-engine/internal/domain/game"
	"github.com/vitalabs/competition-engine/internal/domain/scoreevent"
	"github.com/vitalabs/competition-engine/internal/domain/team"
	"github.com/vitalabs/competition-engine/internal/platform/logging"
)

// AttributionContribution is the scored output of a workout, the only
// thing the attributor needs from C2 to credit a live game.
type AttributionContribution struct {
	UserID         string
	Username       string
	WorkoutID      string
	StaminaGained  int
	StrengthGained int
}

// AttributionService is C3: for a scored workout, it finds every live game
// the contributing user currently plays in and credits a ScoreEvent plus a
// conditional score increment to each one. It runs synchronously right
// after C2's insert+score step.
type AttributionService struct {
	gameRepo       game.Repository
	teamRepo       team.Repository
	scoreEventRepo scoreevent.Repository
	bus            EventPublisher
	logger         *logging.Logger
	now            func() time.Time
}

func NewAttributionService(
	gameRepo game.Repository,
	teamRepo team.Repository,
	scoreEventRepo scoreevent.Repository,
	bus EventPublisher,
	logger *logging.Logger,
) *AttributionService {
	if bus == nil {
		bus = NewNoopEventPublisher()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &AttributionService{
		gameRepo:       gameRepo,
		teamRepo:       teamRepo,
		scoreEventRepo: scoreEventRepo,
		bus:            bus,
		logger:         logger,
		now:            time.Now,
	}
}

// Attribute finds every game the user is currently playing live and
// credits the contribution to each — a user may legitimately be in
// multiple simultaneous live games across different seasons. A failure
// attributing to one game must not prevent attribution to the others, and
// must never roll back the already-committed workout.
func (s *AttributionService) Attribute(ctx context.Context, c AttributionContribution) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AttributionService.Attribute")
	defer span.End()

	now := s.now().UTC()
	liveGames, err := s.gameRepo.ListLive(ctx, now)
	if err != nil {
		s.logger.WarnContext(ctx, "list live games for attribution failed", "user_id", c.UserID, "workout_id", c.WorkoutID, "error", err)
		return
	}
	if len(liveGames) == 0 {
		s.logger.InfoContext(ctx, "no live games matched for attribution", "user_id", c.UserID, "workout_id", c.WorkoutID)
		return
	}

	scorePoints := c.StaminaGained + c.StrengthGained

	for _, g := range liveGames {
		if err := s.attributeToGame(ctx, g, c, scorePoints, now); err != nil {
			s.logger.WarnContext(ctx, "attribute to game failed", "game_id", g.ID, "user_id", c.UserID, "error", err)
		}
	}
}

func (s *AttributionService) attributeToGame(ctx context.Context, g game.Game, c AttributionContribution, scorePoints int, now time.Time) error {
	side, ok, err := s.resolveSide(ctx, g, c.UserID)
	if err != nil {
		return fmt.Errorf("resolve team side: %w", err)
	}
	if !ok {
		return nil
	}

	eventID, err := s.scoreEventRepo.Append(ctx, scoreevent.ScoreEvent{
		GameID:         g.ID,
		UserID:         c.UserID,
		Username:       c.Username,
		TeamID:         sideTeamID(g, side),
		TeamSide:       side,
		ScorePoints:    scorePoints,
		StaminaGained:  c.StaminaGained,
		StrengthGained: c.StrengthGained,
		OccurredAt:     now,
	})
	if err != nil {
		return fmt.Errorf("append score event: %w", err)
	}

	if err := s.gameRepo.ApplyScoreDelta(ctx, game.ScoreDelta{
		GameID:       g.ID,
		Side:         side,
		Delta:        scorePoints,
		ScorerUserID: c.UserID,
		At:           now,
	}); err != nil {
		return fmt.Errorf("apply score delta: %w", err)
	}

	updated, exists, err := s.gameRepo.GetByID(ctx, g.ID)
	if err != nil || !exists {
		updated = g
	}

	homeScore, awayScore := updated.HomeScore, updated.AwayScore
	if side == game.SideHome {
		homeScore += scorePoints
	} else {
		awayScore += scorePoints
	}

	s.bus.PublishGlobal(ctx, EventLiveScoreUpdate, liveScoreUpdatePayload{
		GameID:        g.ID,
		HomeTeamID:    g.HomeTeamID,
		AwayTeamID:    g.AwayTeamID,
		HomeScore:     homeScore,
		AwayScore:     awayScore,
		GameProgress:  updated.Progress(now),
		TimeRemaining: timeRemaining(updated, now),
		IsActive:      true,
		ScoreEventID:  eventID,
		Timestamp:     now,
	})

	return nil
}

func (s *AttributionService) resolveSide(ctx context.Context, g game.Game, userID string) (game.TeamSide, bool, error) {
	if m, ok, err := s.teamRepo.MemberOf(ctx, g.HomeTeamID, userID); err != nil {
		return "", false, err
	} else if ok && m.Status == team.MemberStatusActive {
		return game.SideHome, true, nil
	}

	if m, ok, err := s.teamRepo.MemberOf(ctx, g.AwayTeamID, userID); err != nil {
		return "", false, err
	} else if ok && m.Status == team.MemberStatusActive {
		return game.SideAway, true, nil
	}

	return "", false, nil
}

func sideTeamID(g game.Game, side game.TeamSide) string {
	if side == game.SideHome {
		return g.HomeTeamID
	}
	return g.AwayTeamID
}

func timeRemaining(g game.Game, now time.Time) float64 {
	if g.GameEndTime == nil {
		return 0
	}
	remaining := g.GameEndTime.Sub(now).Seconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}

type liveScoreUpdatePayload struct {
	GameID        string    `json:"game_id"`
	HomeTeamID    string    `json:"home_team_id"`
	AwayTeamID    string    `json:"away_team_id"`
	HomeScore     int       `json:"home_score"`
	AwayScore     int       `json:"away_score"`
	GameProgress  float64   `json:"game_progress"`
	TimeRemaining float64   `json:"time_remaining_seconds"`
	IsActive      bool      `json:"is_active"`
	ScoreEventID  string    `json:"score_event_id"`
	Timestamp     time.Time `json:"timestamp"`
}
