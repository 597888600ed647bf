package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vitalabs/competition-engine/internal/domain/game"
	"github.com/vitalabs/competition-engine/internal/domain/team"
	"github.com/vitalabs/competition-engine/internal/infrastructure/repository/memory"
)

func newLiveGame(t *testing.T, games *memory.GameRepository, homeTeamID, awayTeamID string, now time.Time) string {
	t.Helper()

	start := now.Add(-10 * time.Minute)
	end := now.Add(10 * time.Minute)

	id, err := games.Create(context.Background(), game.Game{
		HomeTeamID:    homeTeamID,
		AwayTeamID:    awayTeamID,
		Status:        game.StatusInProgress,
		GameStartTime: &start,
		GameEndTime:   &end,
		WeekStartDate: start,
		WeekEndDate:   end,
	})
	if err != nil {
		t.Fatalf("create live game: %v", err)
	}
	return id
}

func TestAttributionService_Attribute_CreditsMemberOfLiveHomeTeam(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	games := memory.NewGameRepository()
	teams := memory.NewTeamRepository(nil)
	scoreEvents := memory.NewScoreEventRepository()

	gameID := newLiveGame(t, games, "team-home", "team-away", now)
	if err := teams.UpsertMember(context.Background(), team.Member{TeamID: "team-home", UserID: "user-1", Status: team.MemberStatusActive}); err != nil {
		t.Fatalf("upsert member: %v", err)
	}

	svc := NewAttributionService(games, teams, scoreEvents, NewNoopEventPublisher(), nil)
	svc.now = func() time.Time { return now }

	svc.Attribute(context.Background(), AttributionContribution{
		UserID: "user-1", Username: "user-1-name", WorkoutID: "w-1", StaminaGained: 10, StrengthGained: 5,
	})

	updated, ok, err := games.GetByID(context.Background(), gameID)
	if err != nil || !ok {
		t.Fatalf("get game: ok=%v err=%v", ok, err)
	}
	if updated.HomeScore != 15 {
		t.Fatalf("expected home score 15, got %d", updated.HomeScore)
	}
	if updated.AwayScore != 0 {
		t.Fatalf("expected away score untouched, got %d", updated.AwayScore)
	}

	events, err := scoreEvents.ListByGame(context.Background(), gameID)
	if err != nil {
		t.Fatalf("list score events: %v", err)
	}
	if len(events) != 1 || events[0].UserID != "user-1" || events[0].TeamSide != game.SideHome {
		t.Fatalf("unexpected score events: %+v", events)
	}
}

func TestAttributionService_Attribute_NoLiveGameIsNoop(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	games := memory.NewGameRepository()
	teams := memory.NewTeamRepository(nil)
	scoreEvents := memory.NewScoreEventRepository()

	svc := NewAttributionService(games, teams, scoreEvents, NewNoopEventPublisher(), nil)
	svc.now = func() time.Time { return now }

	// No live game exists; Attribute must return without touching any
	// repository. Nothing to assert beyond it not panicking or blocking.
	svc.Attribute(context.Background(), AttributionContribution{UserID: "user-1", StaminaGained: 10, StrengthGained: 5})
}

func TestAttributionService_Attribute_InactiveMemberIsNotCredited(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	games := memory.NewGameRepository()
	teams := memory.NewTeamRepository(nil)
	scoreEvents := memory.NewScoreEventRepository()

	gameID := newLiveGame(t, games, "team-home", "team-away", now)
	if err := teams.UpsertMember(context.Background(), team.Member{TeamID: "team-home", UserID: "user-1", Status: team.MemberStatusInactive}); err != nil {
		t.Fatalf("upsert member: %v", err)
	}

	svc := NewAttributionService(games, teams, scoreEvents, NewNoopEventPublisher(), nil)
	svc.now = func() time.Time { return now }

	svc.Attribute(context.Background(), AttributionContribution{UserID: "user-1", StaminaGained: 10, StrengthGained: 5})

	updated, ok, err := games.GetByID(context.Background(), gameID)
	if err != nil || !ok {
		t.Fatalf("get game: ok=%v err=%v", ok, err)
	}
	if updated.HomeScore != 0 || updated.AwayScore != 0 {
		t.Fatalf("expected no score change for inactive member, got home=%d away=%d", updated.HomeScore, updated.AwayScore)
	}

	events, err := scoreEvents.ListByGame(context.Background(), gameID)
	if err != nil {
		t.Fatalf("list score events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no score events for inactive member, got %+v", events)
	}
}

func TestAttributionService_Attribute_CreditsMultipleSimultaneousLiveGames(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	games := memory.NewGameRepository()
	teams := memory.NewTeamRepository(nil)
	scoreEvents := memory.NewScoreEventRepository()

	gameA := newLiveGame(t, games, "team-a", "team-x", now)
	gameB := newLiveGame(t, games, "team-y", "team-b", now)

	if err := teams.UpsertMember(context.Background(), team.Member{TeamID: "team-a", UserID: "user-1", Status: team.MemberStatusActive}); err != nil {
		t.Fatalf("upsert member: %v", err)
	}
	if err := teams.UpsertMember(context.Background(), team.Member{TeamID: "team-b", UserID: "user-1", Status: team.MemberStatusActive}); err != nil {
		t.Fatalf("upsert member: %v", err)
	}

	svc := NewAttributionService(games, teams, scoreEvents, NewNoopEventPublisher(), nil)
	svc.now = func() time.Time { return now }

	svc.Attribute(context.Background(), AttributionContribution{UserID: "user-1", StaminaGained: 1, StrengthGained: 1})

	a, _, err := games.GetByID(context.Background(), gameA)
	if err != nil {
		t.Fatalf("get game a: %v", err)
	}
	b, _, err := games.GetByID(context.Background(), gameB)
	if err != nil {
		t.Fatalf("get game b: %v", err)
	}

	if a.HomeScore != 2 {
		t.Fatalf("expected game A home score credited, got %d", a.HomeScore)
	}
	if b.AwayScore != 2 {
		t.Fatalf("expected game B away score credited, got %d", b.AwayScore)
	}
}

// failingGameRepository wraps a memory.GameRepository but fails
// ApplyScoreDelta for one game id, simulating a partial failure the
// in-memory repository alone cannot reproduce.
type failingGameRepository struct {
	*memory.GameRepository
	failGameID string
}

func (f *failingGameRepository) ApplyScoreDelta(ctx context.Context, delta game.ScoreDelta) error {
	if delta.GameID == f.failGameID {
		return errApplyScoreDelta
	}
	return f.GameRepository.ApplyScoreDelta(ctx, delta)
}

var errApplyScoreDelta = errors.New("apply score delta failed")

func TestAttributionService_Attribute_OneGameFailureDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	inner := memory.NewGameRepository()
	teams := memory.NewTeamRepository(nil)
	scoreEvents := memory.NewScoreEventRepository()

	gameA := newLiveGame(t, inner, "team-a", "team-x", now)
	gameB := newLiveGame(t, inner, "team-y", "team-b", now)

	if err := teams.UpsertMember(context.Background(), team.Member{TeamID: "team-a", UserID: "user-1", Status: team.MemberStatusActive}); err != nil {
		t.Fatalf("upsert member: %v", err)
	}
	if err := teams.UpsertMember(context.Background(), team.Member{TeamID: "team-b", UserID: "user-1", Status: team.MemberStatusActive}); err != nil {
		t.Fatalf("upsert member: %v", err)
	}

	games := &failingGameRepository{GameRepository: inner, failGameID: gameA}

	svc := NewAttributionService(games, teams, scoreEvents, NewNoopEventPublisher(), nil)
	svc.now = func() time.Time { return now }

	svc.Attribute(context.Background(), AttributionContribution{UserID: "user-1", StaminaGained: 1, StrengthGained: 1})

	a, _, err := inner.GetByID(context.Background(), gameA)
	if err != nil {
		t.Fatalf("get game a: %v", err)
	}
	b, _, err := inner.GetByID(context.Background(), gameB)
	if err != nil {
		t.Fatalf("get game b: %v", err)
	}

	if a.HomeScore != 0 {
		t.Fatalf("expected game A untouched after its ApplyScoreDelta failure, got %d", a.HomeScore)
	}
	if b.AwayScore != 2 {
		t.Fatalf("expected game B still credited despite game A's failure, got %d", b.AwayScore)
	}
}
