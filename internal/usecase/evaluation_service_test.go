package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/vitalabs/competition-engine/internal/domain/game"
	"github.com/vitalabs/competition-engine/internal/domain/scoreevent"
	"github.com/vitalabs/competition-engine/internal/infrastructure/repository/memory"
)

func newFinishedGame(t *testing.T, games *memory.GameRepository, seasonID, homeTeamID, awayTeamID string) string {
	t.Helper()

	id, err := games.Create(context.Background(), game.Game{
		SeasonID:   seasonID,
		HomeTeamID: homeTeamID,
		AwayTeamID: awayTeamID,
		Status:     game.StatusFinished,
	})
	if err != nil {
		t.Fatalf("create finished game: %v", err)
	}
	return id
}

func TestEvaluationService_EvaluateGame_AggregatesScoreEventsIntoSummary(t *testing.T) {
	t.Parallel()

	games := memory.NewGameRepository()
	scoreEvents := memory.NewScoreEventRepository()
	summaries := memory.NewGameSummaryRepository()
	standings := memory.NewStandingRepository()

	gameID := newFinishedGame(t, games, "season-1", "team-home", "team-away")

	now := time.Now().UTC()
	mustAppend := func(userID string, side game.TeamSide, points int, at time.Time) {
		if _, err := scoreEvents.Append(context.Background(), scoreevent.ScoreEvent{
			GameID: gameID, UserID: userID, TeamSide: side, ScorePoints: points, OccurredAt: at,
		}); err != nil {
			t.Fatalf("append score event: %v", err)
		}
	}
	mustAppend("user-home-1", game.SideHome, 10, now)
	mustAppend("user-home-2", game.SideHome, 5, now.Add(time.Minute))
	mustAppend("user-away-1", game.SideAway, 3, now)

	svc := NewEvaluationService(games, scoreEvents, summaries, standings, NewNoopEventPublisher(), nil)

	if err := svc.EvaluateGame(context.Background(), gameID); err != nil {
		t.Fatalf("EvaluateGame error: %v", err)
	}

	summary, ok, err := summaries.GetByGameID(context.Background(), gameID)
	if err != nil || !ok {
		t.Fatalf("get summary: ok=%v err=%v", ok, err)
	}
	if summary.FinalHomeScore != 15 || summary.FinalAwayScore != 3 {
		t.Fatalf("unexpected final scores: %+v", summary)
	}
	if summary.WinnerTeamID == nil || *summary.WinnerTeamID != "team-home" {
		t.Fatalf("expected team-home to win, got %+v", summary.WinnerTeamID)
	}
	if summary.MVPUserID != "user-home-1" {
		t.Fatalf("expected user-home-1 as MVP (highest score), got %s", summary.MVPUserID)
	}
	if summary.LVPUserID != "user-away-1" {
		t.Fatalf("expected user-away-1 as LVP (lowest score), got %s", summary.LVPUserID)
	}

	updated, ok, err := games.GetByID(context.Background(), gameID)
	if err != nil || !ok {
		t.Fatalf("get game: ok=%v err=%v", ok, err)
	}
	if updated.Status != game.StatusEvaluated {
		t.Fatalf("expected game status evaluated, got %s", updated.Status)
	}
}

func TestEvaluationService_EvaluateGame_IsIdempotent(t *testing.T) {
	t.Parallel()

	games := memory.NewGameRepository()
	scoreEvents := memory.NewScoreEventRepository()
	summaries := memory.NewGameSummaryRepository()
	standings := memory.NewStandingRepository()

	gameID := newFinishedGame(t, games, "season-1", "team-home", "team-away")
	if _, err := scoreEvents.Append(context.Background(), scoreevent.ScoreEvent{
		GameID: gameID, UserID: "user-home-1", TeamSide: game.SideHome, ScorePoints: 10, OccurredAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("append score event: %v", err)
	}

	svc := NewEvaluationService(games, scoreEvents, summaries, standings, NewNoopEventPublisher(), nil)

	if err := svc.EvaluateGame(context.Background(), gameID); err != nil {
		t.Fatalf("first EvaluateGame error: %v", err)
	}
	if err := svc.EvaluateGame(context.Background(), gameID); err != nil {
		t.Fatalf("second EvaluateGame error: %v", err)
	}

	rows, err := standings.ListBySeason(context.Background(), "season-1")
	if err != nil {
		t.Fatalf("list standings: %v", err)
	}
	for _, row := range rows {
		if row.TeamID == "team-home" && row.GamesPlayed != 1 {
			t.Fatalf("expected exactly one recorded game for team-home after two EvaluateGame calls, got %+v", row)
		}
	}
}

func TestEvaluationService_EvaluateGame_UpdatesStandingsAndRanksByPoints(t *testing.T) {
	t.Parallel()

	games := memory.NewGameRepository()
	scoreEvents := memory.NewScoreEventRepository()
	summaries := memory.NewGameSummaryRepository()
	standings := memory.NewStandingRepository()

	gameA := newFinishedGame(t, games, "season-1", "team-a", "team-b")
	if _, err := scoreEvents.Append(context.Background(), scoreevent.ScoreEvent{
		GameID: gameA, UserID: "user-a", TeamSide: game.SideHome, ScorePoints: 10, OccurredAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("append score event: %v", err)
	}

	gameB := newFinishedGame(t, games, "season-1", "team-c", "team-a")
	if _, err := scoreEvents.Append(context.Background(), scoreevent.ScoreEvent{
		GameID: gameB, UserID: "user-a-away", TeamSide: game.SideAway, ScorePoints: 8, OccurredAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("append score event: %v", err)
	}

	svc := NewEvaluationService(games, scoreEvents, summaries, standings, NewNoopEventPublisher(), nil)

	if err := svc.EvaluateGame(context.Background(), gameA); err != nil {
		t.Fatalf("evaluate game A: %v", err)
	}
	if err := svc.EvaluateGame(context.Background(), gameB); err != nil {
		t.Fatalf("evaluate game B: %v", err)
	}

	rows, err := standings.ListBySeason(context.Background(), "season-1")
	if err != nil {
		t.Fatalf("list standings: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 standing rows, got %d: %+v", len(rows), rows)
	}
	// team-a won both game A (home) and game B (away): 2 wins, 6 points.
	for _, row := range rows {
		if row.TeamID == "team-a" {
			if row.Wins != 2 || row.Losses != 0 || row.EffectivePoints() != 6 {
				t.Fatalf("unexpected team-a standing: %+v", row)
			}
			if row.Position != 1 {
				t.Fatalf("expected team-a ranked first with most points, got position %d", row.Position)
			}
		}
	}
}
