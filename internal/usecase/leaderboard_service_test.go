package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/vitalabs/competition-engine/internal/domain/scoreevent"
	"github.com/vitalabs/competition-engine/internal/infrastructure/repository/memory"
)

func seedDailyTotal(t *testing.T, repo *memory.ScoreEventRepository, userID string, daysAgo, total int) {
	t.Helper()

	occurredAt := time.Now().UTC().AddDate(0, 0, -daysAgo)
	if _, err := repo.Append(context.Background(), scoreevent.ScoreEvent{
		GameID: "game-" + userID, UserID: userID, StaminaGained: total, OccurredAt: occurredAt,
	}); err != nil {
		t.Fatalf("seed daily total: %v", err)
	}
}

func TestLeaderboardService_TrailingAverage_Best5Of7DividedBy7(t *testing.T) {
	t.Parallel()

	scoreEvents := memory.NewScoreEventRepository()
	svc := NewLeaderboardService(scoreEvents, nil)

	totalsByDaysAgo := map[int]int{0: 60, 1: 50, 2: 40, 3: 30, 4: 20, 5: 10, 6: 5}
	for daysAgo, total := range totalsByDaysAgo {
		seedDailyTotal(t, scoreEvents, "user-1", daysAgo, total)
	}

	avg, err := svc.TrailingAverage(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("TrailingAverage error: %v", err)
	}

	// best 5 of {60,50,40,30,20,10,5} = 60+50+40+30+20 = 200, divided by 7
	// (not by 5 — an unscored day still counts toward the denominator).
	want := 200.0 / 7.0
	if diff := avg - want; diff > 0.001 || diff < -0.001 {
		t.Fatalf("expected trailing average %.4f, got %.4f", want, avg)
	}
}

func TestLeaderboardService_TrailingAverage_NoEventsIsZero(t *testing.T) {
	t.Parallel()

	scoreEvents := memory.NewScoreEventRepository()
	svc := NewLeaderboardService(scoreEvents, nil)

	avg, err := svc.TrailingAverage(context.Background(), "user-with-no-history")
	if err != nil {
		t.Fatalf("TrailingAverage error: %v", err)
	}
	if avg != 0 {
		t.Fatalf("expected zero average for a user with no score events, got %f", avg)
	}
}

func TestLeaderboardService_Leaderboard_RanksDescendingWithUserIDTieBreak(t *testing.T) {
	t.Parallel()

	scoreEvents := memory.NewScoreEventRepository()
	svc := NewLeaderboardService(scoreEvents, nil)

	seedDailyTotal(t, scoreEvents, "user-a", 0, 70)
	seedDailyTotal(t, scoreEvents, "user-b", 0, 70) // ties user-a
	seedDailyTotal(t, scoreEvents, "user-c", 0, 140)

	entries, err := svc.Leaderboard(context.Background(), []LeaderboardCandidate{
		{UserID: "user-b"},
		{UserID: "user-a"},
		{UserID: "user-c"},
		{UserID: "user-d"}, // no score events at all
	})
	if err != nil {
		t.Fatalf("Leaderboard error: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	if entries[0].UserID != "user-c" || entries[0].Rank != 1 {
		t.Fatalf("expected user-c ranked first, got %+v", entries[0])
	}
	// user-a and user-b tie on trailing average; user_id ascending breaks it.
	if entries[1].UserID != "user-a" || entries[1].Rank != 2 {
		t.Fatalf("expected user-a ranked second by id tie-break, got %+v", entries[1])
	}
	if entries[2].UserID != "user-b" || entries[2].Rank != 3 {
		t.Fatalf("expected user-b ranked third by id tie-break, got %+v", entries[2])
	}
	if entries[3].UserID != "user-d" || entries[3].TrailingAverage != 0 {
		t.Fatalf("expected user-d last with zero average, got %+v", entries[3])
	}
}
