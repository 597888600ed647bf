package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vitalabs/competition-engine/internal/domain/game"
	"github.com/vitalabs/competition-engine/internal/domain/jobscheduler"
	"github.com/vitalabs/competition-engine/internal/domain/season"
	"github.com/vitalabs/competition-engine/internal/infrastructure/repository/memory"
)

// stubDispatchRepository is a hand-rolled jobscheduler.Repository fake: no
// in-memory implementation exists for this interface in the repository
// layer, since only the scheduler writes through it.
type stubDispatchRepository struct {
	mu     sync.Mutex
	events []jobscheduler.DispatchEvent
}

func (s *stubDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func newTestScheduler(games *memory.GameRepository, seasons *memory.SeasonRepository, evaluator *EvaluationService, dispatch jobscheduler.Repository, now time.Time) *SchedulerService {
	svc := NewSchedulerService(games, seasons, evaluator, dispatch, NewNoopEventPublisher(), nil, SchedulerConfig{TickInterval: time.Second})
	svc.now = func() time.Time { return now }
	return svc
}

func TestSchedulerService_Tick_AdvancesGameThroughFullLifecycleInOneTick(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	games := memory.NewGameRepository()
	seasons := memory.NewSeasonRepository(nil, nil, nil)
	scoreEvents := memory.NewScoreEventRepository()
	summaries := memory.NewGameSummaryRepository()
	standings := memory.NewStandingRepository()
	evaluator := NewEvaluationService(games, scoreEvents, summaries, standings, NewNoopEventPublisher(), nil)

	start := now.Add(-20 * time.Minute)
	weekEnd := now.Add(-10 * time.Minute) // already elapsed: due to finish as soon as it starts
	gameID, err := games.Create(context.Background(), game.Game{
		SeasonID: "season-1", HomeTeamID: "team-a", AwayTeamID: "team-b",
		Status: game.StatusScheduled, GameStartTime: &start, WeekStartDate: start, WeekEndDate: weekEnd,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	svc := newTestScheduler(games, seasons, evaluator, nil, now)
	svc.Tick(context.Background())

	updated, ok, err := games.GetByID(context.Background(), gameID)
	if err != nil || !ok {
		t.Fatalf("get game: ok=%v err=%v", ok, err)
	}
	if updated.Status != game.StatusEvaluated {
		t.Fatalf("expected game to reach evaluated status in one tick, got %s", updated.Status)
	}

	exists, err := summaries.ExistsForGame(context.Background(), gameID)
	if err != nil || !exists {
		t.Fatalf("expected a game summary to exist: exists=%v err=%v", exists, err)
	}
}

func TestSchedulerService_Tick_IgnoresGamesNotYetDue(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	games := memory.NewGameRepository()
	seasons := memory.NewSeasonRepository(nil, nil, nil)

	future := now.Add(time.Hour)
	gameID, err := games.Create(context.Background(), game.Game{
		SeasonID: "season-1", HomeTeamID: "team-a", AwayTeamID: "team-b",
		Status: game.StatusScheduled, GameStartTime: &future, WeekStartDate: future, WeekEndDate: future.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	svc := newTestScheduler(games, seasons, nil, nil, now)
	svc.Tick(context.Background())

	updated, ok, err := games.GetByID(context.Background(), gameID)
	if err != nil || !ok {
		t.Fatalf("get game: ok=%v err=%v", ok, err)
	}
	if updated.Status != game.StatusScheduled {
		t.Fatalf("expected game not yet due to remain scheduled, got %s", updated.Status)
	}
}

// failingGetByIDGameRepository wraps a memory.GameRepository but fails
// GetByID for one game id, simulating a failure early in the evaluation
// pipeline — before any summary row is written — that the in-memory
// repository alone cannot reproduce.
type failingGetByIDGameRepository struct {
	*memory.GameRepository
	failGameID string
}

func (f *failingGetByIDGameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	if gameID == f.failGameID {
		return game.Game{}, false, errApplyScoreDelta
	}
	return f.GameRepository.GetByID(ctx, gameID)
}

func TestSchedulerService_Tick_EvaluateFailureDoesNotBlockOtherGames(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	inner := memory.NewGameRepository()
	seasons := memory.NewSeasonRepository(nil, nil, nil)
	scoreEvents := memory.NewScoreEventRepository()
	summaries := memory.NewGameSummaryRepository()
	standings := memory.NewStandingRepository()

	gameA, err := inner.Create(context.Background(), game.Game{SeasonID: "season-1", HomeTeamID: "team-a", AwayTeamID: "team-b", Status: game.StatusFinished})
	if err != nil {
		t.Fatalf("create game a: %v", err)
	}
	gameB, err := inner.Create(context.Background(), game.Game{SeasonID: "season-1", HomeTeamID: "team-c", AwayTeamID: "team-d", Status: game.StatusFinished})
	if err != nil {
		t.Fatalf("create game b: %v", err)
	}

	games := &failingGetByIDGameRepository{GameRepository: inner, failGameID: gameA}
	evaluator := NewEvaluationService(games, scoreEvents, summaries, standings, NewNoopEventPublisher(), nil)

	svc := newTestScheduler(games, seasons, evaluator, nil, now)
	svc.Tick(context.Background())

	existsA, err := summaries.ExistsForGame(context.Background(), gameA)
	if err != nil {
		t.Fatalf("check summary a: %v", err)
	}
	if existsA {
		t.Fatalf("expected game A's evaluation to have failed, but a summary was created")
	}

	existsB, err := summaries.ExistsForGame(context.Background(), gameB)
	if err != nil || !existsB {
		t.Fatalf("expected game B to evaluate despite game A's failure: exists=%v err=%v", existsB, err)
	}
}

func TestSchedulerService_SyncSeasonCrons_RegistersCronEntryForActiveSeason(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	games := memory.NewGameRepository()
	seasons := memory.NewSeasonRepository(nil, nil, nil)
	dispatch := &stubDispatchRepository{}

	if _, err := seasons.Create(context.Background(), season.Season{
		LeagueID: "league-1", IsActive: true, AutoEvaluationEnabled: true, EvaluationCron: "*/1 * * * * *",
	}); err != nil {
		t.Fatalf("create season: %v", err)
	}

	svc := newTestScheduler(games, seasons, nil, dispatch, now)
	svc.syncSeasonCrons(context.Background())

	svc.mu.Lock()
	jobCount := len(svc.cronJobs)
	svc.mu.Unlock()
	if jobCount != 1 {
		t.Fatalf("expected one registered cron entry, got %d", jobCount)
	}
}

func TestDedupKey_SameMinuteBucketProducesSameDispatchID(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)
	a := dedupKey("evaluate-season", "season-1", base, time.Minute)
	b := dedupKey("evaluate-season", "season-1", base.Add(20*time.Second), time.Minute)
	if a != b {
		t.Fatalf("expected two ticks in the same minute bucket to collapse to one dispatch id, got %q vs %q", a, b)
	}

	c := dedupKey("evaluate-season", "season-1", base.Add(time.Minute), time.Minute)
	if a == c {
		t.Fatalf("expected ticks in different minute buckets to produce different dispatch ids, both were %q", a)
	}
}

func TestDedupKey_SanitizesUnsafeCharacters(t *testing.T) {
	t.Parallel()

	key := dedupKey("evaluate season!", "season/1", time.Unix(0, 0), time.Minute)
	for _, r := range key {
		if dedupUnsafeCharRegex.MatchString(string(r)) {
			t.Fatalf("expected dedup key to contain no unsafe characters, got %q", key)
		}
	}
}

// TestSchedulerService_Tick_ConcurrentTicksAreIdempotent drives many
// concurrent Tick calls against one shared game and asserts it reaches
// evaluated with team-a's outcome recorded in the standings exactly once —
// scheduler idempotence under -race.
func TestSchedulerService_Tick_ConcurrentTicksAreIdempotent(t *testing.T) {
	now := time.Now().UTC()
	games := memory.NewGameRepository()
	seasons := memory.NewSeasonRepository(nil, nil, nil)
	scoreEvents := memory.NewScoreEventRepository()
	summaries := memory.NewGameSummaryRepository()
	standings := memory.NewStandingRepository()

	start := now.Add(-20 * time.Minute)
	weekEnd := now.Add(-10 * time.Minute)
	gameID, err := games.Create(context.Background(), game.Game{
		SeasonID: "season-1", HomeTeamID: "team-a", AwayTeamID: "team-b",
		Status: game.StatusScheduled, GameStartTime: &start, WeekStartDate: start, WeekEndDate: weekEnd,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	ev := NewEvaluationService(games, scoreEvents, summaries, standings, NewNoopEventPublisher(), nil)
	svc := newTestScheduler(games, seasons, ev, nil, now)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Tick(context.Background())
		}()
	}
	wg.Wait()

	updated, ok, err := games.GetByID(context.Background(), gameID)
	if err != nil || !ok {
		t.Fatalf("get game: ok=%v err=%v", ok, err)
	}
	if updated.Status != game.StatusEvaluated {
		t.Fatalf("expected game evaluated after concurrent ticks, got %s", updated.Status)
	}

	rows, err := standings.ListBySeason(context.Background(), "season-1")
	if err != nil {
		t.Fatalf("list standings: %v", err)
	}
	for _, row := range rows {
		if row.TeamID == "team-a" && row.GamesPlayed != 1 {
			t.Fatalf("expected team-a to be recorded exactly once despite concurrent ticks, got %+v", row)
		}
	}
}
