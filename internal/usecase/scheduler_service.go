package usecase

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/vitalabs/competition-engine/internal/domain/game"
	"github.com/vitalabs/competition-engine/internal/domain/jobscheduler"
	"github.com/vitalabs/competition-engine/internal/domain/season"
	"github.com/vitalabs/competition-engine/internal/platform/logging"
)

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SchedulerConfig tunes the C4 tick loop and per-season evaluation cron.
type SchedulerConfig struct {
	TickInterval time.Duration
}

// SchedulerService is C4: a single dedicated background loop that advances
// game lifecycle state (scheduled -> in_progress -> finished) and a
// per-season cron registry that triggers evaluation. Runs as a single
// process. Each tick phase runs in its own short transaction at
// the repository layer; one game's failure never aborts the others or the
// other phases.
type SchedulerService struct {
	mu       sync.Mutex
	gameRepo game.Repository
	seasonRepo season.Repository
	evaluator  *EvaluationService
	dispatchRepo jobscheduler.Repository
	bus        EventPublisher
	logger     *logging.Logger
	now        func() time.Time
	cfg        SchedulerConfig

	cronRunner *cron.Cron
	cronJobs   map[string]cron.EntryID
}

func NewSchedulerService(
	gameRepo game.Repository,
	seasonRepo season.Repository,
	evaluator *EvaluationService,
	dispatchRepo jobscheduler.Repository,
	bus EventPublisher,
	logger *logging.Logger,
	cfg SchedulerConfig,
) *SchedulerService {
	if bus == nil {
		bus = NewNoopEventPublisher()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 5 * time.Second
	}

	return &SchedulerService{
		gameRepo:     gameRepo,
		seasonRepo:   seasonRepo,
		evaluator:    evaluator,
		dispatchRepo: dispatchRepo,
		bus:          bus,
		logger:       logger,
		now:          time.Now,
		cfg:          cfg,
		cronRunner:   cron.New(cron.WithSeconds()),
		cronJobs:     make(map[string]cron.EntryID),
	}
}

// Run blocks, ticking the game lifecycle loop every cfg.TickInterval until
// ctx is cancelled. Call it from a single goroutine (cmd/worker).
func (s *SchedulerService) Run(ctx context.Context) {
	s.cronRunner.Start()
	defer s.cronRunner.Stop()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs the three lifecycle phases in order: start due games,
// finish expired games, evaluate finished-unevaluated games.
func (s *SchedulerService) Tick(ctx context.Context) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.Tick")
	defer span.End()

	now := s.now().UTC()
	s.startDueGames(ctx, now)
	s.finishExpiredGames(ctx, now)
	s.evaluateFinishedGames(ctx)
	s.syncSeasonCrons(ctx)
}

func (s *SchedulerService) startDueGames(ctx context.Context, now time.Time) {
	due, err := s.gameRepo.ListDueToStart(ctx, now)
	if err != nil {
		s.logger.WarnContext(ctx, "list due-to-start games failed", "error", err)
		return
	}

	for _, g := range due {
		if err := s.gameRepo.Start(ctx, g.ID, now); err != nil {
			s.logger.WarnContext(ctx, "start game failed", "game_id", g.ID, "error", err)
			continue
		}
		s.bus.PublishGlobal(ctx, EventGameStarted, gameLifecyclePayload{GameID: g.ID, SeasonID: g.SeasonID, Status: string(game.StatusInProgress), At: now})
	}
}

func (s *SchedulerService) finishExpiredGames(ctx context.Context, now time.Time) {
	expired, err := s.gameRepo.ListExpiredInProgress(ctx, now)
	if err != nil {
		s.logger.WarnContext(ctx, "list expired in-progress games failed", "error", err)
		return
	}

	for _, g := range expired {
		if err := s.gameRepo.Finish(ctx, g.ID, now); err != nil {
			s.logger.WarnContext(ctx, "finish game failed", "game_id", g.ID, "error", err)
			continue
		}
		s.bus.PublishGlobal(ctx, EventGameFinished, gameLifecyclePayload{GameID: g.ID, SeasonID: g.SeasonID, Status: string(game.StatusFinished), At: now})
	}
}

func (s *SchedulerService) evaluateFinishedGames(ctx context.Context) {
	if s.evaluator == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	finished, err := s.gameRepo.ListFinishedUnevaluated(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "list finished-unevaluated games failed", "error", err)
		return
	}

	if len(finished) == 0 {
		return
	}

	evaluatedIDs := make([]string, 0, len(finished))
	for _, g := range finished {
		if err := s.evaluator.EvaluateGame(ctx, g.ID); err != nil {
			s.logger.WarnContext(ctx, "evaluate game failed", "game_id", g.ID, "error", err)
			continue
		}
		evaluatedIDs = append(evaluatedIDs, g.ID)
	}

	if len(evaluatedIDs) > 0 {
		s.bus.PublishGlobal(ctx, EventGamesEvaluated, gamesEvaluatedPayload{GameIDs: evaluatedIDs, At: s.now().UTC()})
	}
}

// syncSeasonCrons registers an evaluation cron entry for every active
// season that declares one and doesn't have one registered yet. An invalid
// cron expression is logged and skipped, never aborting season processing.
func (s *SchedulerService) syncSeasonCrons(ctx context.Context) {
	seasons, err := s.seasonRepo.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "list seasons for cron sync failed", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(seasons))
	for _, sn := range seasons {
		seen[sn.ID] = true
		if !sn.IsActive || !sn.AutoEvaluationEnabled || sn.EvaluationCron == "" {
			s.unregisterCronLocked(sn.ID)
			continue
		}
		if _, exists := s.cronJobs[sn.ID]; exists {
			continue
		}

		seasonID := sn.ID
		entryID, err := s.cronRunner.AddFunc(sn.EvaluationCron, func() {
			s.evaluateFinishedGames(context.Background())
			s.recordDispatch(context.Background(), seasonID)
		})
		if err != nil {
			s.logger.WarnContext(ctx, "register season evaluation cron failed", "season_id", seasonID, "cron", sn.EvaluationCron, "error", err)
			continue
		}
		s.cronJobs[sn.ID] = entryID
	}

	for id := range s.cronJobs {
		if !seen[id] {
			s.unregisterCronLocked(id)
		}
	}
}

func (s *SchedulerService) unregisterCronLocked(seasonID string) {
	entryID, exists := s.cronJobs[seasonID]
	if !exists {
		return
	}
	s.cronRunner.Remove(entryID)
	delete(s.cronJobs, seasonID)
}

func (s *SchedulerService) recordDispatch(ctx context.Context, seasonID string) {
	if s.dispatchRepo == nil {
		return
	}
	now := s.now().UTC()
	traceID, spanID := traceMetaFromContext(ctx)
	event := jobscheduler.DispatchEvent{
		DispatchID: dedupKey("evaluate-season", seasonID, now, time.Minute),
		JobName:    "evaluate-season",
		JobPath:    "scheduler.evaluateFinishedGames",
		SeasonID:   seasonID,
		Status:     jobscheduler.StatusCompleted,
		OccurredAt: now,
		TraceID:    traceID,
		SpanID:     spanID,
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record scheduler dispatch event failed", "season_id", seasonID, "error", err)
	}
}

// dedupKey buckets at into bucket-sized slots so repeated ticks within the
// same slot collapse onto one dispatch id; prefix/seasonID are sanitized so
// the result is safe as an index key.
func dedupKey(prefix, seasonID string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	prefix = sanitizeDedupSegment(prefix)
	seasonID = sanitizeDedupSegment(seasonID)
	return prefix + "-" + seasonID + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}

type gameLifecyclePayload struct {
	GameID   string    `json:"game_id"`
	SeasonID string    `json:"season_id"`
	Status   string    `json:"status"`
	At       time.Time `json:"at"`
}

type gamesEvaluatedPayload struct {
	GameIDs []string  `json:"game_ids"`
	At      time.Time `json:"at"`
}
