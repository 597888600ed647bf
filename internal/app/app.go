package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/vitalabs/competition-engine/internal/config"
	"github.com/vitalabs/competition-engine/internal/domain/game"
	"github.com/vitalabs/competition-engine/internal/domain/jobscheduler"
	"github.com/vitalabs/competition-engine/internal/domain/season"
	"github.com/vitalabs/competition-engine/internal/domain/team"
	"github.com/vitalabs/competition-engine/internal/domain/workout"
	"github.com/vitalabs/competition-engine/internal/eventbus"
	"github.com/vitalabs/competition-engine/internal/infrastructure/account/anubis"
	postgresrepo "github.com/vitalabs/competition-engine/internal/infrastructure/repository/postgres"
	"github.com/vitalabs/competition-engine/internal/interfaces/httpapi"
	"github.com/vitalabs/competition-engine/internal/interfaces/wsgateway"
	"github.com/vitalabs/competition-engine/internal/platform/logging"
	"github.com/vitalabs/competition-engine/internal/platform/resilience"
	"github.com/vitalabs/competition-engine/internal/usecase"
)

// Runtime bundles everything NewRuntime constructs that a caller needs
// beyond the router itself: the scheduler loop (cmd/worker drives it) and a
// close func releasing the DB connection and the event publisher.
type Runtime struct {
	Router    http.Handler
	Scheduler *usecase.SchedulerService
	Evaluator *usecase.EvaluationService
	Close     func() error

	// GameRepo, WorkoutRepo, TeamRepo, SeasonRepo and PlayerPoolRepo are
	// exposed for cmd/worker's one-off maintenance subcommands
	// (evaluate-date, cleanup-duplicates), which need direct repository
	// access rather than a full service.
	GameRepo       game.Repository
	WorkoutRepo    workout.Repository
	TeamRepo       team.Repository
	SeasonRepo     season.Repository
	PlayerPoolRepo team.PlayerPoolRepository
}

// NewRuntime wires the full dependency graph: Postgres repositories, the
// Redis event bus, the workout/attribution/evaluation/leaderboard/scheduler
// services, the JWT+Anubis auth chain, the websocket gateway, and the HTTP
// router.
func NewRuntime(cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	userRepo := postgresrepo.NewUserRepository(db)
	healthProfileRepo := postgresrepo.NewHealthProfileRepository(db)
	workoutRepo := postgresrepo.NewWorkoutRepository(db)
	gameRepo := postgresrepo.NewGameRepository(db)
	gameSummaryRepo := postgresrepo.NewGameSummaryRepository(db)
	standingRepo := postgresrepo.NewStandingRepository(db)
	teamRepo := postgresrepo.NewTeamRepository(db)
	playerPoolRepo := postgresrepo.NewPlayerPoolRepository(db)
	seasonRepo := postgresrepo.NewSeasonRepository(db)
	scoreEventRepo := postgresrepo.NewScoreEventRepository(db)
	jobDispatchRepo := postgresrepo.NewJobDispatchRepository(db)

	bus, err := eventbus.NewPublisher(eventbus.PublisherConfig{
		RedisURL: cfg.BrokerURL,
		Timeout:  5 * time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled: true,
		},
	}, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("construct event publisher: %w", err)
	}

	attributionSvc := usecase.NewAttributionService(gameRepo, teamRepo, scoreEventRepo, bus, logger)
	workoutSvc := usecase.NewWorkoutService(workoutRepo, healthProfileRepo, "", cfg.ScoringRates, attributionSvc, bus, logger)
	leaderboardSvc := usecase.NewLeaderboardService(scoreEventRepo, logger)
	evaluationSvc := usecase.NewEvaluationService(gameRepo, scoreEventRepo, gameSummaryRepo, standingRepo, bus, logger)
	seasonSvc := usecase.NewSeasonService(seasonRepo, logger)

	var dispatchRepo jobscheduler.Repository = jobDispatchRepo
	scheduler := usecase.NewSchedulerService(gameRepo, seasonRepo, evaluationSvc, dispatchRepo, bus, logger, usecase.SchedulerConfig{
		TickInterval: cfg.SchedulerTickInterval,
	})

	verifier, err := buildTokenVerifier(cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build token verifier: %w", err)
	}

	gateway := wsgateway.New(verifier, wsgateway.Config{
		BrokerURL:     cfg.BrokerURL,
		PingInterval:  cfg.WSPingInterval,
		WriteDeadline: cfg.WSWriteDeadline,
		DevMode:       cfg.AppEnv == config.EnvDev,
	}, logger)

	rateLimitOpts, err := redis.ParseURL(cfg.BrokerURL)
	if err != nil {
		_ = db.Close()
		_ = bus.Close()
		return nil, fmt.Errorf("parse broker url for rate limiter: %w", err)
	}
	rateLimitClient := redis.NewClient(rateLimitOpts)
	rateLimiter := httpapi.NewRateLimiter(rateLimitClient, cfg.TokenRateLimit)

	handler := httpapi.NewHandler(
		workoutSvc,
		leaderboardSvc,
		evaluationSvc,
		seasonSvc,
		workoutRepo,
		gameRepo,
		gameSummaryRepo,
		standingRepo,
		teamRepo,
		seasonRepo,
		userRepo,
		logger,
	)

	router := httpapi.NewRouter(
		handler,
		verifier,
		gateway,
		logger,
		cfg.CORSAllowedOrigins,
		cfg.UptraceCaptureRequestBody,
		cfg.UptraceRequestBodyMaxBytes,
		rateLimiter,
	)

	closeFn := func() error {
		_ = rateLimitClient.Close()
		_ = bus.Close()
		return db.Close()
	}

	return &Runtime{
		Router:         router,
		Scheduler:      scheduler,
		Evaluator:      evaluationSvc,
		Close:          closeFn,
		GameRepo:       gameRepo,
		WorkoutRepo:    workoutRepo,
		TeamRepo:       teamRepo,
		SeasonRepo:     seasonRepo,
		PlayerPoolRepo: playerPoolRepo,
	}, nil
}

// NewHTTPHandler builds the runtime and returns only the router plus a close
// func, discarding the scheduler. cmd/worker does not use it: its
// subcommands call NewRuntime directly.
func NewHTTPHandler(cfg config.Config, logger *logging.Logger) (http.Handler, func() error, error) {
	rt, err := NewRuntime(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return rt.Router, rt.Close, nil
}

// NewHTTPServer is the entrypoint cmd/api uses: a ready-to-run *http.Server
// wrapping NewRuntime's router with the configured read/write timeouts.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	rt, err := NewRuntime(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      rt.Router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}

// buildTokenVerifier assembles the local JWT verifier, optionally wrapped
// in a fallback to remote Anubis introspection.
func buildTokenVerifier(cfg config.Config) (httpapi.TokenVerifier, error) {
	var primary httpapi.TokenVerifier
	if cfg.JWTLocalVerifyEnabled {
		jwtVerifier, err := httpapi.NewJWTVerifier(cfg.JWKSURL, cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			return nil, fmt.Errorf("build jwt verifier: %w", err)
		}
		primary = jwtVerifier
	}

	if cfg.AnubisBaseURL == "" {
		if primary == nil {
			return nil, fmt.Errorf("no token verifier configured: enable JWT_LOCAL_VERIFY_ENABLED or set ANUBIS_BASE_URL")
		}
		return primary, nil
	}

	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	anubisClient := anubis.NewClient(&http.Client{Timeout: 5 * time.Second}, cfg.AnubisBaseURL, cfg.AnubisIntrospectPath, slogLogger)
	if primary == nil {
		return anubisClient, nil
	}

	return httpapi.NewFallbackVerifier(primary, anubisClient), nil
}
