package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/vitalabs/competition-engine/internal/domain/game"
	"github.com/vitalabs/competition-engine/internal/domain/gamesummary"
	"github.com/vitalabs/competition-engine/internal/domain/season"
	"github.com/vitalabs/competition-engine/internal/domain/standing"
	"github.com/vitalabs/competition-engine/internal/domain/team"
	"github.com/vitalabs/competition-engine/internal/domain/user"
	"github.com/vitalabs/competition-engine/internal/domain/workout"
	"github.com/vitalabs/competition-engine/internal/platform/logging"
	"github.com/vitalabs/competition-engine/internal/usecase"
)

// Handler holds every service/repository the HTTP surface talks to.
type Handler struct {
	workoutService     *usecase.WorkoutService
	leaderboardService *usecase.LeaderboardService
	evaluationService  *usecase.EvaluationService
	seasonService      *usecase.SeasonService
	workoutRepo        workout.Repository
	gameRepo           game.Repository
	gameSummaryRepo    gamesummary.Repository
	standingRepo       standing.Repository
	teamRepo           team.Repository
	seasonRepo         season.Repository
	userRepo           user.Repository

	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(
	workoutService *usecase.WorkoutService,
	leaderboardService *usecase.LeaderboardService,
	evaluationService *usecase.EvaluationService,
	seasonService *usecase.SeasonService,
	workoutRepo workout.Repository,
	gameRepo game.Repository,
	gameSummaryRepo gamesummary.Repository,
	standingRepo standing.Repository,
	teamRepo team.Repository,
	seasonRepo season.Repository,
	userRepo user.Repository,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		workoutService:      workoutService,
		leaderboardService:  leaderboardService,
		evaluationService:   evaluationService,
		seasonService:       seasonService,
		workoutRepo:         workoutRepo,
		gameRepo:            gameRepo,
		gameSummaryRepo:     gameSummaryRepo,
		standingRepo:        standingRepo,
		teamRepo:            teamRepo,
		seasonRepo:          seasonRepo,
		userRepo:            userRepo,
		logger:              logger,
		validator:           validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// Healthz is the liveness probe — no dependency checks, just process-up.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
