package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/vitalabs/competition-engine/internal/usecase"
)

type createSeasonTeamRequest struct {
	Name        string `json:"name" validate:"required"`
	Color       string `json:"color" validate:"required"`
	OwnerUserID string `json:"owner_user_id" validate:"required"`
}

type createSeasonRequest struct {
	LeagueID              string                    `json:"league_id" validate:"required"`
	StartDate             time.Time                 `json:"start_date" validate:"required"`
	GameDurationMinutes   int                       `json:"game_duration_minutes" validate:"gt=0"`
	EvaluationCron        string                    `json:"evaluation_cron"`
	EvaluationTimezone    string                    `json:"evaluation_timezone"`
	AutoEvaluationEnabled bool                      `json:"auto_evaluation_enabled"`
	IsActive              bool                      `json:"is_active"`
	Roster                []createSeasonTeamRequest `json:"roster" validate:"required,min=2,dive"`
}

type createSeasonResponse struct {
	SeasonID string   `json:"season_id"`
	TeamIDs  []string `json:"team_ids"`
	GameIDs  []string `json:"game_ids"`
}

// CreateSeason is POST /admin/seasons — creates a season, its team roster,
// the double round-robin schedule generated for that roster, and a zeroed
// standings table, all atomically.
func (h *Handler) CreateSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateSeason")
	defer span.End()

	var req createSeasonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	roster := make([]usecase.TeamSeed, 0, len(req.Roster))
	for _, t := range req.Roster {
		roster = append(roster, usecase.TeamSeed{Name: t.Name, Color: t.Color, OwnerUserID: t.OwnerUserID})
	}

	result, err := h.seasonService.CreateSeason(ctx, usecase.CreateSeasonInput{
		LeagueID:              req.LeagueID,
		StartDate:             req.StartDate,
		GameDurationMinutes:   req.GameDurationMinutes,
		EvaluationCron:        req.EvaluationCron,
		EvaluationTimezone:    req.EvaluationTimezone,
		AutoEvaluationEnabled: req.AutoEvaluationEnabled,
		IsActive:              req.IsActive,
		Roster:                roster,
	})
	if err != nil {
		writeError(ctx, w, fmt.Errorf("create season: %w", err))
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, createSeasonResponse{
		SeasonID: result.SeasonID,
		TeamIDs:  result.TeamIDs,
		GameIDs:  result.GameIDs,
	})
}

// PostponeGame is POST /admin/games/{id}/postpone — an admin-only
// game-management trigger. It only affects a game still in scheduled
// status; starting or later statuses make it a no-op.
func (h *Handler) PostponeGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PostponeGame")
	defer span.End()

	id := r.PathValue("id")
	if err := h.gameRepo.Postpone(ctx, id); err != nil {
		writeError(ctx, w, fmt.Errorf("postpone game: %w", err))
		return
	}

	writeMessage(ctx, w, http.StatusOK, "game postponed")
}

// ForceEvaluateGame is POST /admin/games/{id}/force-evaluate — runs C5's
// evaluation pipeline for one game outside the scheduler's normal tick,
// idempotent under repeated calls.
func (h *Handler) ForceEvaluateGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ForceEvaluateGame")
	defer span.End()

	id := r.PathValue("id")
	if err := h.evaluationService.EvaluateGame(ctx, id); err != nil {
		writeError(ctx, w, fmt.Errorf("force evaluate game: %w", err))
		return
	}

	writeMessage(ctx, w, http.StatusOK, "game evaluated")
}
