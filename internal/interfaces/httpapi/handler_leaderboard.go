package httpapi

import (
	"fmt"
	"net/http"

	"github.com/vitalabs/competition-engine/internal/usecase"
)

type leaderboardEntryDTO struct {
	UserID          string  `json:"user_id"`
	Username        string  `json:"username"`
	TrailingAverage float64 `json:"trailing_average"`
	Rank            int     `json:"rank"`
}

// GetLeaderboard is GET /leaderboard?sort_by=trailing_average&season_id=...
// The ranked candidate pool is every active member of every team in the
// given season.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	seasonID := r.URL.Query().Get("season_id")
	if seasonID == "" {
		writeError(ctx, w, fmt.Errorf("%w: season_id query parameter is required", usecase.ErrInvalidInput))
		return
	}

	teams, err := h.teamRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("list teams by season: %w", err))
		return
	}

	seen := make(map[string]bool)
	candidates := make([]usecase.LeaderboardCandidate, 0)
	for _, t := range teams {
		members, err := h.teamRepo.ListMembers(ctx, t.ID)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("list team members: %w", err))
			return
		}
		for _, m := range members {
			if seen[m.UserID] {
				continue
			}
			seen[m.UserID] = true

			username := m.UserID
			if h.userRepo != nil {
				if u, found, err := h.userRepo.GetByID(ctx, m.UserID); err == nil && found {
					username = u.Username
				}
			}
			candidates = append(candidates, usecase.LeaderboardCandidate{UserID: m.UserID, Username: username})
		}
	}

	entries, err := h.leaderboardService.Leaderboard(ctx, candidates)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("compute leaderboard: %w", err))
		return
	}

	out := make([]leaderboardEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, leaderboardEntryDTO{
			UserID:          e.UserID,
			Username:        e.Username,
			TrailingAverage: e.TrailingAverage,
			Rank:            e.Rank,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}
