package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/vitalabs/competition-engine/internal/domain/game"
	"github.com/vitalabs/competition-engine/internal/domain/gamesummary"
	"github.com/vitalabs/competition-engine/internal/usecase"
)

type gameDTO struct {
	ID            string     `json:"id"`
	SeasonID      string     `json:"season_id"`
	HomeTeamID    string     `json:"home_team_id"`
	AwayTeamID    string     `json:"away_team_id"`
	WeekNumber    int        `json:"week_number"`
	Status        string     `json:"status"`
	HomeScore     int        `json:"home_score"`
	AwayScore     int        `json:"away_score"`
	GameStartTime *time.Time `json:"game_start_time,omitempty"`
	GameEndTime   *time.Time `json:"game_end_time,omitempty"`
	ProgressPct   float64    `json:"progress_pct"`
}

type gameSummaryDTO struct {
	GameID         string              `json:"game_id"`
	SeasonID       string              `json:"season_id"`
	Home           teamAggregateDTO    `json:"home"`
	Away           teamAggregateDTO    `json:"away"`
	FinalHomeScore int                 `json:"final_home_score"`
	FinalAwayScore int                 `json:"final_away_score"`
	WinnerTeamID   *string             `json:"winner_team_id,omitempty"`
	MVPUserID      string              `json:"mvp_user_id"`
	LVPUserID      string              `json:"lvp_user_id"`
}

type teamAggregateDTO struct {
	TeamID            string  `json:"team_id"`
	TotalScore        int     `json:"total_score"`
	AvgScorePerPlayer float64 `json:"avg_score_per_player"`
	TotalWorkouts     int     `json:"total_workouts"`
	TopScorerUserID   string  `json:"top_scorer_user_id"`
	LowestUserID      string  `json:"lowest_user_id"`
}

type standingDTO struct {
	TeamID      string `json:"team_id"`
	GamesPlayed int    `json:"games_played"`
	Wins        int    `json:"wins"`
	Draws       int    `json:"draws"`
	Losses      int    `json:"losses"`
	Points      int    `json:"points"`
	Position    int    `json:"position"`
}

// ListLiveGames is GET /games/live.
func (h *Handler) ListLiveGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLiveGames")
	defer span.End()

	games, err := h.gameRepo.ListLive(ctx, time.Now().UTC())
	if err != nil {
		writeError(ctx, w, fmt.Errorf("list live games: %w", err))
		return
	}

	out := make([]gameDTO, 0, len(games))
	for _, g := range games {
		out = append(out, gameToDTO(g))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

// GetLiveGame is GET /games/{id}/live.
func (h *Handler) GetLiveGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLiveGame")
	defer span.End()

	id := r.PathValue("id")
	g, found, err := h.gameRepo.GetByID(ctx, id)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("get game: %w", err))
		return
	}
	if !found {
		writeError(ctx, w, fmt.Errorf("%w: game=%s", usecase.ErrNotFound, id))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameToDTO(g))
}

// GetGameSummary is GET /games/{id}/summary: 404 until the game has
// been evaluated.
func (h *Handler) GetGameSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGameSummary")
	defer span.End()

	id := r.PathValue("id")
	summary, found, err := h.gameSummaryRepo.GetByGameID(ctx, id)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("get game summary: %w", err))
		return
	}
	if !found {
		writeError(ctx, w, fmt.Errorf("%w: summary for game=%s not yet evaluated", usecase.ErrNotFound, id))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameSummaryDTO{
		GameID:         summary.GameID,
		SeasonID:       summary.SeasonID,
		Home:           teamAggregateToDTO(summary.Home),
		Away:           teamAggregateToDTO(summary.Away),
		FinalHomeScore: summary.FinalHomeScore,
		FinalAwayScore: summary.FinalAwayScore,
		WinnerTeamID:   summary.WinnerTeamID,
		MVPUserID:      summary.MVPUserID,
		LVPUserID:      summary.LVPUserID,
	})
}

// GetSeasonStandings is GET /seasons/{id}/standings: ordered by position,
// per the tie-break chain applied at evaluation time.
func (h *Handler) GetSeasonStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeasonStandings")
	defer span.End()

	seasonID := r.PathValue("id")
	standings, err := h.standingRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("list standings: %w", err))
		return
	}

	out := make([]standingDTO, 0, len(standings))
	for _, st := range standings {
		out = append(out, standingDTO{
			TeamID:      st.TeamID,
			GamesPlayed: st.GamesPlayed,
			Wins:        st.Wins,
			Draws:       st.Draws,
			Losses:      st.Losses,
			Points:      st.EffectivePoints(),
			Position:    st.Position,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func gameToDTO(g game.Game) gameDTO {
	return gameDTO{
		ID:            g.ID,
		SeasonID:      g.SeasonID,
		HomeTeamID:    g.HomeTeamID,
		AwayTeamID:    g.AwayTeamID,
		WeekNumber:    g.WeekNumber,
		Status:        string(g.Status),
		HomeScore:     g.HomeScore,
		AwayScore:     g.AwayScore,
		GameStartTime: g.GameStartTime,
		GameEndTime:   g.GameEndTime,
		ProgressPct:   g.Progress(time.Now().UTC()),
	}
}

func teamAggregateToDTO(a gamesummary.TeamAggregate) teamAggregateDTO {
	return teamAggregateDTO{
		TeamID:            a.TeamID,
		TotalScore:        a.TotalScore,
		AvgScorePerPlayer: a.AvgScorePerPlayer,
		TotalWorkouts:     a.TotalWorkouts,
		TopScorerUserID:   a.TopScorerUserID,
		LowestUserID:      a.LowestUserID,
	}
}
