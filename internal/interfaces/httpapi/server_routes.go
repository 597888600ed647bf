package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerWorkoutRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /workouts/upload", RequireAuth(verifier, http.HandlerFunc(handler.UploadWorkout)))
	mux.Handle("POST /workouts/check-sync", RequireAuth(verifier, http.HandlerFunc(handler.CheckSyncStatus)))
	mux.Handle("GET /workouts/{id}", RequireAuth(verifier, http.HandlerFunc(handler.GetWorkout)))
	mux.Handle("GET /workouts/{id}/scoring-feedback", RequireAuth(verifier, http.HandlerFunc(handler.GetWorkoutScoringFeedback)))
}

func registerGameRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /games/live", handler.ListLiveGames)
	mux.HandleFunc("GET /games/{id}/live", handler.GetLiveGame)
	mux.HandleFunc("GET /games/{id}/summary", handler.GetGameSummary)
	mux.HandleFunc("GET /seasons/{id}/standings", handler.GetSeasonStandings)
}

func registerLeaderboardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /leaderboard", handler.GetLeaderboard)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /admin/seasons",
		RequireAuth(verifier, RequireAdmin(http.HandlerFunc(handler.CreateSeason))))
	mux.Handle("POST /admin/games/{id}/postpone",
		RequireAuth(verifier, RequireAdmin(http.HandlerFunc(handler.PostponeGame))))
	mux.Handle("POST /admin/games/{id}/force-evaluate",
		RequireAuth(verifier, RequireAdmin(http.HandlerFunc(handler.ForceEvaluateGame))))
}
