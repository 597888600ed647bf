package scoreevent

import "context"

type Repository interface {
	Append(ctx context.Context, e ScoreEvent) (string, error)
	ListByGame(ctx context.Context, gameID string) ([]ScoreEvent, error)
	// ListDailyTotalsByUser returns, per calendar day (UTC), the summed
	// (stamina+strength) for a user — the basis of the trailing-average
	// leaderboard metric.
	ListDailyTotalsByUser(ctx context.Context, userID string, days int) (map[string]int, error)
}
