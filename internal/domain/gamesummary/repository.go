package gamesummary

import "context"

type Repository interface {
	// Create inserts the summary for gameID. Callers check ExistsForGame
	// first under the evaluation lock so a second evaluation attempt for
	// the same game is a no-op rather than an error.
	Create(ctx context.Context, s GameSummary) error
	GetByGameID(ctx context.Context, gameID string) (GameSummary, bool, error)
	ExistsForGame(ctx context.Context, gameID string) (bool, error)
}
