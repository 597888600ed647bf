package standing

import "context"

// Outcome is the result of one evaluated game from one team's perspective,
// used to atomically bump a team's record.
type Outcome int

const (
	OutcomeWin Outcome = iota
	OutcomeDraw
	OutcomeLoss
)

type Repository interface {
	ListBySeason(ctx context.Context, seasonID string) ([]Standing, error)
	EnsureExists(ctx context.Context, seasonID, teamID string) error
	RecordOutcome(ctx context.Context, seasonID, teamID string, outcome Outcome) error
	UpdatePositions(ctx context.Context, seasonID string, ordered []string) error
}
