package scoreevent

import (
	"time"

	"github.com/vitalabs/competition-engine/internal/domain/game"
)

// ScoreEvent is an append-only ledger entry: one scored contribution from
// one user's workout to one live game. Every event references a game that
// was in_progress at OccurredAt.
type ScoreEvent struct {
	ID             string
	GameID         string
	UserID         string
	Username       string
	TeamID         string
	TeamSide       game.TeamSide
	ScorePoints    int
	StaminaGained  int
	StrengthGained int
	OccurredAt     time.Time
}
