package usecase

import "context"

// Event type taxonomy. event_type is an opaque string on the wire.
const (
	EventWorkoutProcessed     = "WorkoutProcessed"
	EventLiveScoreUpdate      = "LiveScoreUpdate"
	EventGameStarted          = "GameStarted"
	EventGameFinished         = "GameFinished"
	EventGameSummaryCreated   = "GameSummaryCreated"
	EventTeamStandingsUpdated = "TeamStandingsUpdated"
	EventGamesEvaluated       = "GamesEvaluated"
)

// EventPublisher is the fire-and-forget fan-out point every service calls
// after a state change. Implementations must never block the caller on a
// broker outage — publish failures are logged, not returned.
type EventPublisher interface {
	PublishGlobal(ctx context.Context, eventType string, payload any)
	PublishToUser(ctx context.Context, userID, eventType string, payload any)
}

type noopEventPublisher struct{}

func (noopEventPublisher) PublishGlobal(context.Context, string, any)          {}
func (noopEventPublisher) PublishToUser(context.Context, string, string, any) {}

// NewNoopEventPublisher returns a publisher that drops every event, used
// when no broker is configured (tests, offline tools).
func NewNoopEventPublisher() EventPublisher { return noopEventPublisher{} }
