package team

import "context"

// Repository describes team and team-membership persistence needs from use
// cases.
type Repository interface {
	ListBySeason(ctx context.Context, seasonID string) ([]Team, error)
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	Create(ctx context.Context, t Team) (string, error)

	ListMembers(ctx context.Context, teamID string) ([]Member, error)
	ListActiveTeamsForUser(ctx context.Context, userID, seasonID string) ([]Team, error)
	MemberOf(ctx context.Context, teamID, userID string) (Member, bool, error)
	UpsertMember(ctx context.Context, m Member) error
	CountActiveOwners(ctx context.Context, teamID string) (int, error)
}

// PlayerPoolRepository manages users not currently on an active team.
type PlayerPoolRepository interface {
	Upsert(ctx context.Context, entry PlayerPoolEntry) error
	Remove(ctx context.Context, userID string) error
	List(ctx context.Context) ([]PlayerPoolEntry, error)
}
