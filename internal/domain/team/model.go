package team

import (
	"fmt"
	"time"
)

type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusInactive MemberStatus = "inactive"
)

type Team struct {
	ID          string
	Name        string
	Color       string
	OwnerUserID string
	SeasonID    string
}

func (t Team) Validate() error {
	if len(t.Name) < 2 || len(t.Name) > 50 {
		return fmt.Errorf("team name must be between 2 and 50 characters")
	}
	if t.OwnerUserID == "" {
		return fmt.Errorf("owner user id is required")
	}
	if t.SeasonID == "" {
		return fmt.Errorf("season id is required")
	}

	return nil
}

type Member struct {
	TeamID   string
	UserID   string
	Role     MemberRole
	Status   MemberStatus
	JoinedAt time.Time
}

// PlayerPoolEntry represents an active user not currently on any active
// team, eligible for team invites.
type PlayerPoolEntry struct {
	UserID       string
	LastActiveAt time.Time
}
