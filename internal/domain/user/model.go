package user

import "fmt"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusBanned    Status = "banned"
)

// User is an account holder. Registration, password hashing, and JWT minting
// are external collaborators; this package only models the shape the core
// needs to read.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Status       Status
}

func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}

	return nil
}

// Principal is the authenticated identity extracted from a verified bearer
// token, carrying the claims named in the external-interfaces contract.
type Principal struct {
	UserID   string
	Username string
	Role     Role
	Status   Status
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsActive() bool {
	return p.Status == StatusActive
}
