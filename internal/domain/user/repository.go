package user

import "context"

// Repository describes the read access the core needs onto the user
// directory; user registration and mutation are owned by an external
// collaborator.
type Repository interface {
	GetByID(ctx context.Context, userID string) (User, bool, error)
}
