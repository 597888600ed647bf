package healthprofile

import "context"

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (HealthProfile, bool, error)
	Upsert(ctx context.Context, profile HealthProfile) error
}
