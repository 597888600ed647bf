package memory

import (
	"context"
	"sync"

	"github.com/vitalabs/competition-engine/internal/domain/healthprofile"
)

type HealthProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]healthprofile.HealthProfile
}

func NewHealthProfileRepository() *HealthProfileRepository {
	return &HealthProfileRepository{profiles: make(map[string]healthprofile.HealthProfile)}
}

func (r *HealthProfileRepository) GetByUserID(_ context.Context, userID string) (healthprofile.HealthProfile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	return p, ok, nil
}

func (r *HealthProfileRepository) Upsert(_ context.Context, profile healthprofile.HealthProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[profile.UserID] = profile
	return nil
}
