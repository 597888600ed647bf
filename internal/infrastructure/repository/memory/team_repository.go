package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vitalabs/competition-engine/internal/domain/team"
)

type TeamRepository struct {
	mu             sync.RWMutex
	teamsBySeason  map[string][]team.Team
	teamsByID      map[string]team.Team
	membersByTeam  map[string][]team.Member
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	bySeason := make(map[string][]team.Team)
	byID := make(map[string]team.Team)
	for _, item := range teams {
		bySeason[item.SeasonID] = append(bySeason[item.SeasonID], item)
		byID[item.ID] = item
	}

	return &TeamRepository{
		teamsBySeason: bySeason,
		teamsByID:     byID,
		membersByTeam: make(map[string][]team.Member),
	}
}

func (r *TeamRepository) ListBySeason(_ context.Context, seasonID string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	teams := r.teamsBySeason[seasonID]
	out := make([]team.Team, 0, len(teams))
	out = append(out, teams...)

	return out, nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.teamsByID[teamID]
	return t, ok, nil
}

func (r *TeamRepository) Create(_ context.Context, t team.Team) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	r.teamsByID[t.ID] = t
	r.teamsBySeason[t.SeasonID] = append(r.teamsBySeason[t.SeasonID], t)

	return t.ID, nil
}

func (r *TeamRepository) ListMembers(_ context.Context, teamID string) ([]team.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.membersByTeam[teamID]
	out := make([]team.Member, 0, len(members))
	out = append(out, members...)

	return out, nil
}

func (r *TeamRepository) ListActiveTeamsForUser(_ context.Context, userID, seasonID string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []team.Team
	for teamID, members := range r.membersByTeam {
		for _, m := range members {
			if m.UserID != userID || m.Status != team.MemberStatusActive {
				continue
			}
			t, ok := r.teamsByID[teamID]
			if ok && t.SeasonID == seasonID {
				out = append(out, t)
			}
		}
	}

	return out, nil
}

func (r *TeamRepository) MemberOf(_ context.Context, teamID, userID string) (team.Member, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.membersByTeam[teamID] {
		if m.UserID == userID {
			return m, true, nil
		}
	}

	return team.Member{}, false, nil
}

func (r *TeamRepository) UpsertMember(_ context.Context, m team.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := r.membersByTeam[m.TeamID]
	for idx := range rows {
		if rows[idx].UserID == m.UserID {
			rows[idx] = m
			r.membersByTeam[m.TeamID] = rows
			return nil
		}
	}
	r.membersByTeam[m.TeamID] = append(rows, m)

	return nil
}

func (r *TeamRepository) CountActiveOwners(_ context.Context, teamID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, m := range r.membersByTeam[teamID] {
		if m.Role == team.MemberRoleOwner && m.Status == team.MemberStatusActive {
			count++
		}
	}

	return count, nil
}

type PlayerPoolRepository struct {
	mu      sync.RWMutex
	entries map[string]team.PlayerPoolEntry
}

func NewPlayerPoolRepository() *PlayerPoolRepository {
	return &PlayerPoolRepository{entries: make(map[string]team.PlayerPoolEntry)}
}

func (r *PlayerPoolRepository) Upsert(_ context.Context, entry team.PlayerPoolEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[entry.UserID] = entry
	return nil
}

func (r *PlayerPoolRepository) Remove(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, userID)
	return nil
}

func (r *PlayerPoolRepository) List(_ context.Context) ([]team.PlayerPoolEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.PlayerPoolEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}

	return out, nil
}
