package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vitalabs/competition-engine/internal/domain/team"
	qb "github.com/vitalabs/competition-engine/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) ListBySeason(ctx context.Context, seasonID string) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("created_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by season query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams by season: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapTeamRow(row))
	}

	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").Where(qb.Eq("id", teamID)).ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team by id query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team by id: %w", err)
	}

	return mapTeamRow(row), true, nil
}

func mapTeamRow(row teamTableModel) team.Team {
	return team.Team{
		ID:          row.ID,
		Name:        row.Name,
		Color:       row.Color,
		OwnerUserID: row.OwnerUserID,
		SeasonID:    row.SeasonID,
	}
}

func (r *TeamRepository) Create(ctx context.Context, t team.Team) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	insertModel := struct {
		ID          string `db:"id"`
		Name        string `db:"name"`
		Color       string `db:"color"`
		OwnerUserID string `db:"owner_user_id"`
		SeasonID    string `db:"season_id"`
	}{t.ID, t.Name, t.Color, t.OwnerUserID, t.SeasonID}
	query, args, err := qb.InsertModel("teams", insertModel, "")
	if err != nil {
		return "", fmt.Errorf("build insert team query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert team: %w", err)
	}

	return t.ID, nil
}

func (r *TeamRepository) ListMembers(ctx context.Context, teamID string) ([]team.Member, error) {
	query, args, err := qb.Select("*").From("team_members").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("joined_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list team members query: %w", err)
	}

	var rows []teamMemberTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select team members: %w", err)
	}

	out := make([]team.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapMemberRow(row))
	}

	return out, nil
}

func mapMemberRow(row teamMemberTableModel) team.Member {
	return team.Member{
		TeamID:   row.TeamID,
		UserID:   row.UserID,
		Role:     team.MemberRole(row.Role),
		Status:   team.MemberStatus(row.Status),
		JoinedAt: row.JoinedAt,
	}
}

func (r *TeamRepository) ListActiveTeamsForUser(ctx context.Context, userID, seasonID string) ([]team.Team, error) {
	query, args, err := qb.Select("teams.*").From("teams").
		Where(
			qb.Eq("teams.season_id", seasonID),
			qb.Expr("teams.id IN (SELECT team_id FROM team_members WHERE user_id = ? AND status = 'active')", userID),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active teams for user query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select active teams for user: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapTeamRow(row))
	}

	return out, nil
}

func (r *TeamRepository) MemberOf(ctx context.Context, teamID, userID string) (team.Member, bool, error) {
	query, args, err := qb.Select("*").From("team_members").
		Where(qb.Eq("team_id", teamID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return team.Member{}, false, fmt.Errorf("build member of query: %w", err)
	}

	var row teamMemberTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Member{}, false, nil
		}
		return team.Member{}, false, fmt.Errorf("get team member: %w", err)
	}

	return mapMemberRow(row), true, nil
}

func (r *TeamRepository) UpsertMember(ctx context.Context, m team.Member) error {
	insertModel := struct {
		TeamID string `db:"team_id"`
		UserID string `db:"user_id"`
		Role   string `db:"role"`
		Status string `db:"status"`
	}{m.TeamID, m.UserID, string(m.Role), string(m.Status)}

	query, args, err := qb.InsertModel("team_members", insertModel, `ON CONFLICT (team_id, user_id)
DO UPDATE SET
    role = EXCLUDED.role,
    status = EXCLUDED.status`)
	if err != nil {
		return fmt.Errorf("build upsert team member query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert team member team_id=%s user_id=%s: %w", m.TeamID, m.UserID, err)
	}

	return nil
}

func (r *TeamRepository) CountActiveOwners(ctx context.Context, teamID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("team_members").
		Where(
			qb.Eq("team_id", teamID),
			qb.Eq("role", string(team.MemberRoleOwner)),
			qb.Eq("status", string(team.MemberStatusActive)),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count active owners query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count active owners: %w", err)
	}

	return count, nil
}

type PlayerPoolRepository struct {
	db *sqlx.DB
}

func NewPlayerPoolRepository(db *sqlx.DB) *PlayerPoolRepository {
	return &PlayerPoolRepository{db: db}
}

func (r *PlayerPoolRepository) Upsert(ctx context.Context, entry team.PlayerPoolEntry) error {
	insertModel := struct {
		UserID       string    `db:"user_id"`
		LastActiveAt time.Time `db:"last_active_at"`
	}{entry.UserID, entry.LastActiveAt}

	query, args, err := qb.InsertModel("player_pool", insertModel, `ON CONFLICT (user_id)
DO UPDATE SET last_active_at = EXCLUDED.last_active_at`)
	if err != nil {
		return fmt.Errorf("build upsert player pool entry query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player pool entry user_id=%s: %w", entry.UserID, err)
	}

	return nil
}

func (r *PlayerPoolRepository) Remove(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM player_pool WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("remove player pool entry user_id=%s: %w", userID, err)
	}

	return nil
}

func (r *PlayerPoolRepository) List(ctx context.Context) ([]team.PlayerPoolEntry, error) {
	query, args, err := qb.Select("*").From("player_pool").OrderBy("last_active_at DESC").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list player pool query: %w", err)
	}

	var rows []playerPoolTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select player pool: %w", err)
	}

	out := make([]team.PlayerPoolEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, team.PlayerPoolEntry{UserID: row.UserID, LastActiveAt: row.LastActiveAt})
	}

	return out, nil
}
