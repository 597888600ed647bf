package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vitalabs/competition-engine/internal/domain/gamesummary"
	qb "github.com/vitalabs/competition-engine/internal/platform/querybuilder"
)

type GameSummaryRepository struct {
	db *sqlx.DB
}

func NewGameSummaryRepository(db *sqlx.DB) *GameSummaryRepository {
	return &GameSummaryRepository{db: db}
}

func (r *GameSummaryRepository) Create(ctx context.Context, s gamesummary.GameSummary) error {
	insertModel := struct {
		GameID                string  `db:"game_id"`
		SeasonID              string  `db:"season_id"`
		HomeTeamID            string  `db:"home_team_id"`
		HomeTotalScore        int     `db:"home_total_score"`
		HomeAvgScorePerPlayer float64 `db:"home_avg_score_per_player"`
		HomeTotalWorkouts     int     `db:"home_total_workouts"`
		HomeTopScorerUserID   string  `db:"home_top_scorer_user_id"`
		HomeLowestUserID      string  `db:"home_lowest_user_id"`
		AwayTeamID            string  `db:"away_team_id"`
		AwayTotalScore        int     `db:"away_total_score"`
		AwayAvgScorePerPlayer float64 `db:"away_avg_score_per_player"`
		AwayTotalWorkouts     int     `db:"away_total_workouts"`
		AwayTopScorerUserID   string  `db:"away_top_scorer_user_id"`
		AwayLowestUserID      string  `db:"away_lowest_user_id"`
		FinalHomeScore        int     `db:"final_home_score"`
		FinalAwayScore        int     `db:"final_away_score"`
		WinnerTeamID          string  `db:"winner_team_id"`
		MVPUserID             string  `db:"mvp_user_id"`
		LVPUserID             string  `db:"lvp_user_id"`
	}{
		GameID:                s.GameID,
		SeasonID:              s.SeasonID,
		HomeTeamID:            s.Home.TeamID,
		HomeTotalScore:        s.Home.TotalScore,
		HomeAvgScorePerPlayer: s.Home.AvgScorePerPlayer,
		HomeTotalWorkouts:     s.Home.TotalWorkouts,
		HomeTopScorerUserID:   s.Home.TopScorerUserID,
		HomeLowestUserID:      s.Home.LowestUserID,
		AwayTeamID:            s.Away.TeamID,
		AwayTotalScore:        s.Away.TotalScore,
		AwayAvgScorePerPlayer: s.Away.AvgScorePerPlayer,
		AwayTotalWorkouts:     s.Away.TotalWorkouts,
		AwayTopScorerUserID:   s.Away.TopScorerUserID,
		AwayLowestUserID:      s.Away.LowestUserID,
		FinalHomeScore:        s.FinalHomeScore,
		FinalAwayScore:        s.FinalAwayScore,
		MVPUserID:             s.MVPUserID,
		LVPUserID:             s.LVPUserID,
	}
	if s.WinnerTeamID != nil {
		insertModel.WinnerTeamID = *s.WinnerTeamID
	}

	query, args, err := qb.InsertModel("game_summaries", insertModel, "ON CONFLICT (game_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert game summary query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert game summary game_id=%s: %w", s.GameID, err)
	}

	return nil
}

func (r *GameSummaryRepository) GetByGameID(ctx context.Context, gameID string) (gamesummary.GameSummary, bool, error) {
	query, args, err := qb.Select("*").From("game_summaries").Where(qb.Eq("game_id", gameID)).ToSQL()
	if err != nil {
		return gamesummary.GameSummary{}, false, fmt.Errorf("build get game summary query: %w", err)
	}

	var row gameSummaryTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return gamesummary.GameSummary{}, false, nil
		}
		return gamesummary.GameSummary{}, false, fmt.Errorf("get game summary: %w", err)
	}

	return mapGameSummaryRow(row), true, nil
}

func (r *GameSummaryRepository) ExistsForGame(ctx context.Context, gameID string) (bool, error) {
	query, args, err := qb.Select("game_id").From("game_summaries").Where(qb.Eq("game_id", gameID)).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build exists for game query: %w", err)
	}

	var found string
	if err := r.db.GetContext(ctx, &found, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check game summary exists: %w", err)
	}

	return true, nil
}

func mapGameSummaryRow(row gameSummaryTableModel) gamesummary.GameSummary {
	var winnerTeamID *string
	if row.WinnerTeamID.Valid {
		v := row.WinnerTeamID.String
		winnerTeamID = &v
	}

	return gamesummary.GameSummary{
		GameID:   row.GameID,
		SeasonID: row.SeasonID,
		Home: gamesummary.TeamAggregate{
			TeamID:            row.HomeTeamID,
			TotalScore:        row.HomeTotalScore,
			AvgScorePerPlayer: row.HomeAvgScorePerPlayer,
			TotalWorkouts:     row.HomeTotalWorkouts,
			TopScorerUserID:   nullStringToString(row.HomeTopScorerUserID),
			LowestUserID:      nullStringToString(row.HomeLowestUserID),
		},
		Away: gamesummary.TeamAggregate{
			TeamID:            row.AwayTeamID,
			TotalScore:        row.AwayTotalScore,
			AvgScorePerPlayer: row.AwayAvgScorePerPlayer,
			TotalWorkouts:     row.AwayTotalWorkouts,
			TopScorerUserID:   nullStringToString(row.AwayTopScorerUserID),
			LowestUserID:      nullStringToString(row.AwayLowestUserID),
		},
		FinalHomeScore: row.FinalHomeScore,
		FinalAwayScore: row.FinalAwayScore,
		WinnerTeamID:   winnerTeamID,
		MVPUserID:      row.MVPUserID,
		LVPUserID:      row.LVPUserID,
	}
}
