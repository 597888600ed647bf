package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/vitalabs/competition-engine/internal/domain/scoreevent"
	"github.com/vitalabs/competition-engine/internal/platform/logging"
)

// TrailingAverageDays and TrailingAverageBestDays define the trailing
// average: best 5 of the last 7 daily totals, divided by 7 (not by the
// count of days actually scored — an empty day counts as zero).
const (
	TrailingAverageDays     = 7
	TrailingAverageBestDays = 5
)

// LeaderboardCandidate is one user eligible for ranking — the service
// itself is agnostic to how the candidate set was sourced (player pool,
// active team membership, a whole season's rosters).
type LeaderboardCandidate struct {
	UserID   string
	Username string
}

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	UserID          string
	Username        string
	TrailingAverage float64
	Rank            int
}

// LeaderboardService is the trailing-average ranking helper exposed over
// `/leaderboard?sort_by=trailing_average`.
type LeaderboardService struct {
	scoreEventRepo scoreevent.Repository
	logger         *logging.Logger
}

func NewLeaderboardService(scoreEventRepo scoreevent.Repository, logger *logging.Logger) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeaderboardService{scoreEventRepo: scoreEventRepo, logger: logger}
}

// TrailingAverage computes one user's best-5-of-7 daily average.
func (s *LeaderboardService) TrailingAverage(ctx context.Context, userID string) (float64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.TrailingAverage")
	defer span.End()

	daily, err := s.scoreEventRepo.ListDailyTotalsByUser(ctx, userID, TrailingAverageDays)
	if err != nil {
		return 0, fmt.Errorf("list daily totals: %w", err)
	}

	return trailingAverageFromDailyTotals(daily), nil
}

// Leaderboard ranks every candidate by trailing average, descending, with
// ties broken by user_id ascending for determinism.
func (s *LeaderboardService) Leaderboard(ctx context.Context, candidates []LeaderboardCandidate) ([]LeaderboardEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Leaderboard")
	defer span.End()

	entries := make([]LeaderboardEntry, 0, len(candidates))
	for _, c := range candidates {
		daily, err := s.scoreEventRepo.ListDailyTotalsByUser(ctx, c.UserID, TrailingAverageDays)
		if err != nil {
			s.logger.WarnContext(ctx, "list daily totals failed, scoring user as zero", "user_id", c.UserID, "error", err)
			daily = nil
		}
		entries = append(entries, LeaderboardEntry{
			UserID:          c.UserID,
			Username:        c.Username,
			TrailingAverage: trailingAverageFromDailyTotals(daily),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TrailingAverage != entries[j].TrailingAverage {
			return entries[i].TrailingAverage > entries[j].TrailingAverage
		}
		return entries[i].UserID < entries[j].UserID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries, nil
}

func trailingAverageFromDailyTotals(daily map[string]int) float64 {
	if len(daily) == 0 {
		return 0
	}

	totals := make([]int, 0, len(daily))
	for _, v := range daily {
		totals = append(totals, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(totals)))

	bestCount := TrailingAverageBestDays
	if len(totals) < bestCount {
		bestCount = len(totals)
	}

	sum := 0
	for _, v := range totals[:bestCount] {
		sum += v
	}

	return float64(sum) / float64(TrailingAverageDays)
}
