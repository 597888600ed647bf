package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vitalabs/competition-engine/internal/domain/game"
	"github.com/vitalabs/competition-engine/internal/domain/gamesummary"
	"github.com/vitalabs/competition-engine/internal/domain/scoreevent"
	"github.com/vitalabs/competition-engine/internal/domain/standing"
	"github.com/vitalabs/competition-engine/internal/platform/logging"
)

// userContribution accumulates one user's score events within one game, to
// determine MVP/LVP and per-player averages.
type userContribution struct {
	userID   string
	side     game.TeamSide
	total    int
	workouts int
	firstAt  time.Time
}

// EvaluationService is C5's evaluation half: once a game is finished, it
// aggregates every ScoreEvent into a GameSummary, records the win/draw/loss
// outcome against both teams' standings, and flips the game to evaluated.
// Every step is idempotent under restart: at most one GameSummary row is
// ever created per game.
type EvaluationService struct {
	gameRepo        game.Repository
	scoreEventRepo  scoreevent.Repository
	summaryRepo     gamesummary.Repository
	standingsRepo   standing.Repository
	bus             EventPublisher
	logger          *logging.Logger
	now             func() time.Time
}

func NewEvaluationService(
	gameRepo game.Repository,
	scoreEventRepo scoreevent.Repository,
	summaryRepo gamesummary.Repository,
	standingsRepo standing.Repository,
	bus EventPublisher,
	logger *logging.Logger,
) *EvaluationService {
	if bus == nil {
		bus = NewNoopEventPublisher()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &EvaluationService{
		gameRepo:       gameRepo,
		scoreEventRepo: scoreEventRepo,
		summaryRepo:    summaryRepo,
		standingsRepo:  standingsRepo,
		bus:            bus,
		logger:         logger,
		now:            time.Now,
	}
}

// EvaluateGame runs the full evaluation pipeline for one finished game. It
// is safe to call more than once: if a summary already exists, it no-ops.
func (s *EvaluationService) EvaluateGame(ctx context.Context, gameID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EvaluationService.EvaluateGame")
	defer span.End()

	exists, err := s.summaryRepo.ExistsForGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("check existing summary: %w", err)
	}
	if exists {
		return nil
	}

	g, ok, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("get game: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: game=%s", ErrNotFound, gameID)
	}

	events, err := s.scoreEventRepo.ListByGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("list score events: %w", err)
	}

	summary := buildGameSummary(g, events)

	if err := s.summaryRepo.Create(ctx, summary); err != nil {
		return fmt.Errorf("create game summary: %w", err)
	}

	if err := s.gameRepo.MarkEvaluated(ctx, gameID, summary.FinalHomeScore, summary.FinalAwayScore, summary.WinnerTeamID); err != nil {
		return fmt.Errorf("mark game evaluated: %w", err)
	}

	if err := s.updateStandings(ctx, g.SeasonID, summary); err != nil {
		s.logger.WarnContext(ctx, "update standings failed", "game_id", gameID, "season_id", g.SeasonID, "error", err)
	}

	s.bus.PublishGlobal(ctx, EventGameSummaryCreated, summary)

	return nil
}

func (s *EvaluationService) updateStandings(ctx context.Context, seasonID string, summary gamesummary.GameSummary) error {
	if err := s.standingsRepo.EnsureExists(ctx, seasonID, summary.Home.TeamID); err != nil {
		return fmt.Errorf("ensure home standing: %w", err)
	}
	if err := s.standingsRepo.EnsureExists(ctx, seasonID, summary.Away.TeamID); err != nil {
		return fmt.Errorf("ensure away standing: %w", err)
	}

	homeOutcome, awayOutcome := outcomesFor(summary.WinnerTeamID, summary.Home.TeamID, summary.Away.TeamID)

	if err := s.standingsRepo.RecordOutcome(ctx, seasonID, summary.Home.TeamID, homeOutcome); err != nil {
		return fmt.Errorf("record home outcome: %w", err)
	}
	if err := s.standingsRepo.RecordOutcome(ctx, seasonID, summary.Away.TeamID, awayOutcome); err != nil {
		return fmt.Errorf("record away outcome: %w", err)
	}

	standings, err := s.standingsRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		return fmt.Errorf("list standings: %w", err)
	}

	ordered := rankStandings(standings)
	if err := s.standingsRepo.UpdatePositions(ctx, seasonID, ordered); err != nil {
		return fmt.Errorf("update positions: %w", err)
	}

	s.bus.PublishGlobal(ctx, EventTeamStandingsUpdated, teamStandingsPayload{SeasonID: seasonID, TeamIDs: ordered})

	return nil
}

// rankStandings returns team IDs ordered by the tie-break chain: points
// desc, goal-difference-equivalent (wins-losses) desc, wins desc, team_id
// asc.
func rankStandings(standings []standing.Standing) []string {
	sorted := make([]standing.Standing, len(standings))
	copy(sorted, standings)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.EffectivePoints() != b.EffectivePoints() {
			return a.EffectivePoints() > b.EffectivePoints()
		}
		aDiff, bDiff := a.Wins-a.Losses, b.Wins-b.Losses
		if aDiff != bDiff {
			return aDiff > bDiff
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.TeamID < b.TeamID
	})

	ordered := make([]string, len(sorted))
	for i, st := range sorted {
		ordered[i] = st.TeamID
	}
	return ordered
}

func outcomesFor(winnerTeamID *string, homeTeamID, awayTeamID string) (standing.Outcome, standing.Outcome) {
	if winnerTeamID == nil {
		return standing.OutcomeDraw, standing.OutcomeDraw
	}
	if *winnerTeamID == homeTeamID {
		return standing.OutcomeWin, standing.OutcomeLoss
	}
	return standing.OutcomeLoss, standing.OutcomeWin
}

// buildGameSummary aggregates raw score events into the two team
// aggregates plus the overall MVP/LVP; ties are broken by earliest
// first-contribution time.
func buildGameSummary(g game.Game, events []scoreevent.ScoreEvent) gamesummary.GameSummary {
	byUser := make(map[string]*userContribution)
	homeTotal, awayTotal := 0, 0

	for _, e := range events {
		c, ok := byUser[e.UserID]
		if !ok {
			c = &userContribution{userID: e.UserID, side: e.TeamSide, firstAt: e.OccurredAt}
			byUser[e.UserID] = c
		}
		c.total += e.ScorePoints
		c.workouts++
		if e.OccurredAt.Before(c.firstAt) {
			c.firstAt = e.OccurredAt
		}

		if e.TeamSide == game.SideHome {
			homeTotal += e.ScorePoints
		} else {
			awayTotal += e.ScorePoints
		}
	}

	home := aggregateSide(byUser, game.SideHome)
	home.TeamID = g.HomeTeamID
	home.TotalScore = homeTotal
	away := aggregateSide(byUser, game.SideAway)
	away.TeamID = g.AwayTeamID
	away.TotalScore = awayTotal

	mvp, lvp := mvpAndLVP(byUser)

	var winnerTeamID *string
	if homeTotal != awayTotal {
		winner := g.HomeTeamID
		if awayTotal > homeTotal {
			winner = g.AwayTeamID
		}
		winnerTeamID = &winner
	}

	return gamesummary.GameSummary{
		GameID:         g.ID,
		SeasonID:       g.SeasonID,
		Home:           home,
		Away:           away,
		FinalHomeScore: homeTotal,
		FinalAwayScore: awayTotal,
		WinnerTeamID:   winnerTeamID,
		MVPUserID:      mvp,
		LVPUserID:      lvp,
	}
}

func aggregateSide(byUser map[string]*userContribution, side game.TeamSide) gamesummary.TeamAggregate {
	var contributions []*userContribution
	for _, c := range byUser {
		if c.side == side {
			contributions = append(contributions, c)
		}
	}

	agg := gamesummary.TeamAggregate{}
	if len(contributions) == 0 {
		return agg
	}

	total := 0
	top, low := contributions[0], contributions[0]
	for _, c := range contributions {
		total += c.total
		agg.TotalWorkouts += c.workouts
		if c.total > top.total || (c.total == top.total && c.userID < top.userID) {
			top = c
		}
		if c.total < low.total || (c.total == low.total && c.userID < low.userID) {
			low = c
		}
	}

	agg.AvgScorePerPlayer = float64(total) / float64(len(contributions))
	agg.TopScorerUserID = top.userID
	agg.LowestUserID = low.userID

	return agg
}

// mvpAndLVP picks the single highest/lowest scoring user across both
// teams, ties broken by earliest first-contribution time.
func mvpAndLVP(byUser map[string]*userContribution) (string, string) {
	if len(byUser) == 0 {
		return "", ""
	}

	all := make([]*userContribution, 0, len(byUser))
	for _, c := range byUser {
		all = append(all, c)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].userID < all[j].userID })

	mvp, lvp := all[0], all[0]
	for _, c := range all[1:] {
		if c.total > mvp.total || (c.total == mvp.total && c.firstAt.Before(mvp.firstAt)) {
			mvp = c
		}
		if c.total < lvp.total || (c.total == lvp.total && c.firstAt.Before(lvp.firstAt)) {
			lvp = c
		}
	}

	return mvp.userID, lvp.userID
}

type teamStandingsPayload struct {
	SeasonID string   `json:"season_id"`
	TeamIDs  []string `json:"team_ids"`
}
