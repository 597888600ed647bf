package gamesummary

// TeamAggregate is one team's per-game performance inside a GameSummary.
type TeamAggregate struct {
	TeamID           string
	TotalScore       int
	AvgScorePerPlayer float64
	TotalWorkouts    int
	TopScorerUserID  string
	LowestUserID     string
}

// GameSummary is written exactly once per game, when it is evaluated, and
// is immutable afterward.
type GameSummary struct {
	GameID        string
	SeasonID      string
	Home          TeamAggregate
	Away          TeamAggregate
	FinalHomeScore int
	FinalAwayScore int
	WinnerTeamID  *string
	MVPUserID     string
	LVPUserID     string
}
