package season

import "time"

// Fixture is one scheduled game before it is persisted as a full game.Game;
// the scheduler layer maps these into game.Game rows when a season is
// created.
type Fixture struct {
	Round           int
	IsFirstLeg      bool
	HomeTeamID      string
	AwayTeamID      string
	WeekNumber      int
	WeekStartDate   time.Time
	WeekEndDate     time.Time
	GameStartTime   time.Time
}

// GenerateSchedule builds a double round-robin schedule for teamIDs: every
// team plays every other team twice, once at home and once away, using the
// circle method. Round r's game_start_time/week_end_date follow the
// original timing module's calculate_game_start_time: season_start +
// game_duration*round.
//
// For N teams this produces N*(N-1) games, satisfying the double
// round-robin's home/away round-trip invariant.
func GenerateSchedule(teamIDs []string, startDate time.Time, gameDuration time.Duration) []Fixture {
	n := len(teamIDs)
	if n < 2 {
		return nil
	}

	teams := make([]string, n)
	copy(teams, teamIDs)
	bye := false
	if n%2 != 0 {
		teams = append(teams, "") // bye slot
		n++
		bye = true
	}

	singleLegRounds := n - 1
	gamesPerRound := n / 2

	// First leg: circle method. Fix teams[0], rotate the rest.
	firstLeg := make([][]Fixture, singleLegRounds)
	rotation := make([]string, n)
	copy(rotation, teams)

	for round := 0; round < singleLegRounds; round++ {
		roundFixtures := make([]Fixture, 0, gamesPerRound)
		for i := 0; i < gamesPerRound; i++ {
			home := rotation[i]
			away := rotation[n-1-i]
			if bye && (home == "" || away == "") {
				continue
			}
			// Alternate home/away by round parity so one team doesn't
			// always sit at home across the single-leg schedule.
			if round%2 == 1 {
				home, away = away, home
			}
			roundFixtures = append(roundFixtures, Fixture{
				HomeTeamID: home,
				AwayTeamID: away,
			})
		}
		firstLeg[round] = roundFixtures

		// Rotate: keep rotation[0] fixed, rotate the rest clockwise.
		last := rotation[n-1]
		copy(rotation[2:], rotation[1:n-1])
		rotation[1] = last
	}

	out := make([]Fixture, 0, n*(n-1))
	roundNumber := 0
	appendLeg := func(legRounds [][]Fixture, isFirstLeg bool) {
		for _, roundFixtures := range legRounds {
			weekStart := startDate.Add(gameDuration * time.Duration(roundNumber))
			weekEnd := weekStart.Add(gameDuration)
			for _, f := range roundFixtures {
				f.Round = roundNumber
				f.IsFirstLeg = isFirstLeg
				f.WeekNumber = roundNumber + 1
				f.WeekStartDate = weekStart
				f.GameStartTime = weekStart
				f.WeekEndDate = weekEnd
				out = append(out, f)
			}
			roundNumber++
		}
	}

	appendLeg(firstLeg, true)

	secondLeg := make([][]Fixture, singleLegRounds)
	for i, roundFixtures := range firstLeg {
		reversed := make([]Fixture, len(roundFixtures))
		for j, f := range roundFixtures {
			reversed[j] = Fixture{HomeTeamID: f.AwayTeamID, AwayTeamID: f.HomeTeamID}
		}
		secondLeg[i] = reversed
	}
	appendLeg(secondLeg, false)

	return out
}
