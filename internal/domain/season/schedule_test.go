package season

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchedule_DoubleRoundRobinCount(t *testing.T) {
	for _, n := range []int{2, 4, 6, 7} {
		teams := make([]string, n)
		for i := range teams {
			teams[i] = string(rune('A' + i))
		}

		fixtures := GenerateSchedule(teams, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 24*time.Hour)
		assert.Equalf(t, n*(n-1), len(fixtures), "team count=%d", n)
	}
}

func TestGenerateSchedule_NoSelfPlay(t *testing.T) {
	teams := []string{"A", "B", "C", "D"}
	fixtures := GenerateSchedule(teams, time.Now(), time.Hour)
	for _, f := range fixtures {
		assert.NotEqual(t, f.HomeTeamID, f.AwayTeamID)
	}
}

func TestGenerateSchedule_GameStartTimeFollowsRound(t *testing.T) {
	teams := []string{"A", "B"}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	duration := 6 * 24 * time.Hour
	fixtures := GenerateSchedule(teams, start, duration)
	require.Len(t, fixtures, 2)

	assert.Equal(t, start, fixtures[0].GameStartTime)
	assert.Equal(t, start.Add(duration), fixtures[0].WeekEndDate)
	assert.Equal(t, start.Add(duration), fixtures[1].GameStartTime)
	assert.Equal(t, start.Add(2*duration), fixtures[1].WeekEndDate)
}
