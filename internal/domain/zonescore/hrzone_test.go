package zonescore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries(start time.Time, step time.Duration, bpm []int) []Sample {
	out := make([]Sample, 0, len(bpm))
	for i, b := range bpm {
		out = append(out, Sample{Timestamp: start.Add(time.Duration(i) * step), BPM: b})
	}
	return out
}

func constantBPM(n, bpm int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = bpm
	}
	return out
}

// Seed scenario 1: pure Z2 cardio.
func TestHRZone_PureZ2Cardio(t *testing.T) {
	profile := Profile{RestingHR: 60, MaxHR: 190}
	samples := sampleSeries(time.Unix(0, 0), time.Second, constantBPM(600, 138))

	result := HRZone{Rates: DefaultScoringRates()}.Score(profile, samples)

	require.Len(t, result.ZoneBreakdown, 1)
	assert.Equal(t, Z2, result.ZoneBreakdown[0].Zone)
	assert.InDelta(t, 9.98, result.ZoneBreakdown[0].Minutes, 0.05)
	assert.Equal(t, 50, result.StaminaGained)
	assert.Equal(t, 10, result.StrengthGained)
}

func TestHRZone_EmptyAndSingleSample(t *testing.T) {
	profile := Profile{RestingHR: 60, MaxHR: 190}
	strategy := HRZone{Rates: DefaultScoringRates()}

	empty := strategy.Score(profile, nil)
	assert.Equal(t, 0, empty.StaminaGained)
	assert.Empty(t, empty.ZoneBreakdown)

	single := strategy.Score(profile, sampleSeries(time.Unix(0, 0), time.Second, []int{120}))
	assert.Equal(t, 0, single.StaminaGained)
	assert.Empty(t, single.ZoneBreakdown)
}

func TestHRZone_UnknownBPMClampsToZ5(t *testing.T) {
	profile := Profile{RestingHR: 60, MaxHR: 190}
	samples := sampleSeries(time.Unix(0, 0), time.Second, []int{250, 250})

	result := HRZone{Rates: DefaultScoringRates()}.Score(profile, samples)

	require.Len(t, result.ZoneBreakdown, 1)
	assert.Equal(t, Z5, result.ZoneBreakdown[0].Zone)
}

func TestHRZone_MinutesConserved(t *testing.T) {
	profile := Profile{RestingHR: 60, MaxHR: 190}
	bpm := []int{90, 100, 130, 145, 160, 175, 185, 170, 150, 120}
	samples := sampleSeries(time.Unix(0, 0), 90*time.Second, bpm)

	result := HRZone{Rates: DefaultScoringRates()}.Score(profile, samples)

	total := 0.0
	for _, z := range result.ZoneBreakdown {
		total += z.Minutes
	}
	expected := samples[len(samples)-1].Timestamp.Sub(samples[0].Timestamp).Minutes()
	assert.InDelta(t, expected, total, 0.1)
}

func TestHRZone_ZeroDurationInterval(t *testing.T) {
	profile := Profile{RestingHR: 60, MaxHR: 190}
	now := time.Unix(0, 0)
	samples := []Sample{{Timestamp: now, BPM: 120}, {Timestamp: now, BPM: 120}}

	result := HRZone{Rates: DefaultScoringRates()}.Score(profile, samples)
	assert.Equal(t, 0, result.StaminaGained)
}

func TestHRZone_ReusesStoredThresholds(t *testing.T) {
	profile := Profile{
		RestingHR: 60,
		MaxHR:     190,
		ZoneThresholds: Boundaries{
			Z1High: 100,
			Z2High: 120,
			Z3High: 140,
			Z4High: 160,
		},
	}
	samples := sampleSeries(time.Unix(0, 0), time.Second, []int{110, 110})

	result := HRZone{Rates: DefaultScoringRates()}.Score(profile, samples)

	require.Len(t, result.ZoneBreakdown, 1)
	assert.Equal(t, Z2, result.ZoneBreakdown[0].Zone)
}

func TestFilterMonotonic_DropsOutOfOrder(t *testing.T) {
	now := time.Unix(1000, 0)
	samples := []Sample{
		{Timestamp: now, BPM: 100},
		{Timestamp: now.Add(-time.Second), BPM: 105}, // out of order, dropped
		{Timestamp: now, BPM: 110},                   // duplicate timestamp, dropped
		{Timestamp: now.Add(time.Second), BPM: 120},
	}

	filtered := FilterMonotonic(samples)
	require.Len(t, filtered, 2)
	assert.Equal(t, 100, filtered[0].BPM)
	assert.Equal(t, 120, filtered[1].BPM)
}
