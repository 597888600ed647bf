// Package zonescore turns a sequence of heart-rate samples into gameplay
// stats. It is pure and side-effect-free: no I/O, no clock, no randomness.
package zonescore

import "time"

// Zone is one of the five heart-rate training zones, Z1 (easiest) through
// Z5 (hardest).
type Zone int

const (
	Z1 Zone = iota + 1
	Z2
	Z3
	Z4
	Z5
)

func (z Zone) String() string {
	switch z {
	case Z1:
		return "Z1"
	case Z2:
		return "Z2"
	case Z3:
		return "Z3"
	case Z4:
		return "Z4"
	case Z5:
		return "Z5"
	default:
		return "unknown"
	}
}

// Sample is one heart-rate reading at a point in time.
type Sample struct {
	Timestamp time.Time
	BPM       int
}

// ZoneBreakdown is the per-zone record of time spent and stats gained there.
type ZoneBreakdown struct {
	Zone          Zone
	Minutes       float64
	StaminaGained int
	StrengthGained int
	HRMin         int
	HRMax         int
}

// Result is the full output of scoring one workout's samples.
type Result struct {
	StaminaGained int
	StrengthGained int
	ZoneBreakdown []ZoneBreakdown
}

// Rates is the per-minute stamina/strength gain for a zone. Strategies take
// the rates as a value rather than reading constants, but config.Load always
// fills them from DefaultScoringRates: no environment variable overrides them.
type Rates struct {
	StaminaPerMinute  float64
	StrengthPerMinute float64
}

// ScoringRates maps every zone to its per-minute rates. DefaultScoringRates
// reproduces the table in the component design.
type ScoringRates map[Zone]Rates

func DefaultScoringRates() ScoringRates {
	return ScoringRates{
		Z1: {StaminaPerMinute: 2, StrengthPerMinute: 0},
		Z2: {StaminaPerMinute: 5, StrengthPerMinute: 1},
		Z3: {StaminaPerMinute: 4, StrengthPerMinute: 3},
		Z4: {StaminaPerMinute: 2, StrengthPerMinute: 5},
		Z5: {StaminaPerMinute: 1, StrengthPerMinute: 8},
	}
}

// Boundaries are the five zone upper bounds (inclusive), computed from HRR
// or reused from a profile's pre-computed thresholds.
type Boundaries struct {
	Z1High int
	Z2High int
	Z3High int
	Z4High int
	MaxHR  int
}

// ZoneOf returns the zone a given bpm belongs to. Boundaries are closed on
// both ends with no overlap and no gap; a bpm above MaxHR clamps into Z5.
func (b Boundaries) ZoneOf(bpm int) Zone {
	switch {
	case bpm <= b.Z1High:
		return Z1
	case bpm <= b.Z2High:
		return Z2
	case bpm <= b.Z3High:
		return Z3
	case bpm <= b.Z4High:
		return Z4
	default:
		return Z5
	}
}
