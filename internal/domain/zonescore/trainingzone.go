package zonescore

import "math"

// trainingRest..trainingHard mirror original_source's REST/EASY/MODERATE/HARD split,
// reusing Z1..Z4 of the Zone enum (Z5 is unused by this strategy).
const (
	trainingRest     = Z1
	trainingEasy     = Z2
	trainingModerate = Z3
	trainingHard     = Z4
)

// trainingZoneThresholds are the HRR percentages marking the ventilatory
// thresholds vt0/vt1/vt2 that separate REST/EASY/MODERATE/HARD.
const (
	vt0 = 0.50
	vt1 = 0.75
	vt2 = 0.90
)

// TrainingZone is the alternative scoring strategy named in the design
// notes: an exponential-intensity model for the high zone instead of the
// flat per-minute HR-zone rates. Grounded on
// original_source/src/models/health.rs's TrainingZones/IntensityType split.
type TrainingZone struct {
	Rates ScoringRates
}

func (s TrainingZone) Score(profile Profile, samples []Sample) Result {
	if len(samples) < 2 {
		return Result{}
	}

	rates := s.Rates
	if rates == nil {
		rates = DefaultScoringRates()
	}

	hrr := float64(profile.hrr())
	restHigh := profile.RestingHR + int(vt0*hrr) - 1
	easyHigh := profile.RestingHR + int(vt1*hrr) - 1
	moderateHigh := profile.RestingHR + int(vt2*hrr) - 1
	hardThreshold := float64(moderateHigh + 1)

	type accum struct {
		seconds  float64
		weighted float64 // intensity-weighted seconds, used for HARD
		hrMin    int
		hrMax    int
		seen     bool
	}
	byZone := make(map[Zone]*accum)

	touch := func(zone Zone, bpm int) *accum {
		a, ok := byZone[zone]
		if !ok {
			a = &accum{hrMin: bpm, hrMax: bpm}
			byZone[zone] = a
		}
		if !a.seen || bpm < a.hrMin {
			a.hrMin = bpm
		}
		if !a.seen || bpm > a.hrMax {
			a.hrMax = bpm
		}
		a.seen = true
		return a
	}

	for i := 0; i < len(samples)-1; i++ {
		cur := samples[i]
		next := samples[i+1]
		dt := next.Timestamp.Sub(cur.Timestamp).Seconds()
		if dt <= 0 {
			continue
		}

		bpm := cur.BPM
		var zone Zone
		switch {
		case bpm <= restHigh:
			zone = trainingRest
		case bpm <= easyHigh:
			zone = trainingEasy
		case bpm <= moderateHigh:
			zone = trainingModerate
		default:
			zone = trainingHard
		}

		a := touch(zone, bpm)
		a.seconds += dt
		if zone == trainingHard {
			intensity := 2.0 * math.Exp(0.04*(float64(bpm)-hardThreshold))
			a.weighted += dt * intensity
		} else {
			a.weighted += dt
		}
	}

	result := Result{}
	for _, zone := range []Zone{trainingRest, trainingEasy, trainingModerate, trainingHard} {
		a, ok := byZone[zone]
		if !ok {
			continue
		}

		minutes := a.seconds / 60
		weightedMinutes := a.weighted / 60
		rate := rates[zone]

		stamina := round(rate.StaminaPerMinute * weightedMinutes)
		strength := round(rate.StrengthPerMinute * weightedMinutes)

		result.StaminaGained += stamina
		result.StrengthGained += strength
		result.ZoneBreakdown = append(result.ZoneBreakdown, ZoneBreakdown{
			Zone:           zone,
			Minutes:        minutes,
			StaminaGained:  stamina,
			StrengthGained: strength,
			HRMin:          a.hrMin,
			HRMax:          a.hrMax,
		})
	}

	return result
}
