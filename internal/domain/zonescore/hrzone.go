package zonescore

import "math"

// HRZone scores a workout by walking heart-rate samples and attributing
// each inter-sample interval, in full, to the zone of the earlier sample:
// samples are walked as pairs (cur, next), and the interval between them
// is fully attributed to the zone of cur.bpm.
type HRZone struct {
	Rates ScoringRates
}

func (s HRZone) Score(profile Profile, samples []Sample) Result {
	if len(samples) < 2 {
		return Result{}
	}

	bounds := profile.boundaries()
	rates := s.Rates
	if rates == nil {
		rates = DefaultScoringRates()
	}

	type accum struct {
		seconds float64
		hrMin   int
		hrMax   int
		seen    bool
	}
	byZone := make(map[Zone]*accum)

	for i := 0; i < len(samples)-1; i++ {
		cur := samples[i]
		next := samples[i+1]
		dt := next.Timestamp.Sub(cur.Timestamp).Seconds()
		if dt <= 0 {
			continue
		}

		zone := bounds.ZoneOf(cur.BPM)
		a, ok := byZone[zone]
		if !ok {
			a = &accum{hrMin: cur.BPM, hrMax: cur.BPM}
			byZone[zone] = a
		}
		a.seconds += dt
		if !a.seen || cur.BPM < a.hrMin {
			a.hrMin = cur.BPM
		}
		if !a.seen || cur.BPM > a.hrMax {
			a.hrMax = cur.BPM
		}
		a.seen = true
	}

	result := Result{}
	for _, zone := range []Zone{Z1, Z2, Z3, Z4, Z5} {
		a, ok := byZone[zone]
		if !ok {
			continue
		}

		minutes := a.seconds / 60
		rate := rates[zone]
		stamina := round(rate.StaminaPerMinute * minutes)
		strength := round(rate.StrengthPerMinute * minutes)

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

func round(v float64) int {
	return int(math.Round(v))
}
