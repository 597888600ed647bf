package zonescore

// Profile is the subset of a user's health profile the scorer needs. It is
// deliberately decoupled from internal/domain/healthprofile.HealthProfile so
// this package stays free of domain dependencies.
type Profile struct {
	RestingHR      int
	MaxHR          int
	ZoneThresholds Boundaries
}

// HasThresholds reports whether the profile carries pre-computed zone
// boundaries that should be reused instead of recomputed from HRR, to
// preserve backwards compatibility across HRR formula changes.
func (p Profile) HasThresholds() bool {
	return p.ZoneThresholds.Z1High != 0 || p.ZoneThresholds.Z2High != 0 ||
		p.ZoneThresholds.Z3High != 0 || p.ZoneThresholds.Z4High != 0
}

func (p Profile) hrr() int {
	return p.MaxHR - p.RestingHR
}

func (p Profile) boundaries() Boundaries {
	if p.HasThresholds() {
		b := p.ZoneThresholds
		b.MaxHR = p.MaxHR
		return b
	}

	hrr := float64(p.hrr())
	return Boundaries{
		Z1High: p.RestingHR + int(0.6*hrr) - 1,
		Z2High: p.RestingHR + int(0.7*hrr) - 1,
		Z3High: p.RestingHR + int(0.8*hrr) - 1,
		Z4High: p.RestingHR + int(0.9*hrr) - 1,
		MaxHR:  p.MaxHR,
	}
}

// Strategy is the dynamic-dispatch point between the two scoring models the
// system hosts: HRZone (percent-of-HRR buckets) and TrainingZone
// (exponential intensity in the high zone). Configuration chooses the
// variant at startup; no runtime polymorphism is required beyond this
// interface.
type Strategy interface {
	Score(profile Profile, samples []Sample) Result
}

// NewStrategy constructs the configured scoring strategy.
func NewStrategy(kind string, rates ScoringRates) Strategy {
	if rates == nil {
		rates = DefaultScoringRates()
	}
	switch kind {
	case "training_zone":
		return TrainingZone{Rates: rates}
	default:
		return HRZone{Rates: rates}
	}
}
