package healthprofile

import "fmt"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ZoneThresholds holds pre-computed HR zone boundary values. When present,
// the scorer reuses them instead of recomputing from HRR so a change in the
// HRR formula does not silently re-bucket a user's historical workouts.
type ZoneThresholds struct {
	Z1High int
	Z2High int
	Z3High int
	Z4High int
}

func (t ZoneThresholds) IsZero() bool {
	return t.Z1High == 0 && t.Z2High == 0 && t.Z3High == 0 && t.Z4High == 0
}

type HealthProfile struct {
	UserID         string
	Age            int
	Gender         Gender
	RestingHR      int
	MaxHR          int
	ZoneThresholds ZoneThresholds
}

func (p HealthProfile) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if p.Age < 10 || p.Age > 120 {
		return fmt.Errorf("age must be between 10 and 120")
	}
	if p.RestingHR < 30 || p.RestingHR > 120 {
		return fmt.Errorf("resting_hr must be between 30 and 120")
	}
	if p.MaxHR <= p.RestingHR {
		return fmt.Errorf("max_hr must be greater than resting_hr")
	}

	return nil
}

// HRR is the heart-rate reserve, the basis for percent-based zone boundaries.
func (p HealthProfile) HRR() int {
	return p.MaxHR - p.RestingHR
}
