package workout

import (
	"fmt"
	"time"

	"github.com/vitalabs/competition-engine/internal/domain/zonescore"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Workout is a single uploaded activity. It is created once by the
// ingestor and never mutated except to flag IsDuplicate via the offline
// cleanup job; deletion only happens through that same job.
type Workout struct {
	ID             string
	UserID         string
	DeviceID       string
	WorkoutUUID    string
	Start          time.Time
	End            time.Time
	Calories       int
	HRSamples      []zonescore.Sample
	DurationMin    float64
	StaminaGained  int
	StrengthGained int
	ZoneBreakdown  []zonescore.ZoneBreakdown
	AvgHeartRate   int
	MaxHeartRate   int
	MinHeartRate   int
	IsDuplicate    bool
	Visibility     Visibility
	CreatedAt      time.Time
}

func (w Workout) Validate() error {
	if w.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if w.WorkoutUUID == "" {
		return fmt.Errorf("workout_uuid is required")
	}
	if w.End.Before(w.Start) {
		return fmt.Errorf("end must not be before start")
	}

	return nil
}

// Duration returns end-start in minutes, zero when end == start.
func (w Workout) Duration() float64 {
	return w.End.Sub(w.Start).Minutes()
}

// SyncCheckItem is one entry of a check-sync-status request.
type SyncCheckItem struct {
	UUID     string
	Start    time.Time
	End      time.Time
	Calories int
}
