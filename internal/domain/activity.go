package domain

import "time"

// ActivityType enumerates the supported sports.
type ActivityType string

const (
	ActivityRun  ActivityType = "run"
	ActivityRide ActivityType = "ride"
)

// Valid reports whether the type is one of the supported sports.
func (t ActivityType) Valid() bool {
	return t == ActivityRun || t == ActivityRide
}

// Activity is the canonical workout record stored in PostgreSQL.
// Deleted rows are retained for aggregate rebuilds and audit.
type Activity struct {
	ID          string
	UserID      string
	Type        ActivityType
	Title       string
	Notes       string
	DistanceKm  float64
	DurationMin int
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SpeedKmh returns the activity's average speed in km/h, 0 for zero duration.
func (a Activity) SpeedKmh() float64 {
	if a.DurationMin <= 0 {
		return 0
	}
	return a.DistanceKm / (float64(a.DurationMin) / 60)
}

// ActivityPatch carries a partial update. Nil fields are left untouched.
type ActivityPatch struct {
	Title       *string
	Type        *ActivityType
	DistanceKm  *float64
	DurationMin *int
	Notes       *string
}

// Empty reports whether the patch changes nothing.
func (p ActivityPatch) Empty() bool {
	return p.Title == nil && p.Type == nil && p.DistanceKm == nil && p.DurationMin == nil && p.Notes == nil
}

// Apply copies the populated patch fields onto the activity.
func (p ActivityPatch) Apply(a Activity) Activity {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.DistanceKm != nil {
		a.DistanceKm = *p.DistanceKm
	}
	if p.DurationMin != nil {
		a.DurationMin = *p.DurationMin
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	return a
}

// Profile is the per-user row holding identity fields and rolling stats.
type Profile struct {
	UserID      string
	DisplayName string
	Bio         string
	Stats       ProfileStats
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileStats is the denormalized aggregate derived from the user's
// non-deleted activities. It is a convenience value, not a ledger; it can
// always be rebuilt from the activity rows.
type ProfileStats struct {
	TotalDistanceKm float64
	TotalTimeMin    float64
	TotalActivities int
	AvgSpeedKmh     float64
	LongestRunKm    float64
}

// Cursor models the opaque pagination token for activity listings.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// ListFilter narrows activity listings. Zero values mean "no filter".
type ListFilter struct {
	Search string
	Sport  ActivityType
	From   time.Time
	To     time.Time
}
