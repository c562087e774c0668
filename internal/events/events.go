// Package events defines the payloads published through the outbox.
package events

import "time"

// ActivityCreated is emitted when a new activity is accepted.
type ActivityCreated struct {
	ActivityID  string    `json:"activity_id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	DistanceKm  float64   `json:"distance_km"`
	DurationMin int       `json:"duration_min"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ActivityUpdated is emitted after a partial edit.
type ActivityUpdated struct {
	ActivityID  string    `json:"activity_id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	DistanceKm  float64   `json:"distance_km"`
	DurationMin int       `json:"duration_min"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ActivityDeleted is emitted when an activity is soft-deleted.
type ActivityDeleted struct {
	ActivityID string    `json:"activity_id"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ProfileStatsRecalculated carries the reconciled aggregate after any
// activity mutation, for downstream read models.
type ProfileStatsRecalculated struct {
	UserID          string    `json:"user_id"`
	TotalDistanceKm float64   `json:"total_distance_km"`
	TotalTimeMin    float64   `json:"total_time_min"`
	TotalActivities int       `json:"total_activities"`
	AvgSpeedKmh     float64   `json:"avg_speed_kmh"`
	LongestRunKm    float64   `json:"longest_run_km"`
	OccurredAt      time.Time `json:"occurred_at"`
}
