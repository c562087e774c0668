// Package domain defines the business logic for the stride backend.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrActivityNotFound is returned when an activity is absent, already
	// deleted, or owned by another user.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrProfileNotFound is returned when the user's profile row is missing.
	// The enclosing transaction rolls back, so the activity write never
	// outlives a failed aggregate write.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrValidation marks malformed input rejected before any store write.
	ErrValidation = errors.New("validation failed")
)

const (
	maxTitleLen = 100
	maxNotesLen = 500
)

// ActivityRepository captures persistence operations. Mutations update the
// activity row, the profile aggregate, and the outbox inside one
// transaction.
type ActivityRepository interface {
	Create(ctx context.Context, activity Activity) (ProfileStats, error)
	Update(ctx context.Context, userID, activityID string, patch ActivityPatch) (*Activity, ProfileStats, error)
	SoftDelete(ctx context.Context, userID, activityID string) (ProfileStats, error)
	Get(ctx context.Context, userID, activityID string) (*Activity, error)
	List(ctx context.Context, userID string, filter ListFilter, cursor *Cursor, limit int) ([]Activity, *Cursor, error)
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]Activity, error)
	Profile(ctx context.Context, userID string) (*Profile, error)
	RebuildProfile(ctx context.Context, userID string) (ProfileStats, error)
}

// WorkoutPlanner produces a workout suggestion from a horizon summary.
type WorkoutPlanner interface {
	Plan(ctx context.Context, summary HorizonSummary) (WorkoutSuggestion, error)
}

// Service orchestrates activity workflows.
type Service struct {
	repo         ActivityRepository
	planner      WorkoutPlanner
	weeklyGoalKm float64
}

// NewService constructs a Service.
func NewService(repo ActivityRepository, planner WorkoutPlanner, weeklyGoalKm float64) *Service {
	if weeklyGoalKm <= 0 {
		weeklyGoalKm = 50
	}
	return &Service{repo: repo, planner: planner, weeklyGoalKm: weeklyGoalKm}
}

// CreateActivityInput captures the payload from the API layer.
type CreateActivityInput struct {
	UserID      string
	Type        ActivityType
	Title       string
	Notes       string
	DistanceKm  float64
	DurationMin int
}

func (in CreateActivityInput) validate() error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: type must be run or ride", ErrValidation)
	}
	if in.DistanceKm < 0 {
		return fmt.Errorf("%w: distance_km must be positive", ErrValidation)
	}
	if in.DurationMin < 1 {
		return fmt.Errorf("%w: duration_min must be at least 1 minute", ErrValidation)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(title) > maxTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", ErrValidation, maxTitleLen)
	}
	if len(in.Notes) > maxNotesLen {
		return fmt.Errorf("%w: notes exceed %d characters", ErrValidation, maxNotesLen)
	}
	return nil
}

// CreateActivity validates the input, persists the activity, and applies
// the incremental aggregate update in the same transaction.
func (s *Service) CreateActivity(ctx context.Context, input CreateActivityInput) (*Activity, ProfileStats, error) {
	if err := input.validate(); err != nil {
		return nil, ProfileStats{}, err
	}

	now := time.Now().UTC()
	activity := Activity{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Type:        input.Type,
		Title:       strings.TrimSpace(input.Title),
		Notes:       input.Notes,
		DistanceKm:  input.DistanceKm,
		DurationMin: input.DurationMin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stats, err := s.repo.Create(ctx, activity)
	if err != nil {
		return nil, ProfileStats{}, err
	}
	return &activity, stats, nil
}

func (p ActivityPatch) validate() error {
	if p.Empty() {
		return fmt.Errorf("%w: patch contains no fields", ErrValidation)
	}
	if p.Type != nil && !p.Type.Valid() {
		return fmt.Errorf("%w: type must be run or ride", ErrValidation)
	}
	if p.DistanceKm != nil && *p.DistanceKm < 0 {
		return fmt.Errorf("%w: distance_km must be positive", ErrValidation)
	}
	if p.DurationMin != nil && *p.DurationMin < 1 {
		return fmt.Errorf("%w: duration_min must be at least 1 minute", ErrValidation)
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return fmt.Errorf("%w: title is required", ErrValidation)
		}
		if len(title) > maxTitleLen {
			return fmt.Errorf("%w: title exceeds %d characters", ErrValidation, maxTitleLen)
		}
	}
	if p.Notes != nil && len(*p.Notes) > maxNotesLen {
		return fmt.Errorf("%w: notes exceed %d characters", ErrValidation, maxNotesLen)
	}
	return nil
}

// UpdateActivity applies a partial edit to an owned, non-deleted activity
// and reconciles the aggregate by full recompute.
func (s *Service) UpdateActivity(ctx context.Context, userID, activityID string, patch ActivityPatch) (*Activity, ProfileStats, error) {
	if err := patch.validate(); err != nil {
		return nil, ProfileStats{}, err
	}
	return s.repo.Update(ctx, userID, activityID, patch)
}

// DeleteActivity soft-deletes an owned activity and reconciles the
// aggregate over the surviving rows. Repeated deletes are NotFound.
func (s *Service) DeleteActivity(ctx context.Context, userID, activityID string) (ProfileStats, error) {
	return s.repo.SoftDelete(ctx, userID, activityID)
}

// GetActivity fetches a single owned activity.
func (s *Service) GetActivity(ctx context.Context, userID, activityID string) (*Activity, error) {
	activity, err := s.repo.Get(ctx, userID, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

// ListActivities fetches activities with filters and cursor pagination.
func (s *Service) ListActivities(ctx context.Context, userID string, filter ListFilter, cursor *Cursor, limit int) ([]Activity, *Cursor, error) {
	return s.repo.List(ctx, userID, filter, cursor, limit)
}

// GetProfile returns the profile row with its all-time stats.
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	profile, err := s.repo.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// RebuildProfile recomputes the aggregate from scratch. Idempotent; exposed
// for operational recovery.
func (s *Service) RebuildProfile(ctx context.Context, userID string) (ProfileStats, error) {
	return s.repo.RebuildProfile(ctx, userID)
}

// SuggestWorkout summarizes the user's recent horizon and asks the planner
// for a workout. An empty horizon short-circuits without a planner call.
func (s *Service) SuggestWorkout(ctx context.Context, userID string, horizonDays int) (*WorkoutSuggestion, HorizonSummary, error) {
	if horizonDays < 1 || horizonDays > 365 {
		return nil, HorizonSummary{}, fmt.Errorf("%w: horizon_days must be between 1 and 365", ErrValidation)
	}

	now := time.Now().UTC()
	activities, err := s.repo.ListRange(ctx, userID, now.AddDate(0, 0, -horizonDays), now)
	if err != nil {
		return nil, HorizonSummary{}, err
	}

	summary := SummarizeHorizon(activities, horizonDays)
	if summary.TotalActivities == 0 {
		return nil, summary, nil
	}

	suggestion, err := s.planner.Plan(ctx, summary)
	if err != nil {
		return nil, summary, err
	}
	return &suggestion, summary, nil
}
