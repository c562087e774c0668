package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/stride/internal/domain"
	"example.com/stride/internal/events"
	"example.com/stride/internal/observability"
)

// Repository provides Postgres-backed persistence for activities, profile
// aggregates, and outbox events. Every mutation reconciles the profile
// aggregate inside the same transaction as the activity write, so the two
// tables cannot diverge on a partial failure.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const activityColumns = `activity_id, user_id, activity_type, title, notes, distance_km, duration_min, deleted, created_at, updated_at`

func scanActivity(row pgx.Row) (domain.Activity, error) {
	var a domain.Activity
	err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.Title, &a.Notes, &a.DistanceKm, &a.DurationMin, &a.Deleted, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Create inserts the activity, applies the incremental aggregate update,
// and records outbox events in a single transaction. A missing profile row
// aborts the whole mutation with domain.ErrProfileNotFound.
func (r *Repository) Create(ctx context.Context, activity domain.Activity) (domain.ProfileStats, error) {
	var stats domain.ProfileStats

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		// Read the profile first: a missing row must surface as NotFound,
		// not as the activities FK violation the insert would raise.
		current, err := r.profileStats(ctx, tx, activity.UserID)
		if err != nil {
			return err
		}

		const insert = `INSERT INTO activities (` + activityColumns + `)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
		if _, err := tx.Exec(ctx, insert,
			activity.ID,
			activity.UserID,
			activity.Type,
			activity.Title,
			activity.Notes,
			activity.DistanceKm,
			activity.DurationMin,
			activity.Deleted,
			activity.CreatedAt,
			activity.UpdatedAt,
		); err != nil {
			return err
		}

		stats = domain.ApplyCreate(current, activity)
		if err := r.writeProfileStats(ctx, tx, activity.UserID, stats); err != nil {
			return err
		}

		if err := r.insertOutbox(ctx, tx, "activity", activity.ID, "activity.created", events.ActivityCreated{
			ActivityID:  activity.ID,
			UserID:      activity.UserID,
			Type:        string(activity.Type),
			Title:       activity.Title,
			DistanceKm:  activity.DistanceKm,
			DurationMin: activity.DurationMin,
			OccurredAt:  activity.CreatedAt,
		}); err != nil {
			return err
		}
		return r.insertStatsEvent(ctx, tx, activity.UserID, stats, activity.UpdatedAt)
	})
	if err != nil {
		return domain.ProfileStats{}, err
	}

	observability.RecordActivityPersisted(activity.UpdatedAt)
	observability.RecordReconcile("create")
	return stats, nil
}

// Update patches an owned, non-deleted activity and reconciles the
// aggregate by scanning the user's surviving rows inside the transaction.
func (r *Repository) Update(ctx context.Context, userID, activityID string, patch domain.ActivityPatch) (*domain.Activity, domain.ProfileStats, error) {
	var updated domain.Activity
	var stats domain.ProfileStats

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		const query = `SELECT ` + activityColumns + ` FROM activities
            WHERE activity_id=$1 AND user_id=$2 AND deleted=false`
		current, err := scanActivity(tx.QueryRow(ctx, query, activityID, userID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrActivityNotFound
			}
			return err
		}

		updated = patch.Apply(current)
		updated.UpdatedAt = time.Now().UTC()

		const stmt = `UPDATE activities
            SET activity_type=$3, title=$4, notes=$5, distance_km=$6, duration_min=$7, updated_at=$8
            WHERE activity_id=$1 AND user_id=$2 AND deleted=false`
		if _, err := tx.Exec(ctx, stmt,
			updated.ID, updated.UserID, updated.Type, updated.Title, updated.Notes,
			updated.DistanceKm, updated.DurationMin, updated.UpdatedAt,
		); err != nil {
			return err
		}

		stats, err = r.reconcile(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := r.insertOutbox(ctx, tx, "activity", updated.ID, "activity.updated", events.ActivityUpdated{
			ActivityID:  updated.ID,
			UserID:      updated.UserID,
			Type:        string(updated.Type),
			Title:       updated.Title,
			DistanceKm:  updated.DistanceKm,
			DurationMin: updated.DurationMin,
			OccurredAt:  updated.UpdatedAt,
		}); err != nil {
			return err
		}
		return r.insertStatsEvent(ctx, tx, userID, stats, updated.UpdatedAt)
	})
	if err != nil {
		return nil, domain.ProfileStats{}, err
	}

	observability.RecordActivityPersisted(updated.UpdatedAt)
	observability.RecordReconcile("update")
	return &updated, stats, nil
}

// SoftDelete marks the activity deleted and reconciles the aggregate over
// the remaining rows. An already-deleted activity is NotFound, so repeat
// deletes can never double-subtract from the aggregate.
func (r *Repository) SoftDelete(ctx context.Context, userID, activityID string) (domain.ProfileStats, error) {
	var stats domain.ProfileStats
	now := time.Now().UTC()

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		const stmt = `UPDATE activities SET deleted=true, updated_at=$3
            WHERE activity_id=$1 AND user_id=$2 AND deleted=false`
		tag, err := tx.Exec(ctx, stmt, activityID, userID, now)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrActivityNotFound
		}

		stats, err = r.reconcile(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := r.insertOutbox(ctx, tx, "activity", activityID, "activity.deleted", events.ActivityDeleted{
			ActivityID: activityID,
			UserID:     userID,
			OccurredAt: now,
		}); err != nil {
			return err
		}
		return r.insertStatsEvent(ctx, tx, userID, stats, now)
	})
	if err != nil {
		return domain.ProfileStats{}, err
	}

	observability.RecordReconcile("delete")
	return stats, nil
}

// Get retrieves a non-deleted activity owned by the user, nil when absent.
func (r *Repository) Get(ctx context.Context, userID, activityID string) (*domain.Activity, error) {
	const query = `SELECT ` + activityColumns + ` FROM activities
        WHERE activity_id=$1 AND user_id=$2 AND deleted=false`

	activity, err := scanActivity(r.pool.QueryRow(ctx, query, activityID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &activity, nil
}

// List returns filtered activities for a user ordered by recency.
func (r *Repository) List(ctx context.Context, userID string, filter domain.ListFilter, cursor *domain.Cursor, limit int) ([]domain.Activity, *domain.Cursor, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE user_id=$1 AND deleted=false`
	args := []interface{}{userID}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}
	if filter.Sport != "" {
		args = append(args, filter.Sport)
		query += fmt.Sprintf(" AND activity_type = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	if cursor != nil {
		args = append(args, cursor.CreatedAt, cursor.ID)
		query += fmt.Sprintf(" AND (created_at, activity_id) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, activity_id DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.Activity, 0, limit)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if len(results) == limit && limit > 0 {
		last := results[len(results)-1]
		next = &domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return results, next, nil
}

// ListRange returns the user's non-deleted activities inside [from, to),
// oldest first. Used by the dashboard, reports, and the suggestion horizon.
func (r *Repository) ListRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Activity, error) {
	const query = `SELECT ` + activityColumns + ` FROM activities
        WHERE user_id=$1 AND deleted=false AND created_at >= $2 AND created_at < $3
        ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, activity)
	}
	return results, rows.Err()
}

// Profile fetches the profile row with its aggregate, nil when absent.
func (r *Repository) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	const query = `SELECT user_id, display_name, bio, total_distance_km, total_time_min, total_activities, avg_speed_kmh, longest_run_km, created_at, updated_at
        FROM profiles WHERE user_id=$1`

	var p domain.Profile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.DisplayName, &p.Bio,
		&p.Stats.TotalDistanceKm, &p.Stats.TotalTimeMin, &p.Stats.TotalActivities,
		&p.Stats.AvgSpeedKmh, &p.Stats.LongestRunKm,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// RebuildProfile recomputes the aggregate from the activity rows. The
// operation is idempotent and safe to run at any time.
func (r *Repository) RebuildProfile(ctx context.Context, userID string) (domain.ProfileStats, error) {
	var stats domain.ProfileStats
	now := time.Now().UTC()

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		stats, err = r.reconcile(ctx, tx, userID)
		if err != nil {
			return err
		}
		return r.insertStatsEvent(ctx, tx, userID, stats, now)
	})
	if err != nil {
		return domain.ProfileStats{}, err
	}

	observability.RecordReconcile("rebuild")
	return stats, nil
}

// reconcile scans the user's non-deleted activities, computes the
// aggregate, and writes it to the profile row.
func (r *Repository) reconcile(ctx context.Context, tx pgx.Tx, userID string) (domain.ProfileStats, error) {
	const query = `SELECT ` + activityColumns + ` FROM activities
        WHERE user_id=$1 AND deleted=false`

	rows, err := tx.Query(ctx, query, userID)
	if err != nil {
		return domain.ProfileStats{}, err
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return domain.ProfileStats{}, err
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return domain.ProfileStats{}, err
	}

	stats := domain.ComputeAggregate(activities)
	if err := r.writeProfileStats(ctx, tx, userID, stats); err != nil {
		return domain.ProfileStats{}, err
	}
	return stats, nil
}

func (r *Repository) profileStats(ctx context.Context, tx pgx.Tx, userID string) (domain.ProfileStats, error) {
	const query = `SELECT total_distance_km, total_time_min, total_activities, avg_speed_kmh, longest_run_km
        FROM profiles WHERE user_id=$1`

	var stats domain.ProfileStats
	err := tx.QueryRow(ctx, query, userID).Scan(
		&stats.TotalDistanceKm, &stats.TotalTimeMin, &stats.TotalActivities,
		&stats.AvgSpeedKmh, &stats.LongestRunKm,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProfileStats{}, domain.ErrProfileNotFound
		}
		return domain.ProfileStats{}, err
	}
	return stats, nil
}

func (r *Repository) writeProfileStats(ctx context.Context, tx pgx.Tx, userID string, stats domain.ProfileStats) error {
	const stmt = `UPDATE profiles
        SET total_distance_km=$2, total_time_min=$3, total_activities=$4, avg_speed_kmh=$5, longest_run_km=$6, updated_at=NOW()
        WHERE user_id=$1`

	tag, err := tx.Exec(ctx, stmt, userID,
		stats.TotalDistanceKm, stats.TotalTimeMin, stats.TotalActivities,
		stats.AvgSpeedKmh, stats.LongestRunKm,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *Repository) insertStatsEvent(ctx context.Context, tx pgx.Tx, userID string, stats domain.ProfileStats, occurredAt time.Time) error {
	return r.insertOutbox(ctx, tx, "profile", userID, "profile.stats_recalculated", events.ProfileStatsRecalculated{
		UserID:          userID,
		TotalDistanceKm: stats.TotalDistanceKm,
		TotalTimeMin:    stats.TotalTimeMin,
		TotalActivities: stats.TotalActivities,
		AvgSpeedKmh:     stats.AvgSpeedKmh,
		LongestRunKm:    stats.LongestRunKm,
		OccurredAt:      occurredAt,
	})
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, aggregateType, aggregateID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s:%d", aggregateID, eventType, time.Now().UnixNano())

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		aggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		aggregateID,
		body,
		dedupeKey,
	)
	return err
}

func (r *Repository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	"activity.created":           {Topic: "activity_events", SchemaSubject: "activity_events-value"},
	"activity.updated":           {Topic: "activity_events", SchemaSubject: "activity_events-value"},
	"activity.deleted":           {Topic: "activity_events", SchemaSubject: "activity_events-value"},
	"profile.stats_recalculated": {Topic: "profile_stats", SchemaSubject: "profile_stats-value"},
}
