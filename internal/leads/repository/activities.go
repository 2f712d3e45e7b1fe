package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrLeadMissing signals an activity insert against an unknown lead.
var ErrLeadMissing = errors.New("activity references unknown lead")

type Activity struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	Type       string
	PropertyID *uuid.UUID
	Metadata   map[string]interface{}
	OccurredAt time.Time
	CreatedAt  time.Time
}

type InsertActivityParams struct {
	LeadID     uuid.UUID
	Type       string
	PropertyID *uuid.UUID
	Metadata   map[string]interface{}
	OccurredAt time.Time
}

// InsertActivity appends one behavioral event to the ledger. The ledger is
// append-only; there is no update or delete.
func (r *Repository) InsertActivity(ctx context.Context, params InsertActivityParams) (Activity, error) {
	var metadata []byte
	if params.Metadata != nil {
		encoded, err := json.Marshal(params.Metadata)
		if err != nil {
			return Activity{}, fmt.Errorf("encode activity metadata: %w", err)
		}
		metadata = encoded
	}

	occurredAt := params.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	var activity Activity
	var rawMetadata []byte
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_activities (lead_id, activity_type, property_id, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, lead_id, activity_type, property_id, metadata, occurred_at, created_at
	`, params.LeadID, params.Type, params.PropertyID, metadata, occurredAt).Scan(
		&activity.ID, &activity.LeadID, &activity.Type, &activity.PropertyID,
		&rawMetadata, &activity.OccurredAt, &activity.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Activity{}, ErrLeadMissing
		}
		return Activity{}, fmt.Errorf("insert activity: %w", err)
	}

	if len(rawMetadata) > 0 {
		_ = json.Unmarshal(rawMetadata, &activity.Metadata)
	}

	return activity, nil
}

// ListActivities returns the lead's full activity history, oldest first.
func (r *Repository) ListActivities(ctx context.Context, leadID uuid.UUID) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, activity_type, property_id, metadata, occurred_at, created_at
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY occurred_at ASC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]Activity, 0)
	for rows.Next() {
		var activity Activity
		var rawMetadata []byte
		if err := rows.Scan(
			&activity.ID, &activity.LeadID, &activity.Type, &activity.PropertyID,
			&rawMetadata, &activity.OccurredAt, &activity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if len(rawMetadata) > 0 {
			_ = json.Unmarshal(rawMetadata, &activity.Metadata)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}

	return activities, nil
}

// ActivityCounts returns the per-type occurrence counts and the most recent
// activity timestamp for a lead. Scoring replays from this aggregate.
func (r *Repository) ActivityCounts(ctx context.Context, leadID uuid.UUID) (map[string]int, *time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT activity_type, COUNT(*), MAX(occurred_at)
		FROM lead_activities
		WHERE lead_id = $1
		GROUP BY activity_type
	`, leadID)
	if err != nil {
		return nil, nil, fmt.Errorf("count activities: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	var lastActivity *time.Time
	for rows.Next() {
		var activityType string
		var count int
		var latest time.Time
		if err := rows.Scan(&activityType, &count, &latest); err != nil {
			return nil, nil, fmt.Errorf("scan activity count: %w", err)
		}
		counts[activityType] = count
		if lastActivity == nil || latest.After(*lastActivity) {
			ts := latest
			lastActivity = &ts
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate activity counts: %w", err)
	}

	return counts, lastActivity, nil
}
