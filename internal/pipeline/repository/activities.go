package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrStageMissing is returned when an activity references a stage that
// does not exist.
var ErrStageMissing = errors.New("pipeline stage does not exist")

type Activity struct {
	ID           uuid.UUID
	StageID      uuid.UUID
	AssignmentID uuid.UUID
	Type         string
	Description  string
	Outcome      *string
	ScheduledAt  *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}

type CreateActivityParams struct {
	StageID      uuid.UUID
	AssignmentID uuid.UUID
	Type         string
	Description  string
	Outcome      *string
	ScheduledAt  *time.Time
	CompletedAt  *time.Time
}

const activityColumns = `id, stage_id, assignment_id, type, description, outcome, scheduled_at, completed_at, created_at`

func scanActivity(row pgx.Row) (Activity, error) {
	var activity Activity
	err := row.Scan(
		&activity.ID, &activity.StageID, &activity.AssignmentID, &activity.Type,
		&activity.Description, &activity.Outcome, &activity.ScheduledAt,
		&activity.CompletedAt, &activity.CreatedAt,
	)
	return activity, err
}

func (r *Repository) InsertActivity(ctx context.Context, params CreateActivityParams) (Activity, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO pipeline_activities (stage_id, assignment_id, type, description, outcome, scheduled_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+activityColumns,
		params.StageID, params.AssignmentID, params.Type, params.Description,
		params.Outcome, params.ScheduledAt, params.CompletedAt,
	)

	activity, err := scanActivity(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Activity{}, ErrStageMissing
		}
		return Activity{}, fmt.Errorf("insert pipeline activity: %w", err)
	}
	return activity, nil
}

// ListActivities returns an assignment's stage activities, oldest first.
func (r *Repository) ListActivities(ctx context.Context, assignmentID uuid.UUID) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+activityColumns+` FROM pipeline_activities
		WHERE assignment_id = $1
		ORDER BY created_at ASC
	`, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list pipeline activities: %w", err)
	}
	defer rows.Close()

	activities := make([]Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pipeline activity: %w", err)
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}
