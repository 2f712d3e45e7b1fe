// Package repository persists pipeline stages and stage activities.
//
// Two invariants live here. At most one stage per assignment is open
// (exited_at IS NULL), enforced by a partial unique index and an atomic
// close-then-open transaction. Closing a stage is a compare-and-swap on
// exited_at IS NULL so a lost transition race fails loudly instead of
// double-closing.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNoOpenStage = errors.New("assignment has no open stage")
	// ErrStageRace is returned when the stage this transition meant to
	// close was already closed by a concurrent caller.
	ErrStageRace = errors.New("stage was closed concurrently")
	// ErrAssignmentMissing is returned when the referenced assignment
	// does not exist.
	ErrAssignmentMissing = errors.New("assignment does not exist")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Stage struct {
	ID             uuid.UUID
	AssignmentID   uuid.UUID
	Stage          string
	EnteredAt      time.Time
	ExitedAt       *time.Time
	DurationHours  *int
	Probability    *int
	EstimatedValue *float64
	NextAction     *string
	NextActionDate *time.Time
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StageFields are the mutable fields carried by a transition or an
// in-place update. Nil fields are left untouched.
type StageFields struct {
	Probability    *int
	EstimatedValue *float64
	NextAction     *string
	NextActionDate *time.Time
	Notes          *string
}

const stageColumns = `id, assignment_id, stage, entered_at, exited_at, duration_hours,
	probability, estimated_value, next_action, next_action_date, notes, created_at, updated_at`

func scanStage(row pgx.Row) (Stage, error) {
	var stage Stage
	err := row.Scan(
		&stage.ID, &stage.AssignmentID, &stage.Stage, &stage.EnteredAt, &stage.ExitedAt,
		&stage.DurationHours, &stage.Probability, &stage.EstimatedValue, &stage.NextAction,
		&stage.NextActionDate, &stage.Notes, &stage.CreatedAt, &stage.UpdatedAt,
	)
	return stage, err
}

// OpenStage returns the assignment's single open stage.
func (r *Repository) OpenStage(ctx context.Context, assignmentID uuid.UUID) (Stage, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+stageColumns+` FROM pipeline_stages
		WHERE assignment_id = $1 AND exited_at IS NULL
	`, assignmentID)

	stage, err := scanStage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stage{}, ErrNoOpenStage
		}
		return Stage{}, fmt.Errorf("get open stage: %w", err)
	}
	return stage, nil
}

// ListStages returns the assignment's full stage history, oldest first.
func (r *Repository) ListStages(ctx context.Context, assignmentID uuid.UUID) ([]Stage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+stageColumns+` FROM pipeline_stages
		WHERE assignment_id = $1
		ORDER BY entered_at ASC
	`, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	stages := make([]Stage, 0)
	for rows.Next() {
		stage, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

// OpenInitialStage opens the first stage for an assignment. It is
// idempotent: when the assignment already has an open stage the existing
// one is returned untouched.
func (r *Repository) OpenInitialStage(ctx context.Context, assignmentID uuid.UUID, stage string) (Stage, bool, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO pipeline_stages (assignment_id, stage)
		VALUES ($1, $2)
		ON CONFLICT (assignment_id) WHERE exited_at IS NULL DO NOTHING
		RETURNING `+stageColumns, assignmentID, stage)

	created, err := scanStage(row)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if isForeignKeyViolation(err) {
			return Stage{}, false, ErrAssignmentMissing
		}
		return Stage{}, false, fmt.Errorf("open initial stage: %w", err)
	}

	existing, err := r.OpenStage(ctx, assignmentID)
	if err != nil {
		return Stage{}, false, err
	}
	return existing, false, nil
}

// UpdateOpenStage mutates the open stage's fields in place. Entered and
// exited timestamps are never touched, so the stage's duration is
// unaffected.
func (r *Repository) UpdateOpenStage(ctx context.Context, stageID uuid.UUID, fields StageFields) (Stage, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE pipeline_stages SET
			probability      = COALESCE($2, probability),
			estimated_value  = COALESCE($3, estimated_value),
			next_action      = COALESCE($4, next_action),
			next_action_date = COALESCE($5, next_action_date),
			notes            = COALESCE($6, notes),
			updated_at       = now()
		WHERE id = $1 AND exited_at IS NULL
		RETURNING `+stageColumns,
		stageID, fields.Probability, fields.EstimatedValue,
		fields.NextAction, fields.NextActionDate, fields.Notes,
	)

	stage, err := scanStage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stage{}, ErrStageRace
		}
		return Stage{}, fmt.Errorf("update open stage: %w", err)
	}
	return stage, nil
}

// Transition atomically closes the given open stage, opens the new one, and
// moves the owning assignment to assignmentStatus. currentStageID nil means
// the assignment has no open stage and only the open half runs. The close
// is a compare-and-swap on exited_at IS NULL; losing that race returns
// ErrStageRace and nothing is committed.
func (r *Repository) Transition(ctx context.Context, assignmentID uuid.UUID, currentStageID *uuid.UUID, newStage string, fields StageFields, assignmentStatus string) (Stage, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Stage{}, fmt.Errorf("transition stage: %w", err)
	}
	defer tx.Rollback(ctx)

	if currentStageID != nil {
		tag, err := tx.Exec(ctx, `
			UPDATE pipeline_stages SET
				exited_at      = now(),
				duration_hours = CEIL(EXTRACT(EPOCH FROM (now() - entered_at)) / 3600.0)::int,
				updated_at     = now()
			WHERE id = $1 AND exited_at IS NULL
		`, *currentStageID)
		if err != nil {
			return Stage{}, fmt.Errorf("close stage: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return Stage{}, ErrStageRace
		}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO pipeline_stages (assignment_id, stage, probability, estimated_value, next_action, next_action_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+stageColumns,
		assignmentID, newStage, fields.Probability, fields.EstimatedValue,
		fields.NextAction, fields.NextActionDate, fields.Notes,
	)
	opened, err := scanStage(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Stage{}, ErrStageRace
		}
		if isForeignKeyViolation(err) {
			return Stage{}, ErrAssignmentMissing
		}
		return Stage{}, fmt.Errorf("open stage: %w", err)
	}

	// Terminal assignments stay terminal even if a stale stage row slipped
	// past the service-level guard.
	_, err = tx.Exec(ctx, `
		UPDATE assignments SET status = $2, updated_at = now()
		WHERE id = $1
		  AND status NOT IN ('COMPLETED', 'CANCELLED')
		  AND status <> $2
	`, assignmentID, assignmentStatus)
	if err != nil {
		return Stage{}, fmt.Errorf("sync assignment status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Stage{}, fmt.Errorf("transition stage: %w", err)
	}
	return opened, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
