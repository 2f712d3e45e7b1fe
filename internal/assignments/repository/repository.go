package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("assignment not found")

// Assignment status values. COMPLETED and CANCELLED are terminal: resuming
// work with the same agent requires a new assignment row.
const (
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusOnHold    = "ON_HOLD"
)

// Assignment priority values. The canonical enumeration is LOW/NORMAL/HIGH;
// the legacy "MEDIUM" spelling is mapped to NORMAL at the transport layer.
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
)

// IsTerminalStatus reports whether the status permits no further changes.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Assignment struct {
	ID                uuid.UUID
	LeadID            uuid.UUID
	AgentID           uuid.UUID
	Status            string
	Priority          string
	AssignedAt        time.Time
	ExpectedCloseDate *time.Time
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type CreateAssignmentParams struct {
	LeadID            uuid.UUID
	AgentID           uuid.UUID
	Priority          string
	ExpectedCloseDate *time.Time
	Notes             *string
}

const assignmentColumns = `id, lead_id, agent_id, status, priority, assigned_at,
	expected_close_date, notes, created_at, updated_at`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(
		&a.ID, &a.LeadID, &a.AgentID, &a.Status, &a.Priority, &a.AssignedAt,
		&a.ExpectedCloseDate, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// Create inserts one assignment. A duplicate ACTIVE (lead, agent) pair hits
// the partial unique index and surfaces as ErrDuplicatePair.
func (r *Repository) Create(ctx context.Context, params CreateAssignmentParams) (Assignment, error) {
	priority := params.Priority
	if priority == "" {
		priority = PriorityNormal
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO assignments (lead_id, agent_id, priority, expected_close_date, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+assignmentColumns,
		params.LeadID, params.AgentID, priority, params.ExpectedCloseDate, params.Notes,
	)

	assignment, err := scanAssignment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Assignment{}, ErrDuplicatePair
		}
		return Assignment{}, fmt.Errorf("create assignment: %w", err)
	}
	return assignment, nil
}

// BulkCreate inserts the given assignments, skipping any that would duplicate
// an existing ACTIVE (lead, agent) pair. It returns only the rows actually
// created.
func (r *Repository) BulkCreate(ctx context.Context, params []CreateAssignmentParams) ([]Assignment, error) {
	if len(params) == 0 {
		return []Assignment{}, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("bulk create assignments: %w", err)
	}
	defer tx.Rollback(ctx)

	created := make([]Assignment, 0, len(params))
	for _, p := range params {
		priority := p.Priority
		if priority == "" {
			priority = PriorityNormal
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO assignments (lead_id, agent_id, priority, expected_close_date, notes)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (lead_id, agent_id) WHERE status = 'ACTIVE' DO NOTHING
			RETURNING `+assignmentColumns,
			p.LeadID, p.AgentID, priority, p.ExpectedCloseDate, p.Notes,
		)

		assignment, err := scanAssignment(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue // duplicate active pair, skip
			}
			return nil, fmt.Errorf("bulk create assignment: %w", err)
		}
		created = append(created, assignment)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("bulk create assignments: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id)

	assignment, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, ErrNotFound
		}
		return Assignment{}, fmt.Errorf("get assignment: %w", err)
	}
	return assignment, nil
}

func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Assignment, error) {
	if len(ids) == 0 {
		return []Assignment{}, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list assignments by ids: %w", err)
	}
	defer rows.Close()

	return collectAssignments(rows)
}

type ListFilter struct {
	AgentID *uuid.UUID
	LeadID  *uuid.UUID
	Status  *string
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE 1=1`
	args := make([]interface{}, 0, 3)

	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		query += fmt.Sprintf(" AND agent_id = $%d", len(args))
	}
	if filter.LeadID != nil {
		args = append(args, *filter.LeadID)
		query += fmt.Sprintf(" AND lead_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY assigned_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	return collectAssignments(rows)
}

// UpdateStatus sets the assignment status. Terminal assignments are left
// untouched; the return value reports whether a row actually changed.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE assignments
		SET status = $2, updated_at = now()
		WHERE id = $1
		  AND status NOT IN ('COMPLETED', 'CANCELLED')
		  AND status <> $2
	`, id, status)
	if err != nil {
		return false, fmt.Errorf("update assignment status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdatePriority sets the assignment priority, reporting whether it changed.
func (r *Repository) UpdatePriority(ctx context.Context, id uuid.UUID, priority string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE assignments
		SET priority = $2, updated_at = now()
		WHERE id = $1 AND priority <> $2
	`, id, priority)
	if err != nil {
		return false, fmt.Errorf("update assignment priority: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Reassign atomically deletes the given assignments and creates replacements
// binding the same leads to the new agent. Either the whole swap commits or
// none of it does; a lead is never left without its replacement. Leads that
// already hold an ACTIVE assignment with the new agent are skipped.
func (r *Repository) Reassign(ctx context.Context, oldIDs []uuid.UUID, newAgentID uuid.UUID, priority string) ([]Assignment, error) {
	if len(oldIDs) == 0 {
		return []Assignment{}, nil
	}
	if priority == "" {
		priority = PriorityNormal
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("reassign: %w", err)
	}
	defer tx.Rollback(ctx)

	// Capture lead identities before the delete so they survive the swap.
	rows, err := tx.Query(ctx, `
		SELECT id, lead_id FROM assignments WHERE id = ANY($1) FOR UPDATE
	`, oldIDs)
	if err != nil {
		return nil, fmt.Errorf("reassign lookup: %w", err)
	}

	leadIDs := make([]uuid.UUID, 0, len(oldIDs))
	for rows.Next() {
		var id, leadID uuid.UUID
		if err := rows.Scan(&id, &leadID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("reassign scan: %w", err)
		}
		leadIDs = append(leadIDs, leadID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("reassign lookup: %w", err)
	}
	rows.Close()

	if len(leadIDs) == 0 {
		return nil, ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM assignments WHERE id = ANY($1)`, oldIDs); err != nil {
		return nil, fmt.Errorf("reassign delete: %w", err)
	}

	created := make([]Assignment, 0, len(leadIDs))
	for _, leadID := range leadIDs {
		row := tx.QueryRow(ctx, `
			INSERT INTO assignments (lead_id, agent_id, priority)
			VALUES ($1, $2, $3)
			ON CONFLICT (lead_id, agent_id) WHERE status = 'ACTIVE' DO NOTHING
			RETURNING `+assignmentColumns,
			leadID, newAgentID, priority,
		)

		assignment, err := scanAssignment(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue // lead already actively assigned to the new agent
			}
			return nil, fmt.Errorf("reassign create: %w", err)
		}
		created = append(created, assignment)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("reassign: %w", err)
	}
	return created, nil
}

// Delete removes an assignment, reporting whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete assignment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteMany removes the given assignments and returns the ids that existed.
func (r *Repository) DeleteMany(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}

	rows, err := r.pool.Query(ctx, `DELETE FROM assignments WHERE id = ANY($1) RETURNING id`, ids)
	if err != nil {
		return nil, fmt.Errorf("delete assignments: %w", err)
	}
	defer rows.Close()

	deleted := make([]uuid.UUID, 0, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deleted id: %w", err)
		}
		deleted = append(deleted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted ids: %w", err)
	}

	return deleted, nil
}

// ActivePairs returns the set of (lead, agent) pairs that currently hold an
// ACTIVE assignment, keyed as "leadID/agentID". The distribution engine uses
// this to skip duplicates inside a batch.
func (r *Repository) ActivePairs(ctx context.Context, leadIDs []uuid.UUID) (map[string]bool, error) {
	pairs := make(map[string]bool)
	if len(leadIDs) == 0 {
		return pairs, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT lead_id, agent_id FROM assignments
		WHERE lead_id = ANY($1) AND status = 'ACTIVE'
	`, leadIDs)
	if err != nil {
		return nil, fmt.Errorf("list active pairs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var leadID, agentID uuid.UUID
		if err := rows.Scan(&leadID, &agentID); err != nil {
			return nil, fmt.Errorf("scan active pair: %w", err)
		}
		pairs[PairKey(leadID, agentID)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active pairs: %w", err)
	}

	return pairs, nil
}

// PairKey builds the map key for an active (lead, agent) pair.
func PairKey(leadID, agentID uuid.UUID) string {
	return leadID.String() + "/" + agentID.String()
}

func collectAssignments(rows pgx.Rows) ([]Assignment, error) {
	assignments := make([]Assignment, 0)
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return assignments, nil
}
