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

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID             uuid.UUID
	FirstName      string
	LastName       string
	Email          *string
	Phone          string
	Territory      *string
	Score          int
	Grade          string
	LastActivityAt *time.Time
	SeriousBuyer   bool
	BudgetEstimate *float64
	Status         string
	Role           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type CreateLeadParams struct {
	FirstName      string
	LastName       string
	Email          *string
	Phone          string
	Territory      *string
	SeriousBuyer   bool
	BudgetEstimate *float64
}

const leadColumns = `id, first_name, last_name, email, phone, territory, score, grade,
	last_activity_at, serious_buyer, budget_estimate, status, role, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.FirstName, &lead.LastName, &lead.Email, &lead.Phone,
		&lead.Territory, &lead.Score, &lead.Grade, &lead.LastActivityAt,
		&lead.SeriousBuyer, &lead.BudgetEstimate, &lead.Status, &lead.Role,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (first_name, last_name, email, phone, territory, serious_buyer, budget_estimate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+leadColumns,
		params.FirstName, params.LastName, params.Email, params.Phone,
		params.Territory, params.SeriousBuyer, params.BudgetEstimate,
	)

	lead, err := scanLead(row)
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// GetByPhone looks up a lead by its normalized phone number, used for
// duplicate detection on import.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE phone = $1`, phone)

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, fmt.Errorf("get lead by phone: %w", err)
	}
	return lead, nil
}

type ListLeadsFilter struct {
	Grade    *string
	MinScore *int
	MaxScore *int
	Limit    int
}

func (r *Repository) List(ctx context.Context, filter ListLeadsFilter) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	args := make([]interface{}, 0, 4)

	if filter.Grade != nil {
		args = append(args, *filter.Grade)
		query += fmt.Sprintf(" AND grade = $%d", len(args))
	}
	if filter.MinScore != nil {
		args = append(args, *filter.MinScore)
		query += fmt.Sprintf(" AND score >= $%d", len(args))
	}
	if filter.MaxScore != nil {
		args = append(args, *filter.MaxScore)
		query += fmt.Sprintf(" AND score <= $%d", len(args))
	}

	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY score DESC, created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}

	return leads, nil
}

// ListByIDs returns the leads for the given ids, in no particular order.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Lead, error) {
	if len(ids) == 0 {
		return []Lead{}, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list leads by ids: %w", err)
	}
	defer rows.Close()

	leads := make([]Lead, 0, len(ids))
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}

	return leads, nil
}

// ListActiveLeadIDs returns ids of leads eligible for bulk recalculation:
// ACTIVE leads with the USER role.
func (r *Repository) ListActiveLeadIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM leads WHERE status = 'ACTIVE' AND role = 'USER'
	`)
	if err != nil {
		return nil, fmt.Errorf("list active lead ids: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan lead id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lead ids: %w", err)
	}

	return ids, nil
}

// ListUnassigned returns leads with no ACTIVE assignment, candidates for
// distribution batches.
func (r *Repository) ListUnassigned(ctx context.Context, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads l
		WHERE l.status = 'ACTIVE'
		  AND NOT EXISTS (
			SELECT 1 FROM assignments a
			WHERE a.lead_id = l.id AND a.status = 'ACTIVE'
		  )
		ORDER BY l.score DESC, l.created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unassigned leads: %w", err)
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}

	return leads, nil
}

// UpdateScore writes the recalculated score, grade, and last activity
// timestamp. It touches nothing else on the lead.
func (r *Repository) UpdateScore(ctx context.Context, id uuid.UUID, score int, grade string, lastActivityAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET score = $2, grade = $3, last_activity_at = $4, updated_at = now()
		WHERE id = $1
	`, id, score, grade, lastActivityAt)
	if err != nil {
		return fmt.Errorf("update lead score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
