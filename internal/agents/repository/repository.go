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

var ErrNotFound = errors.New("agent not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Agent struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Phone      *string
	Territory  *string
	Commission float64
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CreateAgentParams struct {
	Name       string
	Email      string
	Phone      *string
	Territory  *string
	Commission float64
}

const agentColumns = `id, name, email, phone, territory, commission, status, created_at, updated_at`

func scanAgent(row pgx.Row) (Agent, error) {
	var agent Agent
	err := row.Scan(
		&agent.ID, &agent.Name, &agent.Email, &agent.Phone, &agent.Territory,
		&agent.Commission, &agent.Status, &agent.CreatedAt, &agent.UpdatedAt,
	)
	return agent, err
}

func (r *Repository) Create(ctx context.Context, params CreateAgentParams) (Agent, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agents (name, email, phone, territory, commission)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+agentColumns,
		params.Name, params.Email, params.Phone, params.Territory, params.Commission,
	)

	agent, err := scanAgent(row)
	if err != nil {
		return Agent{}, fmt.Errorf("create agent: %w", err)
	}
	return agent, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Agent, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id)

	agent, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, fmt.Errorf("get agent: %w", err)
	}
	return agent, nil
}

type UpdateAgentParams struct {
	Name       *string
	Phone      *string
	Territory  *string
	Commission *float64
	Status     *string
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateAgentParams) (Agent, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE agents
		SET name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			territory = COALESCE($4, territory),
			commission = COALESCE($5, commission),
			status = COALESCE($6, status),
			updated_at = now()
		WHERE id = $1
		RETURNING `+agentColumns,
		id, params.Name, params.Phone, params.Territory, params.Commission, params.Status,
	)

	agent, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, fmt.Errorf("update agent: %w", err)
	}
	return agent, nil
}

func (r *Repository) List(ctx context.Context, status *string) ([]Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents`
	args := make([]interface{}, 0, 1)
	if status != nil {
		args = append(args, *status)
		query += ` WHERE status = $1`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	agents := make([]Agent, 0)
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}

	return agents, nil
}

// ListActiveByIDs returns only the ACTIVE agents among the given ids.
func (r *Repository) ListActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]Agent, error) {
	if len(ids) == 0 {
		return []Agent{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+agentColumns+` FROM agents WHERE id = ANY($1) AND status = 'ACTIVE'
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("list active agents: %w", err)
	}
	defer rows.Close()

	agents := make([]Agent, 0, len(ids))
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}

	return agents, nil
}

// WorkloadCounts returns the number of ACTIVE assignments per agent. Agents
// with no active assignments are absent from the map; workload is derived,
// never stored.
func (r *Repository) WorkloadCounts(ctx context.Context, agentIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(agentIDs))
	if len(agentIDs) == 0 {
		return counts, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT agent_id, COUNT(*)
		FROM assignments
		WHERE agent_id = ANY($1) AND status = 'ACTIVE'
		GROUP BY agent_id
	`, agentIDs)
	if err != nil {
		return nil, fmt.Errorf("count agent workload: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var agentID uuid.UUID
		var count int
		if err := rows.Scan(&agentID, &count); err != nil {
			return nil, fmt.Errorf("scan workload count: %w", err)
		}
		counts[agentID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workload counts: %w", err)
	}

	return counts, nil
}
