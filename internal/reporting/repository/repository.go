// Package repository computes the derived reporting views. Everything here
// is read-only aggregation over leads, assignments, and pipeline stages;
// no hidden state is kept.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Performance summarizes closed pipelines, optionally for one agent.
type Performance struct {
	WonCount      int     `json:"wonCount"`
	LostCount     int     `json:"lostCount"`
	OpenCount     int     `json:"openCount"`
	WinRate       float64 `json:"winRate"`
	AvgCycleHours float64 `json:"avgCycleHours"`
}

// Performance computes win rate over closed pipelines and the average
// cycle time of won ones. Cycle time is the span from first stage entry to
// the terminal stage entry, in hours. agentID nil aggregates all agents.
func (r *Repository) Performance(ctx context.Context, agentID *uuid.UUID) (Performance, error) {
	var perf Performance
	err := r.pool.QueryRow(ctx, `
		WITH outcomes AS (
			SELECT
				a.id,
				bool_or(ps.stage = 'WON') AS won,
				bool_or(ps.stage = 'LOST') AS lost,
				EXTRACT(EPOCH FROM (max(ps.entered_at) - min(ps.entered_at))) / 3600.0 AS cycle_hours
			FROM assignments a
			JOIN pipeline_stages ps ON ps.assignment_id = a.id
			WHERE $1::uuid IS NULL OR a.agent_id = $1
			GROUP BY a.id
		)
		SELECT
			count(*) FILTER (WHERE won),
			count(*) FILTER (WHERE lost),
			count(*) FILTER (WHERE NOT won AND NOT lost),
			COALESCE(avg(cycle_hours) FILTER (WHERE won), 0)
		FROM outcomes
	`, agentID).Scan(&perf.WonCount, &perf.LostCount, &perf.OpenCount, &perf.AvgCycleHours)
	if err != nil {
		return Performance{}, fmt.Errorf("performance report: %w", err)
	}

	if closed := perf.WonCount + perf.LostCount; closed > 0 {
		perf.WinRate = float64(perf.WonCount) / float64(closed)
	}
	return perf, nil
}

// StageValue is the open pipeline value aggregated for one stage.
type StageValue struct {
	Stage      string  `json:"stage"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"totalValue"`
}

// PipelineValue sums the estimated value of currently open stages, grouped
// by stage and ordered by total descending.
func (r *Repository) PipelineValue(ctx context.Context, agentID *uuid.UUID) ([]StageValue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ps.stage, count(*), COALESCE(sum(ps.estimated_value), 0)
		FROM pipeline_stages ps
		JOIN assignments a ON a.id = ps.assignment_id
		WHERE ps.exited_at IS NULL
		  AND ($1::uuid IS NULL OR a.agent_id = $1)
		GROUP BY ps.stage
		ORDER BY 3 DESC
	`, agentID)
	if err != nil {
		return nil, fmt.Errorf("pipeline value report: %w", err)
	}
	defer rows.Close()

	values := make([]StageValue, 0)
	for rows.Next() {
		var value StageValue
		if err := rows.Scan(&value.Stage, &value.Count, &value.TotalValue); err != nil {
			return nil, fmt.Errorf("scan stage value: %w", err)
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

// GradeBucket counts leads per grade.
type GradeBucket struct {
	Grade    string  `json:"grade"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avgScore"`
}

// GradeDistribution groups active leads by grade.
func (r *Repository) GradeDistribution(ctx context.Context) ([]GradeBucket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT grade, count(*), COALESCE(avg(score), 0)
		FROM leads
		WHERE status = 'ACTIVE'
		GROUP BY grade
		ORDER BY count(*) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("grade distribution report: %w", err)
	}
	defer rows.Close()

	buckets := make([]GradeBucket, 0)
	for rows.Next() {
		var bucket GradeBucket
		if err := rows.Scan(&bucket.Grade, &bucket.Count, &bucket.AvgScore); err != nil {
			return nil, fmt.Errorf("scan grade bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

// AgentLoad is one agent's current workload snapshot.
type AgentLoad struct {
	AgentID     uuid.UUID `json:"agentId"`
	AgentName   string    `json:"agentName"`
	ActiveCount int       `json:"activeCount"`
	OnHoldCount int       `json:"onHoldCount"`
}

// AgentLoads lists active agents with their ACTIVE and ON_HOLD assignment
// counts, busiest first.
func (r *Repository) AgentLoads(ctx context.Context) ([]AgentLoad, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			ag.id,
			ag.name,
			count(*) FILTER (WHERE a.status = 'ACTIVE'),
			count(*) FILTER (WHERE a.status = 'ON_HOLD')
		FROM agents ag
		LEFT JOIN assignments a ON a.agent_id = ag.id
		WHERE ag.status = 'ACTIVE'
		GROUP BY ag.id, ag.name
		ORDER BY 3 DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("agent load report: %w", err)
	}
	defer rows.Close()

	loads := make([]AgentLoad, 0)
	for rows.Next() {
		var load AgentLoad
		if err := rows.Scan(&load.AgentID, &load.AgentName, &load.ActiveCount, &load.OnHoldCount); err != nil {
			return nil, fmt.Errorf("scan agent load: %w", err)
		}
		loads = append(loads, load)
	}
	return loads, rows.Err()
}
