package distribution

import (
	"context"

	"github.com/google/uuid"
)

// LeadSource supplies candidate leads to distribute.
type LeadSource interface {
	// CandidatesByIDs resolves the requested ids. Ids that do not exist
	// are simply absent from the result.
	CandidatesByIDs(ctx context.Context, ids []uuid.UUID) ([]LeadCandidate, error)
	// UnassignedCandidates returns leads with no ACTIVE assignment, up to limit.
	UnassignedCandidates(ctx context.Context, limit int) ([]LeadCandidate, error)
}

// AgentDirectory supplies eligible agents and their current workload.
type AgentDirectory interface {
	// ActiveCandidatesByIDs resolves the requested agents, returning only
	// those that exist and have status ACTIVE.
	ActiveCandidatesByIDs(ctx context.Context, ids []uuid.UUID) ([]AgentCandidate, error)
	// ActiveCandidates returns every ACTIVE agent.
	ActiveCandidates(ctx context.Context) ([]AgentCandidate, error)
}

// CreatedAssignment is one persisted placement.
type CreatedAssignment struct {
	ID      uuid.UUID
	LeadID  uuid.UUID
	AgentID uuid.UUID
}

// AssignmentStore persists planned placements.
type AssignmentStore interface {
	// ActivePairs returns the existing ACTIVE (lead, agent) bindings for
	// the given leads, keyed "leadID/agentID".
	ActivePairs(ctx context.Context, leadIDs []uuid.UUID) (map[string]bool, error)
	// CreateAssignments persists the placements with the given priority.
	// Placements that lost a concurrent-insert race are silently absent
	// from the result.
	CreateAssignments(ctx context.Context, placements []PlannedAssignment, priority string) ([]CreatedAssignment, error)
}
