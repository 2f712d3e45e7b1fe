package distribution

import (
	"context"

	"github.com/google/uuid"

	agentrepo "estate_crm_backend/internal/agents/repository"
	assignmentrepo "estate_crm_backend/internal/assignments/repository"
	leadrepo "estate_crm_backend/internal/leads/repository"
)

// leadSourceAdapter exposes the lead repository as a LeadSource.
type leadSourceAdapter struct {
	repo *leadrepo.Repository
}

func NewLeadSource(repo *leadrepo.Repository) LeadSource {
	return &leadSourceAdapter{repo: repo}
}

func (a *leadSourceAdapter) CandidatesByIDs(ctx context.Context, ids []uuid.UUID) ([]LeadCandidate, error) {
	leads, err := a.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return toLeadCandidates(leads), nil
}

func (a *leadSourceAdapter) UnassignedCandidates(ctx context.Context, limit int) ([]LeadCandidate, error) {
	leads, err := a.repo.ListUnassigned(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toLeadCandidates(leads), nil
}

func toLeadCandidates(leads []leadrepo.Lead) []LeadCandidate {
	candidates := make([]LeadCandidate, len(leads))
	for i, lead := range leads {
		candidates[i] = LeadCandidate{ID: lead.ID, Score: lead.Score, Territory: lead.Territory}
	}
	return candidates
}

// agentDirectoryAdapter joins the agent repository with its derived
// workload counts so candidates carry their current ACTIVE load.
type agentDirectoryAdapter struct {
	agents *agentrepo.Repository
}

func NewAgentDirectory(agents *agentrepo.Repository) AgentDirectory {
	return &agentDirectoryAdapter{agents: agents}
}

func (a *agentDirectoryAdapter) ActiveCandidatesByIDs(ctx context.Context, ids []uuid.UUID) ([]AgentCandidate, error) {
	agents, err := a.agents.ListActiveByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return a.withWorkload(ctx, agents)
}

func (a *agentDirectoryAdapter) ActiveCandidates(ctx context.Context) ([]AgentCandidate, error) {
	status := "ACTIVE"
	agents, err := a.agents.List(ctx, &status)
	if err != nil {
		return nil, err
	}
	return a.withWorkload(ctx, agents)
}

func (a *agentDirectoryAdapter) withWorkload(ctx context.Context, agents []agentrepo.Agent) ([]AgentCandidate, error) {
	ids := make([]uuid.UUID, len(agents))
	for i, agent := range agents {
		ids[i] = agent.ID
	}
	workloads, err := a.agents.WorkloadCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]AgentCandidate, len(agents))
	for i, agent := range agents {
		candidates[i] = AgentCandidate{
			ID:         agent.ID,
			Territory:  agent.Territory,
			ActiveLoad: workloads[agent.ID],
		}
	}
	return candidates, nil
}

// assignmentStoreAdapter exposes the assignment repository as an
// AssignmentStore.
type assignmentStoreAdapter struct {
	repo *assignmentrepo.Repository
}

func NewAssignmentStore(repo *assignmentrepo.Repository) AssignmentStore {
	return &assignmentStoreAdapter{repo: repo}
}

func (a *assignmentStoreAdapter) ActivePairs(ctx context.Context, leadIDs []uuid.UUID) (map[string]bool, error) {
	return a.repo.ActivePairs(ctx, leadIDs)
}

func (a *assignmentStoreAdapter) CreateAssignments(ctx context.Context, placements []PlannedAssignment, priority string) ([]CreatedAssignment, error) {
	params := make([]assignmentrepo.CreateAssignmentParams, len(placements))
	for i, placement := range placements {
		params[i] = assignmentrepo.CreateAssignmentParams{
			LeadID:   placement.LeadID,
			AgentID:  placement.AgentID,
			Priority: priority,
		}
	}

	assignments, err := a.repo.BulkCreate(ctx, params)
	if err != nil {
		return nil, err
	}

	created := make([]CreatedAssignment, len(assignments))
	for i, assignment := range assignments {
		created[i] = CreatedAssignment{ID: assignment.ID, LeadID: assignment.LeadID, AgentID: assignment.AgentID}
	}
	return created, nil
}
