package distribution

import (
	"testing"

	agentrepo "estate_crm_backend/internal/agents/repository"
	assignmentrepo "estate_crm_backend/internal/assignments/repository"
	leadrepo "estate_crm_backend/internal/leads/repository"
)

// The adapters are the only glue between the repositories and the engine's
// ports; this pins their constructor signatures so a repository method
// rename cannot silently detach them.
func TestAdaptersSatisfyEnginePorts(t *testing.T) {
	var src LeadSource = NewLeadSource(leadrepo.New(nil))
	if src == nil {
		t.Fatal("lead source adapter is nil")
	}

	var dir AgentDirectory = NewAgentDirectory(agentrepo.New(nil))
	if dir == nil {
		t.Fatal("agent directory adapter is nil")
	}

	var store AssignmentStore = NewAssignmentStore(assignmentrepo.New(nil))
	if store == nil {
		t.Fatal("assignment store adapter is nil")
	}
}
