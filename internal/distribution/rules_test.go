package distribution

import (
	"testing"

	"github.com/google/uuid"
)

func makeLeads(scores ...int) []LeadCandidate {
	leads := make([]LeadCandidate, len(scores))
	for i, score := range scores {
		leads[i] = LeadCandidate{ID: uuid.New(), Score: score}
	}
	return leads
}

func makeAgents(n int) []AgentCandidate {
	agents := make([]AgentCandidate, n)
	for i := range agents {
		agents[i] = AgentCandidate{ID: uuid.New()}
	}
	return agents
}

func countByAgent(plan Plan) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for _, placement := range plan.Assignments {
		counts[placement.AgentID]++
	}
	return counts
}

func TestLoadBalancedSplitsEvenlyUnderCap(t *testing.T) {
	leads := makeLeads(50, 50, 50, 50, 50, 50, 50, 50, 50, 50)
	agents := makeAgents(2)
	rule := Rule{Type: RuleLoadBalanced, MaxLeadsPerManager: 5}

	plan := BuildPlan(rule, leads, agents, map[string]bool{})

	if plan.Stats.TotalAssigned != 10 {
		t.Fatalf("totalAssigned = %d, want 10", plan.Stats.TotalAssigned)
	}
	counts := countByAgent(plan)
	for _, agent := range agents {
		if counts[agent.ID] != 5 {
			t.Fatalf("agent %s got %d leads, want 5", agent.ID, counts[agent.ID])
		}
	}
}

func TestLoadBalancedPrefersLeastLoadedAgent(t *testing.T) {
	leads := makeLeads(50)
	agents := []AgentCandidate{
		{ID: uuid.New(), ActiveLoad: 7},
		{ID: uuid.New(), ActiveLoad: 2},
	}
	plan := BuildPlan(Rule{Type: RuleLoadBalanced}, leads, agents, map[string]bool{})

	if len(plan.Assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(plan.Assignments))
	}
	if plan.Assignments[0].AgentID != agents[1].ID {
		t.Fatal("expected the least loaded agent to receive the lead")
	}
}

func TestRoundRobinCyclesAgentsInOrder(t *testing.T) {
	leads := makeLeads(10, 20, 30, 40)
	agents := makeAgents(3)
	plan := BuildPlan(Rule{Type: RuleRoundRobin}, leads, agents, map[string]bool{})

	if len(plan.Assignments) != 4 {
		t.Fatalf("assignments = %d, want 4", len(plan.Assignments))
	}
	want := []uuid.UUID{agents[0].ID, agents[1].ID, agents[2].ID, agents[0].ID}
	for i, placement := range plan.Assignments {
		if placement.AgentID != want[i] {
			t.Fatalf("placement %d went to wrong agent", i)
		}
	}
}

func TestMinLeadScoreFiltersAndReports(t *testing.T) {
	leads := makeLeads(10, 40, 5, 80)
	agents := makeAgents(1)
	plan := BuildPlan(Rule{Type: RuleLoadBalanced, MinLeadScore: 30}, leads, agents, map[string]bool{})

	if plan.Stats.TotalAssigned != 2 {
		t.Fatalf("totalAssigned = %d, want 2", plan.Stats.TotalAssigned)
	}
	if plan.Stats.SkippedLowScore != 2 {
		t.Fatalf("skippedLowScore = %d, want 2", plan.Stats.SkippedLowScore)
	}
	for _, skipped := range plan.Skipped {
		if skipped.Reason != SkipLowScore {
			t.Fatalf("skip reason = %s, want %s", skipped.Reason, SkipLowScore)
		}
	}
}

func TestDuplicateActivePairIsSkippedNotAssigned(t *testing.T) {
	leads := makeLeads(50)
	agents := makeAgents(1)
	active := map[string]bool{pairKey(leads[0].ID, agents[0].ID): true}

	plan := BuildPlan(Rule{Type: RuleLoadBalanced}, leads, agents, active)

	if plan.Stats.TotalAssigned != 0 {
		t.Fatalf("totalAssigned = %d, want 0", plan.Stats.TotalAssigned)
	}
	if plan.Stats.SkippedDuplicate != 1 {
		t.Fatalf("skippedDuplicate = %d, want 1", plan.Stats.SkippedDuplicate)
	}
	if len(plan.Skipped) != 1 || plan.Skipped[0].Reason != SkipDuplicate {
		t.Fatalf("expected one duplicate skip, got %+v", plan.Skipped)
	}
}

func TestDuplicatePairFallsBackToAnotherAgent(t *testing.T) {
	leads := makeLeads(50)
	agents := makeAgents(2)
	active := map[string]bool{pairKey(leads[0].ID, agents[0].ID): true}

	plan := BuildPlan(Rule{Type: RuleLoadBalanced}, leads, agents, active)

	if len(plan.Assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(plan.Assignments))
	}
	if plan.Assignments[0].AgentID != agents[1].ID {
		t.Fatal("expected the lead to be placed with the other agent")
	}
}

func TestCapacityExhaustedReportsSkip(t *testing.T) {
	leads := makeLeads(50, 50, 50)
	agents := makeAgents(1)
	plan := BuildPlan(Rule{Type: RuleLoadBalanced, MaxLeadsPerManager: 2}, leads, agents, map[string]bool{})

	if plan.Stats.TotalAssigned != 2 {
		t.Fatalf("totalAssigned = %d, want 2", plan.Stats.TotalAssigned)
	}
	if plan.Stats.SkippedNoCapacity != 1 {
		t.Fatalf("skippedNoCapacity = %d, want 1", plan.Stats.SkippedNoCapacity)
	}
}

func TestExistingLoadCountsTowardCap(t *testing.T) {
	leads := makeLeads(50, 50)
	agents := []AgentCandidate{{ID: uuid.New(), ActiveLoad: 4}}
	plan := BuildPlan(Rule{Type: RuleLoadBalanced, MaxLeadsPerManager: 5}, leads, agents, map[string]bool{})

	if plan.Stats.TotalAssigned != 1 {
		t.Fatalf("totalAssigned = %d, want 1", plan.Stats.TotalAssigned)
	}
	if plan.Stats.SkippedNoCapacity != 1 {
		t.Fatalf("skippedNoCapacity = %d, want 1", plan.Stats.SkippedNoCapacity)
	}
}

func TestScorePrioritizedPlacesHighScorersFirst(t *testing.T) {
	leads := makeLeads(10, 90, 40)
	agents := makeAgents(1)
	plan := BuildPlan(Rule{Type: RuleScorePrioritized, MaxLeadsPerManager: 2}, leads, agents, map[string]bool{})

	if len(plan.Assignments) != 2 {
		t.Fatalf("assignments = %d, want 2", len(plan.Assignments))
	}
	if plan.Assignments[0].LeadID != leads[1].ID {
		t.Fatal("highest scoring lead was not placed first")
	}
	if plan.Assignments[1].LeadID != leads[2].ID {
		t.Fatal("second highest scoring lead was not placed second")
	}
	// The lowest scorer lost the capacity race.
	if plan.Skipped[0].LeadID != leads[0].ID {
		t.Fatal("expected the lowest scorer to be skipped")
	}
}

func TestTerritoryBasedRoutesByMapping(t *testing.T) {
	north := "north"
	south := "south"
	agents := makeAgents(2)

	leads := []LeadCandidate{
		{ID: uuid.New(), Score: 50, Territory: &north},
		{ID: uuid.New(), Score: 50, Territory: &south},
	}
	rule := Rule{
		Type: RuleTerritoryBased,
		TerritoryMapping: map[string][]uuid.UUID{
			north: {agents[0].ID},
			south: {agents[1].ID},
		},
	}

	plan := BuildPlan(rule, leads, agents, map[string]bool{})

	if len(plan.Assignments) != 2 {
		t.Fatalf("assignments = %d, want 2", len(plan.Assignments))
	}
	if plan.Assignments[0].AgentID != agents[0].ID {
		t.Fatal("north lead routed to wrong agent")
	}
	if plan.Assignments[1].AgentID != agents[1].ID {
		t.Fatal("south lead routed to wrong agent")
	}
	if plan.Assignments[0].Reason != "territory:north" {
		t.Fatalf("reason = %s, want territory:north", plan.Assignments[0].Reason)
	}
}

func TestTerritoryBasedFallsBackWithoutResolvableTerritory(t *testing.T) {
	agents := makeAgents(2)
	leads := makeLeads(50) // no territory set

	rule := Rule{
		Type:             RuleTerritoryBased,
		TerritoryMapping: map[string][]uuid.UUID{"north": {agents[0].ID}},
	}
	plan := BuildPlan(rule, leads, agents, map[string]bool{})

	if len(plan.Assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(plan.Assignments))
	}
	if plan.Assignments[0].Reason != "territory_fallback" {
		t.Fatalf("reason = %s, want territory_fallback", plan.Assignments[0].Reason)
	}
}

func TestPrioritizeHighScorersReordersAnyRule(t *testing.T) {
	leads := makeLeads(10, 90)
	agents := makeAgents(2)
	plan := BuildPlan(Rule{Type: RuleRoundRobin, PrioritizeHighScorers: true}, leads, agents, map[string]bool{})

	if plan.Assignments[0].LeadID != leads[1].ID {
		t.Fatal("expected the high scorer to be placed first")
	}
}

func TestEmptyBatchProducesEmptyPlan(t *testing.T) {
	plan := BuildPlan(Rule{Type: RuleLoadBalanced}, nil, makeAgents(2), map[string]bool{})
	if plan.Stats.TotalRequested != 0 || plan.Stats.TotalAssigned != 0 {
		t.Fatalf("unexpected stats %+v", plan.Stats)
	}
}
