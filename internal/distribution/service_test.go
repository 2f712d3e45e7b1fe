package distribution

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"
)

type fakeLeadSource struct {
	leads []LeadCandidate
}

func (f *fakeLeadSource) CandidatesByIDs(_ context.Context, ids []uuid.UUID) ([]LeadCandidate, error) {
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make([]LeadCandidate, 0)
	for _, lead := range f.leads {
		if wanted[lead.ID] {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (f *fakeLeadSource) UnassignedCandidates(_ context.Context, limit int) ([]LeadCandidate, error) {
	if limit > len(f.leads) {
		limit = len(f.leads)
	}
	return f.leads[:limit], nil
}

type fakeAgentDirectory struct {
	agents []AgentCandidate
}

func (f *fakeAgentDirectory) ActiveCandidatesByIDs(_ context.Context, ids []uuid.UUID) ([]AgentCandidate, error) {
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make([]AgentCandidate, 0)
	for _, agent := range f.agents {
		if wanted[agent.ID] {
			out = append(out, agent)
		}
	}
	return out, nil
}

func (f *fakeAgentDirectory) ActiveCandidates(_ context.Context) ([]AgentCandidate, error) {
	return f.agents, nil
}

type fakeAssignmentStore struct {
	pairs       map[string]bool
	created     []CreatedAssignment
	createCalls int
	dropFirst   bool
}

func (f *fakeAssignmentStore) ActivePairs(_ context.Context, _ []uuid.UUID) (map[string]bool, error) {
	if f.pairs == nil {
		return map[string]bool{}, nil
	}
	return f.pairs, nil
}

func (f *fakeAssignmentStore) CreateAssignments(_ context.Context, placements []PlannedAssignment, _ string) ([]CreatedAssignment, error) {
	f.createCalls++
	out := make([]CreatedAssignment, 0, len(placements))
	for i, placement := range placements {
		if f.dropFirst && i == 0 {
			continue
		}
		out = append(out, CreatedAssignment{ID: uuid.New(), LeadID: placement.LeadID, AgentID: placement.AgentID})
	}
	f.created = append(f.created, out...)
	return out, nil
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Publish(_ context.Context, event events.Event) {
	f.published = append(f.published, event)
}

func (f *fakeBus) PublishSync(_ context.Context, event events.Event) error {
	f.published = append(f.published, event)
	return nil
}

func (f *fakeBus) Subscribe(string, events.Handler) {}

func newTestService(leads []LeadCandidate, agents []AgentCandidate, store *fakeAssignmentStore) (*Service, *fakeBus) {
	bus := &fakeBus{}
	svc := NewService(
		&fakeLeadSource{leads: leads},
		&fakeAgentDirectory{agents: agents},
		store,
		NewLocalLocker(),
		bus,
		logger.New("development"),
	)
	return svc, bus
}

func TestDistributeRejectsUnknownRule(t *testing.T) {
	svc, _ := newTestService(nil, makeAgents(1), &fakeAssignmentStore{})
	_, err := svc.Distribute(context.Background(), Command{Rule: Rule{Type: "RANDOM"}})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDistributeRequiresTerritoryMapping(t *testing.T) {
	svc, _ := newTestService(nil, makeAgents(1), &fakeAssignmentStore{})
	_, err := svc.Distribute(context.Background(), Command{Rule: Rule{Type: RuleTerritoryBased}})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDistributeRejectsUnknownAgents(t *testing.T) {
	agents := makeAgents(1)
	svc, _ := newTestService(nil, agents, &fakeAssignmentStore{})

	_, err := svc.Distribute(context.Background(), Command{
		Rule:     Rule{Type: RuleLoadBalanced},
		AgentIDs: []uuid.UUID{agents[0].ID, uuid.New()},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDistributeRefusesOutsideWorkingHours(t *testing.T) {
	svc, _ := newTestService(makeLeads(50), makeAgents(1), &fakeAssignmentStore{})
	svc.now = func() time.Time {
		return time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	}

	_, err := svc.Distribute(context.Background(), Command{
		Rule:         Rule{Type: RuleLoadBalanced, RespectWorkingHours: true},
		WorkingHours: &HourWindow{StartHour: 9, EndHour: 18},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDistributeIgnoresWindowWhenFlagUnset(t *testing.T) {
	store := &fakeAssignmentStore{}
	svc, _ := newTestService(makeLeads(50), makeAgents(1), store)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	}

	result, err := svc.Distribute(context.Background(), Command{
		Rule:         Rule{Type: RuleLoadBalanced},
		WorkingHours: &HourWindow{StartHour: 9, EndHour: 18},
	})
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if result.Stats.TotalAssigned != 1 {
		t.Fatalf("totalAssigned = %d, want 1", result.Stats.TotalAssigned)
	}
}

func TestDistributeReportsMissingLeadsAsSkipped(t *testing.T) {
	leads := makeLeads(50)
	store := &fakeAssignmentStore{}
	svc, _ := newTestService(leads, makeAgents(1), store)

	missing := uuid.New()
	result, err := svc.Distribute(context.Background(), Command{
		Rule:    Rule{Type: RuleLoadBalanced},
		LeadIDs: []uuid.UUID{leads[0].ID, missing},
	})
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}

	if result.Stats.TotalAssigned != 1 {
		t.Fatalf("totalAssigned = %d, want 1", result.Stats.TotalAssigned)
	}
	found := false
	for _, skipped := range result.Skipped {
		if skipped.LeadID == missing && skipped.Reason == "lead_not_found" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing lead not reported, skipped = %+v", result.Skipped)
	}
}

func TestDistributeZeroPlacementsIsStructuredResult(t *testing.T) {
	leads := makeLeads(10)
	store := &fakeAssignmentStore{}
	svc, _ := newTestService(leads, makeAgents(1), store)

	result, err := svc.Distribute(context.Background(), Command{
		Rule: Rule{Type: RuleLoadBalanced, MinLeadScore: 50},
	})
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}

	if !result.NoAssignmentsPossible {
		t.Fatal("expected NoAssignmentsPossible")
	}
	if store.createCalls != 0 {
		t.Fatal("store must not be called when nothing was planned")
	}
}

func TestDistributePublishesAssignmentsCreated(t *testing.T) {
	store := &fakeAssignmentStore{}
	svc, bus := newTestService(makeLeads(50, 60), makeAgents(2), store)

	result, err := svc.Distribute(context.Background(), Command{Rule: Rule{Type: RuleLoadBalanced}})
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if len(result.Placements) != 2 {
		t.Fatalf("placements = %d, want 2", len(result.Placements))
	}

	if len(bus.published) != 1 {
		t.Fatalf("published events = %d, want 1", len(bus.published))
	}
	created, ok := bus.published[0].(events.AssignmentsCreated)
	if !ok {
		t.Fatalf("unexpected event %T", bus.published[0])
	}
	if len(created.AssignmentIDs) != 2 {
		t.Fatalf("event carries %d ids, want 2", len(created.AssignmentIDs))
	}
}

func TestDistributeCountsInsertRaceLossAsDuplicate(t *testing.T) {
	store := &fakeAssignmentStore{dropFirst: true}
	svc, _ := newTestService(makeLeads(50, 60), makeAgents(2), store)

	result, err := svc.Distribute(context.Background(), Command{Rule: Rule{Type: RuleLoadBalanced}})
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}

	if result.Stats.TotalAssigned != 1 {
		t.Fatalf("totalAssigned = %d, want 1", result.Stats.TotalAssigned)
	}
	if result.Stats.SkippedDuplicate != 1 {
		t.Fatalf("skippedDuplicate = %d, want 1", result.Stats.SkippedDuplicate)
	}
}

func TestHourWindowContains(t *testing.T) {
	day := HourWindow{StartHour: 9, EndHour: 18}
	night := HourWindow{StartHour: 22, EndHour: 6}

	at := func(hour int) time.Time {
		return time.Date(2026, 3, 10, hour, 30, 0, 0, time.UTC)
	}

	if !day.Contains(at(9)) || !day.Contains(at(17)) {
		t.Fatal("expected in-window hours to pass")
	}
	if day.Contains(at(18)) || day.Contains(at(3)) {
		t.Fatal("expected out-of-window hours to fail")
	}
	if !night.Contains(at(23)) || !night.Contains(at(3)) {
		t.Fatal("expected wrapped window to cover both sides of midnight")
	}
	if night.Contains(at(12)) {
		t.Fatal("expected midday to be outside the wrapped window")
	}
}
