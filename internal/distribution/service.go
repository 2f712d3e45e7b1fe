package distribution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"
)

const (
	defaultBatchSize = 100
	maxBatchSize     = 500
)

// HourWindow is a caller-provided daily window, hours in [0, 24).
type HourWindow struct {
	StartHour int
	EndHour   int
}

// Contains reports whether t falls inside the window. A window that wraps
// midnight (e.g. 22 to 6) is honored.
func (w HourWindow) Contains(t time.Time) bool {
	h := t.Hour()
	if w.StartHour <= w.EndHour {
		return h >= w.StartHour && h < w.EndHour
	}
	return h >= w.StartHour || h < w.EndHour
}

// Command describes one distribution run.
type Command struct {
	// LeadIDs selects the leads to distribute. Empty means "unassigned
	// leads", capped at BatchSize.
	LeadIDs []uuid.UUID
	// AgentIDs selects the eligible agents. Empty means all ACTIVE agents.
	AgentIDs []uuid.UUID
	Rule     Rule
	Priority string
	// BatchSize caps the unassigned-lead fetch; ignored when LeadIDs is set.
	BatchSize int
	// WorkingHours is the window the run must fall inside when the rule
	// sets RespectWorkingHours. Without a window the flag is a no-op.
	WorkingHours *HourWindow
}

// Placement is one persisted lead-to-agent assignment in the result.
type Placement struct {
	AssignmentID uuid.UUID `json:"assignmentId"`
	LeadID       uuid.UUID `json:"leadId"`
	AgentID      uuid.UUID `json:"agentId"`
	Reason       string    `json:"reason"`
}

// Result is the outcome of a distribution run. Zero placements is a valid
// outcome, reported through NoAssignmentsPossible rather than an error.
type Result struct {
	Rule                  RuleType      `json:"rule"`
	Placements            []Placement   `json:"placements"`
	Skipped               []SkippedLead `json:"skipped,omitempty"`
	Stats                 Stats         `json:"stats"`
	NoAssignmentsPossible bool          `json:"noAssignmentsPossible"`
}

// Service orchestrates distribution runs: it loads candidates through the
// ports, serializes overlapping runs through the locker, persists the plan,
// and publishes AssignmentsCreated.
type Service struct {
	leads  LeadSource
	agents AgentDirectory
	store  AssignmentStore
	locker Locker
	bus    events.Bus
	log    *logger.Logger
	now    func() time.Time
}

func NewService(leads LeadSource, agents AgentDirectory, store AssignmentStore, locker Locker, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		leads:  leads,
		agents: agents,
		store:  store,
		locker: locker,
		bus:    bus,
		log:    log,
		now:    time.Now,
	}
}

// Distribute runs one batch under the command's rule.
func (s *Service) Distribute(ctx context.Context, cmd Command) (Result, error) {
	const op = "distribution.Service.Distribute"

	if err := validateCommand(cmd); err != nil {
		return Result{}, err
	}
	if cmd.Rule.RespectWorkingHours && cmd.WorkingHours != nil && !cmd.WorkingHours.Contains(s.now()) {
		return Result{}, apperr.Validation("distribution refused outside the configured working hours").WithOp(op)
	}

	agents, err := s.resolveAgents(ctx, cmd.AgentIDs)
	if err != nil {
		return Result{}, err
	}

	agentIDs := make([]uuid.UUID, len(agents))
	for i, agent := range agents {
		agentIDs[i] = agent.ID
	}

	release, err := s.locker.Acquire(ctx, agentIDs)
	if err != nil {
		return Result{}, err
	}
	defer release()

	leads, skippedMissing, err := s.resolveLeads(ctx, cmd)
	if err != nil {
		return Result{}, err
	}

	leadIDs := make([]uuid.UUID, len(leads))
	for i, lead := range leads {
		leadIDs[i] = lead.ID
	}
	activePairs, err := s.store.ActivePairs(ctx, leadIDs)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "loading active assignments", err).WithOp(op)
	}

	plan := BuildPlan(cmd.Rule, leads, agents, activePairs)
	plan.Skipped = append(skippedMissing, plan.Skipped...)
	plan.Stats.TotalRequested += len(skippedMissing)

	result := Result{
		Rule:    cmd.Rule.Type,
		Skipped: plan.Skipped,
		Stats:   plan.Stats,
	}

	if len(plan.Assignments) == 0 {
		result.NoAssignmentsPossible = true
		result.Placements = []Placement{}
		s.log.DistributionRun(string(cmd.Rule.Type), result.Stats.TotalRequested, 0, len(result.Skipped))
		return result, nil
	}

	created, err := s.store.CreateAssignments(ctx, plan.Assignments, cmd.Priority)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "persisting assignments", err).WithOp(op)
	}

	reasons := make(map[string]string, len(plan.Assignments))
	for _, planned := range plan.Assignments {
		reasons[pairKey(planned.LeadID, planned.AgentID)] = planned.Reason
	}

	result.Placements = make([]Placement, 0, len(created))
	assignmentIDs := make([]uuid.UUID, 0, len(created))
	for _, c := range created {
		result.Placements = append(result.Placements, Placement{
			AssignmentID: c.ID,
			LeadID:       c.LeadID,
			AgentID:      c.AgentID,
			Reason:       reasons[pairKey(c.LeadID, c.AgentID)],
		})
		assignmentIDs = append(assignmentIDs, c.ID)
	}

	// Placements lost to a concurrent insert show up as duplicates.
	if lost := len(plan.Assignments) - len(created); lost > 0 {
		result.Stats.TotalAssigned -= lost
		result.Stats.SkippedDuplicate += lost
	}
	result.NoAssignmentsPossible = len(result.Placements) == 0

	if len(assignmentIDs) > 0 {
		s.bus.Publish(ctx, events.AssignmentsCreated{
			BaseEvent:     events.NewBaseEvent(),
			AssignmentIDs: assignmentIDs,
		})
	}

	s.log.DistributionRun(string(cmd.Rule.Type), result.Stats.TotalRequested, result.Stats.TotalAssigned, len(result.Skipped))
	return result, nil
}

// DistributeLead places a single lead with the default LOAD_BALANCED rule
// across all active agents. Used by the lead-created subscription and the
// scheduler; there is no separate single-lead code path.
func (s *Service) DistributeLead(ctx context.Context, leadID uuid.UUID) (Result, error) {
	return s.Distribute(ctx, Command{
		LeadIDs: []uuid.UUID{leadID},
		Rule:    Rule{Type: RuleLoadBalanced},
	})
}

// SubscribeToLeadEvents wires auto-distribution of freshly created leads.
func (s *Service) SubscribeToLeadEvents(bus events.Bus) {
	bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		created, ok := event.(events.LeadCreated)
		if !ok {
			return fmt.Errorf("unexpected event type %T", event)
		}
		_, err := s.DistributeLead(ctx, created.LeadID)
		if err != nil && apperr.GetKind(err) == apperr.KindConflict {
			// Another run holds the lock; the scheduler sweep picks the
			// lead up as unassigned on its next pass.
			s.log.Warn("auto-distribution deferred, agents locked", "leadId", created.LeadID)
			return nil
		}
		return err
	}))
}

func validateCommand(cmd Command) error {
	const op = "distribution.Service.Distribute"

	if !IsKnownRuleType(cmd.Rule.Type) {
		return apperr.Validation(fmt.Sprintf("unknown distribution rule %q", cmd.Rule.Type)).WithOp(op)
	}
	if cmd.Rule.Type == RuleTerritoryBased && len(cmd.Rule.TerritoryMapping) == 0 {
		return apperr.Validation("TERRITORY_BASED distribution requires a territory mapping").WithOp(op)
	}
	if cmd.Rule.MaxLeadsPerManager < 0 {
		return apperr.Validation("maxLeadsPerManager must not be negative").WithOp(op)
	}
	if cmd.Rule.MinLeadScore < 0 {
		return apperr.Validation("minLeadScore must not be negative").WithOp(op)
	}
	return nil
}

func (s *Service) resolveAgents(ctx context.Context, agentIDs []uuid.UUID) ([]AgentCandidate, error) {
	const op = "distribution.Service.resolveAgents"

	if len(agentIDs) == 0 {
		agents, err := s.agents.ActiveCandidates(ctx)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "loading active agents", err).WithOp(op)
		}
		if len(agents) == 0 {
			return nil, apperr.Validation("no active agents available for distribution").WithOp(op)
		}
		return agents, nil
	}

	agents, err := s.agents.ActiveCandidatesByIDs(ctx, agentIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "loading agents", err).WithOp(op)
	}
	if len(agents) != len(agentIDs) {
		found := make(map[uuid.UUID]bool, len(agents))
		for _, agent := range agents {
			found[agent.ID] = true
		}
		missing := make([]string, 0)
		for _, id := range agentIDs {
			if !found[id] {
				missing = append(missing, id.String())
			}
		}
		return nil, apperr.Validation("one or more agents do not exist or are not active").
			WithOp(op).WithDetails(map[string]interface{}{"agentIds": missing})
	}
	return agents, nil
}

// resolveLeads loads the targeted leads. Requested ids that do not resolve
// are reported as skipped, not an error, so a partially stale batch still
// distributes what it can.
func (s *Service) resolveLeads(ctx context.Context, cmd Command) ([]LeadCandidate, []SkippedLead, error) {
	const op = "distribution.Service.resolveLeads"

	if len(cmd.LeadIDs) == 0 {
		limit := cmd.BatchSize
		if limit <= 0 {
			limit = defaultBatchSize
		}
		if limit > maxBatchSize {
			limit = maxBatchSize
		}
		leads, err := s.leads.UnassignedCandidates(ctx, limit)
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.KindInternal, "loading unassigned leads", err).WithOp(op)
		}
		return leads, nil, nil
	}

	leads, err := s.leads.CandidatesByIDs(ctx, cmd.LeadIDs)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, "loading leads", err).WithOp(op)
	}

	found := make(map[uuid.UUID]bool, len(leads))
	for _, lead := range leads {
		found[lead.ID] = true
	}
	var skipped []SkippedLead
	for _, id := range cmd.LeadIDs {
		if !found[id] {
			skipped = append(skipped, SkippedLead{LeadID: id, Reason: "lead_not_found"})
		}
	}
	return leads, skipped, nil
}
