// Package distribution implements the lead distribution engine: it plans
// lead-to-agent placements under a selectable strategy and capacity,
// score, and territory constraints, then persists the plan through the
// assignment store.
package distribution

import (
	"sort"

	"github.com/google/uuid"
)

// RuleType selects the placement strategy.
type RuleType string

const (
	RuleRoundRobin       RuleType = "ROUND_ROBIN"
	RuleLoadBalanced     RuleType = "LOAD_BALANCED"
	RuleTerritoryBased   RuleType = "TERRITORY_BASED"
	RuleScorePrioritized RuleType = "SCORE_PRIORITIZED"
)

// IsKnownRuleType reports whether the rule type is supported.
func IsKnownRuleType(ruleType RuleType) bool {
	switch ruleType {
	case RuleRoundRobin, RuleLoadBalanced, RuleTerritoryBased, RuleScorePrioritized:
		return true
	default:
		return false
	}
}

// Rule is a fully-specified distribution policy.
type Rule struct {
	Type                  RuleType
	TerritoryMapping      map[string][]uuid.UUID
	MaxLeadsPerManager    int // 0 means unlimited
	MinLeadScore          int
	RespectWorkingHours   bool
	PrioritizeHighScorers bool
}

// LeadCandidate is the planner's view of a lead.
type LeadCandidate struct {
	ID        uuid.UUID
	Score     int
	Territory *string
}

// AgentCandidate is the planner's view of an agent, including its current
// ACTIVE assignment count.
type AgentCandidate struct {
	ID         uuid.UUID
	Territory  *string
	ActiveLoad int
}

// PlannedAssignment is one lead-to-agent placement decided by the planner.
type PlannedAssignment struct {
	LeadID  uuid.UUID
	AgentID uuid.UUID
	Reason  string
}

// SkippedLead records a lead the planner could not place and why.
type SkippedLead struct {
	LeadID uuid.UUID `json:"leadId"`
	Reason string    `json:"reason"`
}

// Skip reasons.
const (
	SkipLowScore   = "below_min_score"
	SkipDuplicate  = "already_assigned"
	SkipNoCapacity = "no_agent_capacity"
)

// Stats summarizes a planning run.
type Stats struct {
	TotalRequested    int `json:"totalRequested"`
	TotalAssigned     int `json:"totalAssigned"`
	SkippedLowScore   int `json:"skippedLowScore"`
	SkippedDuplicate  int `json:"skippedDuplicate"`
	SkippedNoCapacity int `json:"skippedNoCapacity"`
}

// Plan is the planner's decision for one batch.
type Plan struct {
	Assignments []PlannedAssignment
	Skipped     []SkippedLead
	Stats       Stats
}

// planner tracks per-agent load as placements accumulate within one batch so
// a single run cannot overload an agent.
type planner struct {
	rule        Rule
	agents      []AgentCandidate
	load        map[uuid.UUID]int
	activePairs map[string]bool
}

func pairKey(leadID, agentID uuid.UUID) string {
	return leadID.String() + "/" + agentID.String()
}

// BuildPlan runs the rule over the candidate leads and agents. activePairs
// holds the existing ACTIVE (lead, agent) bindings keyed "leadID/agentID";
// a placement that would duplicate one is skipped, never an error.
func BuildPlan(rule Rule, leads []LeadCandidate, agents []AgentCandidate, activePairs map[string]bool) Plan {
	p := &planner{
		rule:        rule,
		agents:      agents,
		load:        make(map[uuid.UUID]int, len(agents)),
		activePairs: activePairs,
	}
	for _, agent := range agents {
		p.load[agent.ID] = agent.ActiveLoad
	}

	plan := Plan{Stats: Stats{TotalRequested: len(leads)}}

	candidates := make([]LeadCandidate, 0, len(leads))
	for _, lead := range leads {
		if lead.Score < rule.MinLeadScore {
			plan.Skipped = append(plan.Skipped, SkippedLead{LeadID: lead.ID, Reason: SkipLowScore})
			plan.Stats.SkippedLowScore++
			continue
		}
		candidates = append(candidates, lead)
	}

	if rule.PrioritizeHighScorers || rule.Type == RuleScorePrioritized {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score > candidates[j].Score
		})
	}

	cursor := 0
	for _, lead := range candidates {
		var placed *PlannedAssignment

		switch rule.Type {
		case RuleRoundRobin:
			placed, cursor = p.placeRoundRobin(lead, cursor)
		case RuleTerritoryBased:
			placed = p.placeTerritory(lead)
		default: // LOAD_BALANCED and SCORE_PRIORITIZED place by lowest load
			placed = p.placeLeastLoaded(lead, p.agents, "load_balanced")
		}

		if placed == nil {
			reason := SkipNoCapacity
			if p.onlyDuplicatesLeft(lead) {
				reason = SkipDuplicate
				plan.Stats.SkippedDuplicate++
			} else {
				plan.Stats.SkippedNoCapacity++
			}
			plan.Skipped = append(plan.Skipped, SkippedLead{LeadID: lead.ID, Reason: reason})
			continue
		}

		p.load[placed.AgentID]++
		p.activePairs[pairKey(lead.ID, placed.AgentID)] = true
		plan.Assignments = append(plan.Assignments, *placed)
		plan.Stats.TotalAssigned++
	}

	return plan
}

func (p *planner) eligible(lead LeadCandidate, agent AgentCandidate) bool {
	if p.rule.MaxLeadsPerManager > 0 && p.load[agent.ID] >= p.rule.MaxLeadsPerManager {
		return false
	}
	return !p.activePairs[pairKey(lead.ID, agent.ID)]
}

// onlyDuplicatesLeft reports whether every agent that still has capacity is
// excluded solely because the lead is already bound to it.
func (p *planner) onlyDuplicatesLeft(lead LeadCandidate) bool {
	sawCapacity := false
	for _, agent := range p.agents {
		if p.rule.MaxLeadsPerManager > 0 && p.load[agent.ID] >= p.rule.MaxLeadsPerManager {
			continue
		}
		sawCapacity = true
		if !p.activePairs[pairKey(lead.ID, agent.ID)] {
			return false
		}
	}
	return sawCapacity
}

// placeRoundRobin cycles the agent list in fixed order, one lead per agent
// per pass, independent of current load.
func (p *planner) placeRoundRobin(lead LeadCandidate, cursor int) (*PlannedAssignment, int) {
	if len(p.agents) == 0 {
		return nil, cursor
	}

	for offset := 0; offset < len(p.agents); offset++ {
		agent := p.agents[(cursor+offset)%len(p.agents)]
		if !p.eligible(lead, agent) {
			continue
		}
		next := (cursor + offset + 1) % len(p.agents)
		return &PlannedAssignment{LeadID: lead.ID, AgentID: agent.ID, Reason: "round_robin"}, next
	}

	return nil, cursor
}

// placeLeastLoaded picks the eligible agent with the fewest assignments,
// ties broken by input order. Load is recomputed after every placement by
// the caller, so one batch cannot pile onto a single agent.
func (p *planner) placeLeastLoaded(lead LeadCandidate, pool []AgentCandidate, reason string) *PlannedAssignment {
	var best *AgentCandidate
	for i := range pool {
		agent := pool[i]
		if !p.eligible(lead, agent) {
			continue
		}
		if best == nil || p.load[agent.ID] < p.load[best.ID] {
			best = &pool[i]
		}
	}
	if best == nil {
		return nil
	}
	return &PlannedAssignment{LeadID: lead.ID, AgentID: best.ID, Reason: reason}
}

// placeTerritory routes by the rule's territory mapping. A lead without a
// resolvable territory falls back to load-balanced placement among all
// given agents.
func (p *planner) placeTerritory(lead LeadCandidate) *PlannedAssignment {
	if lead.Territory != nil {
		if agentIDs, ok := p.rule.TerritoryMapping[*lead.Territory]; ok {
			pool := make([]AgentCandidate, 0, len(agentIDs))
			for _, agent := range p.agents {
				for _, id := range agentIDs {
					if agent.ID == id {
						pool = append(pool, agent)
						break
					}
				}
			}
			if placed := p.placeLeastLoaded(lead, pool, "territory:"+*lead.Territory); placed != nil {
				return placed
			}
		}
	}

	return p.placeLeastLoaded(lead, p.agents, "territory_fallback")
}
