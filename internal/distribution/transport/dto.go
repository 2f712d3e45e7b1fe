// Package transport defines the request and response shapes for the
// distribution HTTP API.
package transport

import (
	"github.com/google/uuid"

	assignmenttransport "estate_crm_backend/internal/assignments/transport"
	"estate_crm_backend/internal/distribution"
)

// RuleRequest is the wire form of a distribution rule.
type RuleRequest struct {
	Type                  string                 `json:"type" validate:"required,oneof=ROUND_ROBIN LOAD_BALANCED TERRITORY_BASED SCORE_PRIORITIZED"`
	TerritoryMapping      map[string][]uuid.UUID `json:"territoryMapping,omitempty"`
	MaxLeadsPerManager    int                    `json:"maxLeadsPerManager" validate:"gte=0"`
	MinLeadScore          int                    `json:"minLeadScore" validate:"gte=0,lte=100"`
	RespectWorkingHours   bool                   `json:"respectWorkingHours"`
	PrioritizeHighScorers bool                   `json:"prioritizeHighScorers"`
}

// WorkingHoursRequest is a daily window, hours in [0, 24).
type WorkingHoursRequest struct {
	StartHour int `json:"startHour" validate:"gte=0,lt=24"`
	EndHour   int `json:"endHour" validate:"gte=0,lt=24"`
}

// DistributeRequest triggers one distribution run.
type DistributeRequest struct {
	LeadIDs      []uuid.UUID          `json:"leadIds" validate:"max=500"`
	AgentIDs     []uuid.UUID          `json:"agentIds" validate:"max=200"`
	Rule         RuleRequest          `json:"rule" validate:"required"`
	Priority     string               `json:"priority" validate:"omitempty,oneof=LOW NORMAL MEDIUM HIGH"`
	BatchSize    int                  `json:"batchSize" validate:"gte=0,lte=500"`
	WorkingHours *WorkingHoursRequest `json:"workingHours,omitempty"`
}

// ToCommand maps the request onto a distribution command.
func (r DistributeRequest) ToCommand() distribution.Command {
	cmd := distribution.Command{
		LeadIDs:   r.LeadIDs,
		AgentIDs:  r.AgentIDs,
		Priority:  assignmenttransport.NormalizePriority(r.Priority),
		BatchSize: r.BatchSize,
		Rule: distribution.Rule{
			Type:                  distribution.RuleType(r.Rule.Type),
			TerritoryMapping:      r.Rule.TerritoryMapping,
			MaxLeadsPerManager:    r.Rule.MaxLeadsPerManager,
			MinLeadScore:          r.Rule.MinLeadScore,
			RespectWorkingHours:   r.Rule.RespectWorkingHours,
			PrioritizeHighScorers: r.Rule.PrioritizeHighScorers,
		},
	}
	if r.WorkingHours != nil {
		cmd.WorkingHours = &distribution.HourWindow{
			StartHour: r.WorkingHours.StartHour,
			EndHour:   r.WorkingHours.EndHour,
		}
	}
	return cmd
}
