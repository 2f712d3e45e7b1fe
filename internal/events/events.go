// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"estate_crm_backend/platform/events"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = events.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a new lead is imported or captured.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// ActivityRecorded is published when a behavioral activity is appended to a lead.
type ActivityRecorded struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	ActivityType string    `json:"activityType"`
}

func (e ActivityRecorded) EventName() string { return "leads.activity.recorded" }

// LeadScored is published after a lead's score and grade are recalculated.
type LeadScored struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Score  int       `json:"score"`
	Grade  string    `json:"grade"`
}

func (e LeadScored) EventName() string { return "leads.lead.scored" }

// =============================================================================
// Assignment Domain Events
// =============================================================================

// AssignmentsCreated is published when one or more lead-to-agent assignments
// are persisted (by distribution or by bulk reassignment).
type AssignmentsCreated struct {
	BaseEvent
	AssignmentIDs []uuid.UUID `json:"assignmentIds"`
}

func (e AssignmentsCreated) EventName() string { return "assignments.created" }

// StageTransitioned is published when an assignment's pipeline moves to a new stage.
type StageTransitioned struct {
	BaseEvent
	AssignmentID uuid.UUID `json:"assignmentId"`
	FromStage    string    `json:"fromStage"`
	ToStage      string    `json:"toStage"`
}

func (e StageTransitioned) EventName() string { return "pipeline.stage.transitioned" }
