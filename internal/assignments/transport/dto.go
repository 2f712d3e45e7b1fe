package transport

import (
	"time"

	"estate_crm_backend/internal/assignments/repository"

	"github.com/google/uuid"
)

// NormalizePriority maps incoming priority spellings onto the canonical
// LOW/NORMAL/HIGH enumeration. The legacy "MEDIUM" value is treated as
// NORMAL.
func NormalizePriority(priority string) string {
	if priority == "MEDIUM" {
		return repository.PriorityNormal
	}
	return priority
}

// Request DTOs

// CreateAssignmentRequest binds one lead to one agent manually, outside the
// distribution engine.
type CreateAssignmentRequest struct {
	LeadID            uuid.UUID  `json:"leadId" validate:"required"`
	AgentID           uuid.UUID  `json:"agentId" validate:"required"`
	Priority          string     `json:"priority,omitempty" validate:"omitempty,oneof=LOW NORMAL MEDIUM HIGH"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
}

// ToParams maps the request onto repository parameters, normalizing the
// priority spelling.
func (r CreateAssignmentRequest) ToParams() repository.CreateAssignmentParams {
	return repository.CreateAssignmentParams{
		LeadID:            r.LeadID,
		AgentID:           r.AgentID,
		Priority:          NormalizePriority(r.Priority),
		ExpectedCloseDate: r.ExpectedCloseDate,
		Notes:             r.Notes,
	}
}

type BulkStatusRequest struct {
	AssignmentIDs []uuid.UUID `json:"assignmentIds" validate:"required,min=1,max=500"`
	Status        string      `json:"status" validate:"required,oneof=ACTIVE COMPLETED CANCELLED ON_HOLD"`
}

type BulkPriorityRequest struct {
	AssignmentIDs []uuid.UUID `json:"assignmentIds" validate:"required,min=1,max=500"`
	Priority      string      `json:"priority" validate:"required,oneof=LOW NORMAL MEDIUM HIGH"`
}

type BulkReassignRequest struct {
	AssignmentIDs []uuid.UUID `json:"assignmentIds" validate:"required,min=1,max=500"`
	NewAgentID    uuid.UUID   `json:"newAgentId" validate:"required"`
	Priority      string      `json:"priority,omitempty" validate:"omitempty,oneof=LOW NORMAL MEDIUM HIGH"`
}

type BulkDeleteRequest struct {
	AssignmentIDs []uuid.UUID `json:"assignmentIds" validate:"required,min=1,max=500"`
}

// Response DTOs

type AssignmentResponse struct {
	ID                uuid.UUID  `json:"id"`
	LeadID            uuid.UUID  `json:"leadId"`
	AgentID           uuid.UUID  `json:"agentId"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	AssignedAt        time.Time  `json:"assignedAt"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
}

// BulkResult reports the outcome of a bulk operation. AffectedCount counts
// only rows that actually changed, which can be fewer than requested.
type BulkResult struct {
	AffectedCount int         `json:"affectedCount"`
	AssignmentIDs []uuid.UUID `json:"assignmentIds"`
	Failures      []BulkItem  `json:"failures,omitempty"`
}

// BulkItem records one assignment that failed or was skipped in a bulk run.
type BulkItem struct {
	AssignmentID uuid.UUID `json:"assignmentId"`
	Reason       string    `json:"reason"`
}

func ToAssignmentResponse(a repository.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:                a.ID,
		LeadID:            a.LeadID,
		AgentID:           a.AgentID,
		Status:            a.Status,
		Priority:          a.Priority,
		AssignedAt:        a.AssignedAt,
		ExpectedCloseDate: a.ExpectedCloseDate,
		Notes:             a.Notes,
	}
}
