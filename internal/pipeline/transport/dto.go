// Package transport defines the request and response shapes for the
// pipeline HTTP API.
package transport

import (
	"time"

	"github.com/google/uuid"

	assignmenttransport "estate_crm_backend/internal/assignments/transport"
	leadtransport "estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/internal/pipeline/domain"
	"estate_crm_backend/internal/pipeline/repository"
	"estate_crm_backend/internal/pipeline/service"
)

// TransitionRequest moves an assignment's pipeline to a stage, or updates
// the open stage's fields when the stage is unchanged.
type TransitionRequest struct {
	Stage          string     `json:"stage" validate:"required,oneof=NEW CONTACTED QUALIFIED PROPOSAL NEGOTIATION ON_HOLD WON LOST"`
	Probability    *int       `json:"probability,omitempty" validate:"omitempty,gte=0,lte=100"`
	EstimatedValue *float64   `json:"estimatedValue,omitempty" validate:"omitempty,gte=0"`
	NextAction     *string    `json:"nextAction,omitempty" validate:"omitempty,max=500"`
	NextActionDate *time.Time `json:"nextActionDate,omitempty"`
	Notes          *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (r TransitionRequest) Fields() repository.StageFields {
	return repository.StageFields{
		Probability:    r.Probability,
		EstimatedValue: r.EstimatedValue,
		NextAction:     r.NextAction,
		NextActionDate: r.NextActionDate,
		Notes:          r.Notes,
	}
}

// AddActivityRequest records an activity on a pipeline stage.
type AddActivityRequest struct {
	StageID     *uuid.UUID `json:"stageId,omitempty"`
	Type        string     `json:"type" validate:"required,oneof=CALL EMAIL MEETING VIEWING FOLLOW_UP NOTE"`
	Description string     `json:"description" validate:"required,max=2000"`
	Outcome     *string    `json:"outcome,omitempty" validate:"omitempty,max=2000"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (r AddActivityRequest) Params() repository.CreateActivityParams {
	params := repository.CreateActivityParams{
		Type:        r.Type,
		Description: r.Description,
		Outcome:     r.Outcome,
		ScheduledAt: r.ScheduledAt,
		CompletedAt: r.CompletedAt,
	}
	if r.StageID != nil {
		params.StageID = *r.StageID
	}
	return params
}

type StageResponse struct {
	ID             uuid.UUID  `json:"id"`
	AssignmentID   uuid.UUID  `json:"assignmentId"`
	Stage          string     `json:"stage"`
	EnteredAt      time.Time  `json:"enteredAt"`
	ExitedAt       *time.Time `json:"exitedAt,omitempty"`
	DurationHours  int        `json:"durationHours"`
	Open           bool       `json:"open"`
	Probability    *int       `json:"probability,omitempty"`
	EstimatedValue *float64   `json:"estimatedValue,omitempty"`
	NextAction     *string    `json:"nextAction,omitempty"`
	NextActionDate *time.Time `json:"nextActionDate,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

// ToStageResponse renders a stage. An open stage reports its duration as
// the ceiling of the wall-clock hours since entry, computed at render time.
func ToStageResponse(stage repository.Stage, now time.Time) StageResponse {
	resp := StageResponse{
		ID:             stage.ID,
		AssignmentID:   stage.AssignmentID,
		Stage:          stage.Stage,
		EnteredAt:      stage.EnteredAt,
		ExitedAt:       stage.ExitedAt,
		Open:           stage.ExitedAt == nil,
		Probability:    stage.Probability,
		EstimatedValue: stage.EstimatedValue,
		NextAction:     stage.NextAction,
		NextActionDate: stage.NextActionDate,
		Notes:          stage.Notes,
	}
	if stage.DurationHours != nil {
		resp.DurationHours = *stage.DurationHours
	} else if resp.Open {
		resp.DurationHours = domain.DurationHours(stage.EnteredAt, now)
	}
	return resp
}

type ActivityResponse struct {
	ID          uuid.UUID  `json:"id"`
	StageID     uuid.UUID  `json:"stageId"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	Outcome     *string    `json:"outcome,omitempty"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func ToActivityResponse(activity repository.Activity) ActivityResponse {
	return ActivityResponse{
		ID:          activity.ID,
		StageID:     activity.StageID,
		Type:        activity.Type,
		Description: activity.Description,
		Outcome:     activity.Outcome,
		ScheduledAt: activity.ScheduledAt,
		CompletedAt: activity.CompletedAt,
		CreatedAt:   activity.CreatedAt,
	}
}

type DetailResponse struct {
	Assignment assignmenttransport.AssignmentResponse `json:"assignment"`
	Lead       leadtransport.LeadResponse             `json:"lead"`
	Stages     []StageResponse                        `json:"stages"`
	Activities []ActivityResponse                     `json:"activities"`
}

func ToDetailResponse(detail service.Detail, now time.Time) DetailResponse {
	stages := make([]StageResponse, 0, len(detail.Stages))
	for _, stage := range detail.Stages {
		stages = append(stages, ToStageResponse(stage, now))
	}
	activities := make([]ActivityResponse, 0, len(detail.Activities))
	for _, activity := range detail.Activities {
		activities = append(activities, ToActivityResponse(activity))
	}
	return DetailResponse{
		Assignment: assignmenttransport.ToAssignmentResponse(detail.Assignment),
		Lead:       leadtransport.ToLeadResponse(detail.Lead),
		Stages:     stages,
		Activities: activities,
	}
}
