package transport

import (
	"time"

	"estate_crm_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Request DTOs

type CreateLeadRequest struct {
	FirstName      string   `json:"firstName" validate:"required,min=1,max=100"`
	LastName       string   `json:"lastName" validate:"required,min=1,max=100"`
	Phone          string   `json:"phone" validate:"required,min=5,max=20"`
	Email          string   `json:"email,omitempty" validate:"omitempty,email"`
	Territory      string   `json:"territory,omitempty" validate:"omitempty,max=100"`
	SeriousBuyer   bool     `json:"seriousBuyer,omitempty"`
	BudgetEstimate *float64 `json:"budgetEstimate,omitempty" validate:"omitempty,gte=0"`
}

type RecordActivityRequest struct {
	Type       string                 `json:"type" validate:"required,oneof=PROPERTY_VIEW PROPERTY_INQUIRY CONTACT_FORM FAVORITE_ADDED SEARCH_PERFORMED RETURN_VISIT PHONE_CALL_MADE EMAIL_OPENED BROCHURE_DOWNLOADED"`
	PropertyID *uuid.UUID             `json:"propertyId,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt *time.Time             `json:"occurredAt,omitempty"`
}

type BulkRecalculateRequest struct {
	LeadIDs []uuid.UUID `json:"leadIds,omitempty" validate:"omitempty,max=1000"`
	// Async hands the run to the background worker instead of blocking the
	// request. Ignored when no job queue is configured.
	Async bool `json:"async,omitempty"`
}

// Response DTOs

type LeadResponse struct {
	ID             uuid.UUID  `json:"id"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          *string    `json:"email,omitempty"`
	Phone          string     `json:"phone"`
	Territory      *string    `json:"territory,omitempty"`
	Score          int        `json:"score"`
	Grade          string     `json:"grade"`
	LastActivityAt *time.Time `json:"lastActivityAt,omitempty"`
	SeriousBuyer   bool       `json:"seriousBuyer"`
	BudgetEstimate *float64   `json:"budgetEstimate,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type ActivityResponse struct {
	ID         uuid.UUID              `json:"id"`
	LeadID     uuid.UUID              `json:"leadId"`
	Type       string                 `json:"type"`
	PropertyID *uuid.UUID             `json:"propertyId,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:             lead.ID,
		FirstName:      lead.FirstName,
		LastName:       lead.LastName,
		Email:          lead.Email,
		Phone:          lead.Phone,
		Territory:      lead.Territory,
		Score:          lead.Score,
		Grade:          lead.Grade,
		LastActivityAt: lead.LastActivityAt,
		SeriousBuyer:   lead.SeriousBuyer,
		BudgetEstimate: lead.BudgetEstimate,
		Status:         lead.Status,
		CreatedAt:      lead.CreatedAt,
		UpdatedAt:      lead.UpdatedAt,
	}
}

func ToActivityResponse(activity repository.Activity) ActivityResponse {
	return ActivityResponse{
		ID:         activity.ID,
		LeadID:     activity.LeadID,
		Type:       activity.Type,
		PropertyID: activity.PropertyID,
		Metadata:   activity.Metadata,
		OccurredAt: activity.OccurredAt,
	}
}
