package transport

import (
	"time"

	"estate_crm_backend/internal/agents/repository"

	"github.com/google/uuid"
)

type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "ACTIVE"
	AgentStatusInactive AgentStatus = "INACTIVE"
)

type CreateAgentRequest struct {
	Name       string  `json:"name" validate:"required,min=1,max=200"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Territory  *string `json:"territory,omitempty" validate:"omitempty,max=100"`
	Commission float64 `json:"commission" validate:"gte=0,lte=1"`
}

type UpdateAgentRequest struct {
	Name       *string      `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone      *string      `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Territory  *string      `json:"territory,omitempty" validate:"omitempty,max=100"`
	Commission *float64     `json:"commission,omitempty" validate:"omitempty,gte=0,lte=1"`
	Status     *AgentStatus `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

type AgentResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone,omitempty"`
	Territory  *string   `json:"territory,omitempty"`
	Commission float64   `json:"commission"`
	Status     string    `json:"status"`
	Workload   int       `json:"workload"`
	CreatedAt  time.Time `json:"createdAt"`
}

func ToAgentResponse(agent repository.Agent, workload int) AgentResponse {
	return AgentResponse{
		ID:         agent.ID,
		Name:       agent.Name,
		Email:      agent.Email,
		Phone:      agent.Phone,
		Territory:  agent.Territory,
		Commission: agent.Commission,
		Status:     agent.Status,
		Workload:   workload,
		CreatedAt:  agent.CreatedAt,
	}
}
