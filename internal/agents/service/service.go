package service

import (
	"context"
	"errors"

	"estate_crm_backend/internal/agents/repository"
	"estate_crm_backend/internal/agents/transport"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/phone"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req transport.CreateAgentRequest) (transport.AgentResponse, error) {
	params := repository.CreateAgentParams{
		Name:       req.Name,
		Email:      req.Email,
		Territory:  req.Territory,
		Commission: req.Commission,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	agent, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	return transport.ToAgentResponse(agent, 0), nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateAgentRequest) (transport.AgentResponse, error) {
	params := repository.UpdateAgentParams{
		Name:       req.Name,
		Territory:  req.Territory,
		Commission: req.Commission,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}
	if req.Status != nil {
		status := string(*req.Status)
		params.Status = &status
	}

	agent, err := s.repo.Update(ctx, id, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.AgentResponse{}, apperr.NotFound("agent not found")
		}
		return transport.AgentResponse{}, err
	}

	workloads, err := s.repo.WorkloadCounts(ctx, []uuid.UUID{agent.ID})
	if err != nil {
		return transport.AgentResponse{}, err
	}
	return transport.ToAgentResponse(agent, workloads[agent.ID]), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.AgentResponse, error) {
	agent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.AgentResponse{}, apperr.NotFound("agent not found")
		}
		return transport.AgentResponse{}, err
	}

	workloads, err := s.repo.WorkloadCounts(ctx, []uuid.UUID{agent.ID})
	if err != nil {
		return transport.AgentResponse{}, err
	}
	return transport.ToAgentResponse(agent, workloads[agent.ID]), nil
}

// List returns agents with their derived workloads.
func (s *Service) List(ctx context.Context, status *string) ([]transport.AgentResponse, error) {
	agents, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(agents))
	for _, agent := range agents {
		ids = append(ids, agent.ID)
	}

	workloads, err := s.repo.WorkloadCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.AgentResponse, 0, len(agents))
	for _, agent := range agents {
		responses = append(responses, transport.ToAgentResponse(agent, workloads[agent.ID]))
	}
	return responses, nil
}
