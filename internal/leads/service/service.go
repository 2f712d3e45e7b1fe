// Package service implements lead import and lookup on top of the leads
// repository. Score and grade mutation lives in the scoring package.
package service

import (
	"context"
	"errors"

	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/phone"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
	bus  events.Bus
}

func New(repo *repository.Repository, bus events.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// Create imports a lead explicitly. Phone numbers are normalized to E.164 and
// duplicates (same phone) are rejected with a conflict.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	req.Phone = phone.NormalizeE164(req.Phone)

	if _, err := s.repo.GetByPhone(ctx, req.Phone); err == nil {
		return transport.LeadResponse{}, apperr.Conflict("a lead with this phone number already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, err
	}

	params := repository.CreateLeadParams{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		SeriousBuyer: req.SeriousBuyer,
	}
	if req.Email != "" {
		params.Email = &req.Email
	}
	if req.Territory != "" {
		params.Territory = &req.Territory
	}
	if req.BudgetEstimate != nil {
		params.BudgetEstimate = req.BudgetEstimate
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
	})

	return transport.ToLeadResponse(lead), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

// Activities returns the lead's ledger, oldest first.
func (s *Service) Activities(ctx context.Context, id uuid.UUID) ([]transport.ActivityResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, err
	}

	activities, err := s.repo.ListActivities(ctx, id)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		responses = append(responses, transport.ToActivityResponse(activity))
	}
	return responses, nil
}
