// Package service implements the assignment store façade, including the bulk
// maintenance operations over many assignments at once.
package service

import (
	"context"
	"errors"

	"estate_crm_backend/internal/assignments/repository"
	"estate_crm_backend/internal/assignments/transport"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
	bus  events.Bus
}

func New(repo *repository.Repository, bus events.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// Create binds one lead to one agent manually. A duplicate ACTIVE pair is a
// conflict; a successful create opens the pipeline through the usual event.
func (s *Service) Create(ctx context.Context, req transport.CreateAssignmentRequest) (transport.AssignmentResponse, error) {
	assignment, err := s.repo.Create(ctx, req.ToParams())
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePair) {
			return transport.AssignmentResponse{}, apperr.Conflict("lead is already actively assigned to this agent")
		}
		return transport.AssignmentResponse{}, err
	}

	s.bus.Publish(ctx, events.AssignmentsCreated{
		BaseEvent:     events.NewBaseEvent(),
		AssignmentIDs: []uuid.UUID{assignment.ID},
	})
	return transport.ToAssignmentResponse(assignment), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.AssignmentResponse, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.AssignmentResponse{}, apperr.NotFound("assignment not found")
		}
		return transport.AssignmentResponse{}, err
	}
	return transport.ToAssignmentResponse(assignment), nil
}

func (s *Service) List(ctx context.Context, filter repository.ListFilter) ([]transport.AssignmentResponse, error) {
	assignments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, transport.ToAssignmentResponse(assignment))
	}
	return responses, nil
}

// BulkUpdateStatus applies a status to many assignments. Already-terminal
// assignments are skipped and reported; only rows that actually changed are
// counted.
func (s *Service) BulkUpdateStatus(ctx context.Context, req transport.BulkStatusRequest) (transport.BulkResult, error) {
	result := transport.BulkResult{AssignmentIDs: make([]uuid.UUID, 0, len(req.AssignmentIDs))}

	for _, id := range req.AssignmentIDs {
		changed, err := s.repo.UpdateStatus(ctx, id, req.Status)
		if err != nil {
			result.Failures = append(result.Failures, transport.BulkItem{AssignmentID: id, Reason: err.Error()})
			continue
		}
		if !changed {
			reason := "unchanged"
			if assignment, lookupErr := s.repo.GetByID(ctx, id); lookupErr == nil && repository.IsTerminalStatus(assignment.Status) {
				reason = "terminal status " + assignment.Status
			}
			result.Failures = append(result.Failures, transport.BulkItem{AssignmentID: id, Reason: reason})
			continue
		}
		result.AffectedCount++
		result.AssignmentIDs = append(result.AssignmentIDs, id)
	}

	return result, nil
}

// BulkUpdatePriority applies a priority to many assignments.
func (s *Service) BulkUpdatePriority(ctx context.Context, req transport.BulkPriorityRequest) (transport.BulkResult, error) {
	priority := transport.NormalizePriority(req.Priority)
	result := transport.BulkResult{AssignmentIDs: make([]uuid.UUID, 0, len(req.AssignmentIDs))}

	for _, id := range req.AssignmentIDs {
		changed, err := s.repo.UpdatePriority(ctx, id, priority)
		if err != nil {
			result.Failures = append(result.Failures, transport.BulkItem{AssignmentID: id, Reason: err.Error()})
			continue
		}
		if !changed {
			result.Failures = append(result.Failures, transport.BulkItem{AssignmentID: id, Reason: "unchanged"})
			continue
		}
		result.AffectedCount++
		result.AssignmentIDs = append(result.AssignmentIDs, id)
	}

	return result, nil
}

// BulkReassign rebinds the leads behind the given assignments to a new agent.
// Lead identity is preserved across the delete/recreate cycle: the old rows
// disappear and each lead gets exactly one new ACTIVE assignment with the
// new agent, unless one already existed (skip-duplicate semantics).
func (s *Service) BulkReassign(ctx context.Context, req transport.BulkReassignRequest) (transport.BulkResult, error) {
	created, err := s.repo.Reassign(ctx, req.AssignmentIDs, req.NewAgentID, transport.NormalizePriority(req.Priority))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.BulkResult{}, apperr.NotFound("no assignments found to reassign")
		}
		return transport.BulkResult{}, err
	}

	result := transport.BulkResult{
		AffectedCount: len(created),
		AssignmentIDs: make([]uuid.UUID, 0, len(created)),
	}
	for _, assignment := range created {
		result.AssignmentIDs = append(result.AssignmentIDs, assignment.ID)
	}

	if len(result.AssignmentIDs) > 0 {
		s.bus.Publish(ctx, events.AssignmentsCreated{
			BaseEvent:     events.NewBaseEvent(),
			AssignmentIDs: result.AssignmentIDs,
		})
	}

	return result, nil
}

// Delete removes one assignment.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	existed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return apperr.NotFound("assignment not found")
	}
	return nil
}

// BulkDelete removes the given assignments, counting only rows that existed.
func (s *Service) BulkDelete(ctx context.Context, req transport.BulkDeleteRequest) (transport.BulkResult, error) {
	deleted, err := s.repo.DeleteMany(ctx, req.AssignmentIDs)
	if err != nil {
		return transport.BulkResult{}, err
	}

	return transport.BulkResult{
		AffectedCount: len(deleted),
		AssignmentIDs: deleted,
	}, nil
}
