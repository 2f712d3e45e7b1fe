// Package service implements pipeline tracking: every assignment carries a
// stage history, exactly one stage is open at a time, and stage entries
// drive the owning assignment's status.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	assignmentrepo "estate_crm_backend/internal/assignments/repository"
	"estate_crm_backend/internal/events"
	leadrepo "estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/pipeline/domain"
	"estate_crm_backend/internal/pipeline/repository"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"
)

// StageStore is the slice of the pipeline repository the service depends on.
type StageStore interface {
	OpenStage(ctx context.Context, assignmentID uuid.UUID) (repository.Stage, error)
	ListStages(ctx context.Context, assignmentID uuid.UUID) ([]repository.Stage, error)
	OpenInitialStage(ctx context.Context, assignmentID uuid.UUID, stage string) (repository.Stage, bool, error)
	UpdateOpenStage(ctx context.Context, stageID uuid.UUID, fields repository.StageFields) (repository.Stage, error)
	Transition(ctx context.Context, assignmentID uuid.UUID, currentStageID *uuid.UUID, newStage string, fields repository.StageFields, assignmentStatus string) (repository.Stage, error)
	InsertActivity(ctx context.Context, params repository.CreateActivityParams) (repository.Activity, error)
	ListActivities(ctx context.Context, assignmentID uuid.UUID) ([]repository.Activity, error)
}

// AssignmentReader loads assignments for the detail view.
type AssignmentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (assignmentrepo.Assignment, error)
}

// LeadReader loads leads for the detail view.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
}

type Service struct {
	repo        StageStore
	assignments AssignmentReader
	leads       LeadReader
	bus         events.Bus
	log         *logger.Logger
}

func New(repo StageStore, assignments AssignmentReader, leads LeadReader, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, assignments: assignments, leads: leads, bus: bus, log: log}
}

// Initialize opens the first stage for a freshly created assignment. It is
// idempotent so replayed events cannot open a second stage.
func (s *Service) Initialize(ctx context.Context, assignmentID uuid.UUID) (repository.Stage, error) {
	const op = "pipeline.Service.Initialize"

	stage, _, err := s.repo.OpenInitialStage(ctx, assignmentID, domain.StageNew)
	if err != nil {
		if errors.Is(err, repository.ErrAssignmentMissing) {
			return repository.Stage{}, apperr.NotFound("assignment not found").WithOp(op)
		}
		return repository.Stage{}, apperr.Wrap(apperr.KindInternal, "initializing pipeline", err).WithOp(op)
	}
	return stage, nil
}

// SubscribeToAssignmentEvents opens a pipeline for every assignment the
// distribution engine or bulk reassignment creates.
func (s *Service) SubscribeToAssignmentEvents(bus events.Bus) {
	bus.Subscribe(events.AssignmentsCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		created, ok := event.(events.AssignmentsCreated)
		if !ok {
			return fmt.Errorf("unexpected event type %T", event)
		}
		for _, id := range created.AssignmentIDs {
			if _, err := s.Initialize(ctx, id); err != nil {
				s.log.Error("pipeline initialization failed", "assignmentId", id, "error", err)
			}
		}
		return nil
	}))
}

// Transition moves the assignment's pipeline to stage. Requesting the stage
// that is already open updates its mutable fields in place without touching
// entry or exit timestamps. A different stage closes the open one, opens the
// new one, and syncs the assignment's status, all in one transaction.
// WON and LOST close the pipeline for good; transitioning out of them is a
// conflict.
func (s *Service) Transition(ctx context.Context, assignmentID uuid.UUID, stage string, fields repository.StageFields) (repository.Stage, error) {
	const op = "pipeline.Service.Transition"

	if !domain.IsKnownStage(stage) {
		return repository.Stage{}, apperr.Validation(fmt.Sprintf("unknown pipeline stage %q", stage)).WithOp(op)
	}

	current, err := s.repo.OpenStage(ctx, assignmentID)
	var currentID *uuid.UUID
	fromStage := ""
	switch {
	case err == nil:
		currentID = &current.ID
		fromStage = current.Stage
	case errors.Is(err, repository.ErrNoOpenStage):
		// First stage for this assignment; only the open half runs.
	default:
		return repository.Stage{}, apperr.Wrap(apperr.KindInternal, "loading open stage", err).WithOp(op)
	}

	if fromStage != stage && domain.IsTerminalStage(fromStage) {
		return repository.Stage{}, apperr.Conflict(fmt.Sprintf("pipeline is closed at stage %s, no further transitions", fromStage)).WithOp(op)
	}

	if fromStage == stage {
		updated, err := s.repo.UpdateOpenStage(ctx, current.ID, fields)
		if err != nil {
			if errors.Is(err, repository.ErrStageRace) {
				return repository.Stage{}, apperr.Conflict("stage was moved concurrently, retry with fresh state").WithOp(op)
			}
			return repository.Stage{}, apperr.Wrap(apperr.KindInternal, "updating stage", err).WithOp(op)
		}
		return updated, nil
	}

	opened, err := s.repo.Transition(ctx, assignmentID, currentID, stage, fields, domain.AssignmentStatusFor(stage))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStageRace):
			return repository.Stage{}, apperr.Conflict("stage was moved concurrently, retry with fresh state").WithOp(op)
		case errors.Is(err, repository.ErrAssignmentMissing):
			return repository.Stage{}, apperr.NotFound("assignment not found").WithOp(op)
		default:
			return repository.Stage{}, apperr.Wrap(apperr.KindInternal, "transitioning stage", err).WithOp(op)
		}
	}

	s.bus.Publish(ctx, events.StageTransitioned{
		BaseEvent:    events.NewBaseEvent(),
		AssignmentID: assignmentID,
		FromStage:    fromStage,
		ToStage:      stage,
	})
	return opened, nil
}

// AddActivity appends an activity to a stage of the assignment's pipeline.
// A zero params.StageID resolves to the current open stage.
func (s *Service) AddActivity(ctx context.Context, assignmentID uuid.UUID, params repository.CreateActivityParams) (repository.Activity, error) {
	const op = "pipeline.Service.AddActivity"

	if params.StageID == uuid.Nil {
		current, err := s.repo.OpenStage(ctx, assignmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNoOpenStage) {
				return repository.Activity{}, apperr.NotFound("assignment has no active stage").WithOp(op)
			}
			return repository.Activity{}, apperr.Wrap(apperr.KindInternal, "loading open stage", err).WithOp(op)
		}
		params.StageID = current.ID
	}
	params.AssignmentID = assignmentID

	activity, err := s.repo.InsertActivity(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrStageMissing) {
			return repository.Activity{}, apperr.NotFound("pipeline stage not found").WithOp(op)
		}
		return repository.Activity{}, apperr.Wrap(apperr.KindInternal, "recording stage activity", err).WithOp(op)
	}
	return activity, nil
}

// Detail is the full pipeline view of one assignment.
type Detail struct {
	Assignment assignmentrepo.Assignment
	Lead       leadrepo.Lead
	Stages     []repository.Stage
	Activities []repository.Activity
}

// Detail returns the assignment, its lead, and the stage history with
// activities. Open-stage duration is computed by the transport layer at
// render time, never persisted.
func (s *Service) Detail(ctx context.Context, assignmentID uuid.UUID) (Detail, error) {
	const op = "pipeline.Service.Detail"

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, assignmentrepo.ErrNotFound) {
			return Detail{}, apperr.NotFound("assignment not found").WithOp(op)
		}
		return Detail{}, apperr.Wrap(apperr.KindInternal, "loading assignment", err).WithOp(op)
	}

	lead, err := s.leads.GetByID(ctx, assignment.LeadID)
	if err != nil {
		return Detail{}, apperr.Wrap(apperr.KindInternal, "loading lead", err).WithOp(op)
	}

	stages, err := s.repo.ListStages(ctx, assignmentID)
	if err != nil {
		return Detail{}, apperr.Wrap(apperr.KindInternal, "loading stage history", err).WithOp(op)
	}

	activities, err := s.repo.ListActivities(ctx, assignmentID)
	if err != nil {
		return Detail{}, apperr.Wrap(apperr.KindInternal, "loading stage activities", err).WithOp(op)
	}

	return Detail{Assignment: assignment, Lead: lead, Stages: stages, Activities: activities}, nil
}
