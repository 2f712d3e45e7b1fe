package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	assignmentrepo "estate_crm_backend/internal/assignments/repository"
	"estate_crm_backend/internal/events"
	leadrepo "estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/pipeline/domain"
	"estate_crm_backend/internal/pipeline/repository"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"
)

type fakeStageStore struct {
	open    repository.Stage
	openErr error

	updateCalls     int
	transitionCalls int
	lastNewStage    string
	lastStatus      string
	transitionErr   error
}

func (f *fakeStageStore) OpenStage(_ context.Context, _ uuid.UUID) (repository.Stage, error) {
	if f.openErr != nil {
		return repository.Stage{}, f.openErr
	}
	return f.open, nil
}

func (f *fakeStageStore) ListStages(_ context.Context, _ uuid.UUID) ([]repository.Stage, error) {
	return []repository.Stage{f.open}, nil
}

func (f *fakeStageStore) OpenInitialStage(_ context.Context, assignmentID uuid.UUID, stage string) (repository.Stage, bool, error) {
	if f.openErr != nil {
		return repository.Stage{}, false, f.openErr
	}
	return repository.Stage{ID: uuid.New(), AssignmentID: assignmentID, Stage: stage}, true, nil
}

func (f *fakeStageStore) UpdateOpenStage(_ context.Context, stageID uuid.UUID, fields repository.StageFields) (repository.Stage, error) {
	f.updateCalls++
	updated := f.open
	updated.ID = stageID
	if fields.Notes != nil {
		updated.Notes = fields.Notes
	}
	return updated, nil
}

func (f *fakeStageStore) Transition(_ context.Context, assignmentID uuid.UUID, _ *uuid.UUID, newStage string, _ repository.StageFields, assignmentStatus string) (repository.Stage, error) {
	f.transitionCalls++
	f.lastNewStage = newStage
	f.lastStatus = assignmentStatus
	if f.transitionErr != nil {
		return repository.Stage{}, f.transitionErr
	}
	return repository.Stage{ID: uuid.New(), AssignmentID: assignmentID, Stage: newStage}, nil
}

func (f *fakeStageStore) InsertActivity(_ context.Context, params repository.CreateActivityParams) (repository.Activity, error) {
	return repository.Activity{ID: uuid.New(), StageID: params.StageID, AssignmentID: params.AssignmentID, Type: params.Type}, nil
}

func (f *fakeStageStore) ListActivities(_ context.Context, _ uuid.UUID) ([]repository.Activity, error) {
	return []repository.Activity{}, nil
}

type fakeAssignmentReader struct {
	assignment assignmentrepo.Assignment
}

func (f *fakeAssignmentReader) GetByID(_ context.Context, _ uuid.UUID) (assignmentrepo.Assignment, error) {
	return f.assignment, nil
}

type fakeLeadReader struct{}

func (f *fakeLeadReader) GetByID(_ context.Context, _ uuid.UUID) (leadrepo.Lead, error) {
	return leadrepo.Lead{}, nil
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Publish(_ context.Context, event events.Event) {
	f.published = append(f.published, event)
}

func (f *fakeBus) PublishSync(_ context.Context, event events.Event) error {
	f.published = append(f.published, event)
	return nil
}

func (f *fakeBus) Subscribe(string, events.Handler) {}

func newTestService(store *fakeStageStore) (*Service, *fakeBus) {
	bus := &fakeBus{}
	svc := New(store, &fakeAssignmentReader{}, &fakeLeadReader{}, bus, logger.New("development"))
	return svc, bus
}

func openStage(stage string) repository.Stage {
	return repository.Stage{ID: uuid.New(), AssignmentID: uuid.New(), Stage: stage}
}

func TestTransitionRejectsUnknownStage(t *testing.T) {
	svc, _ := newTestService(&fakeStageStore{open: openStage(domain.StageNew)})

	_, err := svc.Transition(context.Background(), uuid.New(), "ARCHIVED", repository.StageFields{})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransitionOutOfTerminalStageIsRejected(t *testing.T) {
	for _, terminal := range []string{domain.StageWon, domain.StageLost} {
		store := &fakeStageStore{open: openStage(terminal)}
		svc, bus := newTestService(store)

		_, err := svc.Transition(context.Background(), uuid.New(), domain.StageContacted, repository.StageFields{})
		if !apperr.Is(err, apperr.KindConflict) {
			t.Fatalf("%s: expected conflict error, got %v", terminal, err)
		}
		if store.transitionCalls != 0 {
			t.Fatalf("%s: transition must not reach the store", terminal)
		}
		if len(bus.published) != 0 {
			t.Fatalf("%s: no event may be published for a rejected transition", terminal)
		}
	}
}

func TestTransitionSameStageUpdatesInPlace(t *testing.T) {
	store := &fakeStageStore{open: openStage(domain.StageProposal)}
	svc, bus := newTestService(store)

	notes := "sent revised offer"
	updated, err := svc.Transition(context.Background(), store.open.AssignmentID, domain.StageProposal, repository.StageFields{Notes: &notes})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if store.updateCalls != 1 || store.transitionCalls != 0 {
		t.Fatalf("same-stage request must update in place, got update=%d transition=%d", store.updateCalls, store.transitionCalls)
	}
	if updated.Notes == nil || *updated.Notes != notes {
		t.Fatalf("notes not applied: %v", updated.Notes)
	}
	if len(bus.published) != 0 {
		t.Fatal("in-place update must not publish a transition event")
	}
}

func TestTransitionToWonCompletesAssignment(t *testing.T) {
	store := &fakeStageStore{open: openStage(domain.StageNegotiation)}
	svc, bus := newTestService(store)

	opened, err := svc.Transition(context.Background(), store.open.AssignmentID, domain.StageWon, repository.StageFields{})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if opened.Stage != domain.StageWon {
		t.Fatalf("opened stage = %q, want WON", opened.Stage)
	}
	if store.lastStatus != assignmentrepo.StatusCompleted {
		t.Fatalf("assignment status = %q, want COMPLETED", store.lastStatus)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	moved, ok := bus.published[0].(events.StageTransitioned)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.published[0])
	}
	if moved.FromStage != domain.StageNegotiation || moved.ToStage != domain.StageWon {
		t.Fatalf("event stages %q -> %q", moved.FromStage, moved.ToStage)
	}
}

func TestTransitionConcurrentCloseIsConflict(t *testing.T) {
	store := &fakeStageStore{
		open:          openStage(domain.StageNew),
		transitionErr: repository.ErrStageRace,
	}
	svc, _ := newTestService(store)

	_, err := svc.Transition(context.Background(), store.open.AssignmentID, domain.StageContacted, repository.StageFields{})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestAddActivityWithoutOpenStageIsNotFound(t *testing.T) {
	svc, _ := newTestService(&fakeStageStore{openErr: repository.ErrNoOpenStage})

	_, err := svc.AddActivity(context.Background(), uuid.New(), repository.CreateActivityParams{Type: "CALL"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
