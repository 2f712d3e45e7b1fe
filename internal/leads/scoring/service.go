// Package scoring implements the lead scoring engine: it ingests behavioral
// activities into the append-only ledger and re-derives each lead's score and
// grade by replaying the ledger against a weight table.
package scoring

import (
	"context"
	"errors"
	"time"

	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/leads/domain"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultRecalcConcurrency = 8

type Service struct {
	repo        *repository.Repository
	bus         events.Bus
	weights     domain.WeightTable
	concurrency int
	log         *logger.Logger
}

// New creates the scoring engine. The weight table is fixed for the process
// lifetime; score changes require replay, never in-place arithmetic.
func New(repo *repository.Repository, bus events.Bus, weights domain.WeightTable, concurrency int, log *logger.Logger) *Service {
	if concurrency < 1 {
		concurrency = defaultRecalcConcurrency
	}
	return &Service{
		repo:        repo,
		bus:         bus,
		weights:     weights,
		concurrency: concurrency,
		log:         log,
	}
}

// RecordActivity appends a behavioral event to the lead's ledger and
// synchronously recalculates the lead's score. An unknown lead id is a
// NotFound error: activity ingestion never auto-creates leads, lead creation
// is an explicit import operation.
func (s *Service) RecordActivity(ctx context.Context, leadID uuid.UUID, activityType string, propertyID *uuid.UUID, metadata map[string]interface{}, occurredAt time.Time) (repository.Activity, error) {
	if !domain.IsKnownActivityType(activityType) {
		return repository.Activity{}, apperr.Validation("unknown activity type: " + activityType)
	}

	activity, err := s.repo.InsertActivity(ctx, repository.InsertActivityParams{
		LeadID:     leadID,
		Type:       activityType,
		PropertyID: propertyID,
		Metadata:   metadata,
		OccurredAt: occurredAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrLeadMissing) {
			return repository.Activity{}, apperr.NotFound("lead not found")
		}
		return repository.Activity{}, err
	}

	if _, _, err := s.RecalculateScore(ctx, leadID); err != nil {
		// The ledger write already happened; score staleness is recoverable
		// by any later recalculation.
		s.log.Warn("score recalculation failed after activity", "leadId", leadID, "error", err)
	}

	s.bus.Publish(ctx, events.ActivityRecorded{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       leadID,
		ActivityType: activityType,
	})

	return activity, nil
}

// RecalculateScore replays the lead's activity history through the weight
// table and persists score, grade, and last-activity timestamp. Idempotent:
// with no new activity, repeated calls converge to the same values.
func (s *Service) RecalculateScore(ctx context.Context, leadID uuid.UUID) (int, domain.Grade, error) {
	counts, lastActivity, err := s.repo.ActivityCounts(ctx, leadID)
	if err != nil {
		return 0, "", err
	}

	score := s.weights.Score(counts)
	grade := domain.GradeForScore(score)

	if err := s.repo.UpdateScore(ctx, leadID, score, string(grade), lastActivity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, "", apperr.NotFound("lead not found")
		}
		return 0, "", err
	}

	s.bus.Publish(ctx, events.LeadScored{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		Score:     score,
		Grade:     string(grade),
	})

	return score, grade, nil
}

// RecalcFailure records one lead that failed during a bulk recalculation.
type RecalcFailure struct {
	LeadID uuid.UUID `json:"leadId"`
	Reason string    `json:"reason"`
}

// BulkRecalcResult summarizes a bulk recalculation run.
type BulkRecalcResult struct {
	Requested int             `json:"requested"`
	Updated   int             `json:"updated"`
	Failures  []RecalcFailure `json:"failures,omitempty"`
}

// BulkRecalculate recomputes scores for the given leads, or for all ACTIVE
// USER leads when none are given. Per-lead failures are collected, not
// fatal. Safe to run concurrently with ingestion: scores re-derive from the
// ledger, so races only affect staleness.
func (s *Service) BulkRecalculate(ctx context.Context, leadIDs []uuid.UUID) (BulkRecalcResult, error) {
	if len(leadIDs) == 0 {
		all, err := s.repo.ListActiveLeadIDs(ctx)
		if err != nil {
			return BulkRecalcResult{}, err
		}
		leadIDs = all
	}

	result := BulkRecalcResult{Requested: len(leadIDs)}
	if len(leadIDs) == 0 {
		return result, nil
	}

	type outcome struct {
		leadID uuid.UUID
		err    error
	}

	outcomes := make([]outcome, len(leadIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, leadID := range leadIDs {
		g.Go(func() error {
			_, _, err := s.RecalculateScore(gctx, leadID)
			outcomes[i] = outcome{leadID: leadID, err: err}
			return nil
		})
	}

	// Workers never return errors; failures are per-item.
	_ = g.Wait()

	for _, o := range outcomes {
		if o.err != nil {
			result.Failures = append(result.Failures, RecalcFailure{
				LeadID: o.leadID,
				Reason: o.err.Error(),
			})
			continue
		}
		result.Updated++
	}

	return result, nil
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListFilter is the sanitized query for listing leads.
type ListFilter struct {
	Grade    *string
	MinScore *int
	MaxScore *int
	Limit    int
}

// ListLeads returns leads matching the filter with server-side bounds:
// the limit is capped and score bounds are clamped to non-negative.
func (s *Service) ListLeads(ctx context.Context, filter ListFilter) ([]repository.Lead, error) {
	if filter.Grade != nil && !domain.IsKnownGrade(*filter.Grade) {
		return nil, apperr.Validation("unknown grade: " + *filter.Grade)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.MinScore != nil && *filter.MinScore < 0 {
		zero := 0
		filter.MinScore = &zero
	}
	if filter.MaxScore != nil && *filter.MaxScore < 0 {
		zero := 0
		filter.MaxScore = &zero
	}

	return s.repo.List(ctx, repository.ListLeadsFilter{
		Grade:    filter.Grade,
		MinScore: filter.MinScore,
		MaxScore: filter.MaxScore,
		Limit:    filter.Limit,
	})
}
