// Package service wraps the reporting queries with the application error
// taxonomy.
package service

import (
	"context"

	"github.com/google/uuid"

	"estate_crm_backend/internal/reporting/repository"
	"estate_crm_backend/platform/apperr"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Performance(ctx context.Context, agentID *uuid.UUID) (repository.Performance, error) {
	perf, err := s.repo.Performance(ctx, agentID)
	if err != nil {
		return repository.Performance{}, apperr.Wrap(apperr.KindInternal, "computing performance report", err).WithOp("reporting.Service.Performance")
	}
	return perf, nil
}

func (s *Service) PipelineValue(ctx context.Context, agentID *uuid.UUID) ([]repository.StageValue, error) {
	values, err := s.repo.PipelineValue(ctx, agentID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "computing pipeline value report", err).WithOp("reporting.Service.PipelineValue")
	}
	return values, nil
}

func (s *Service) GradeDistribution(ctx context.Context) ([]repository.GradeBucket, error) {
	buckets, err := s.repo.GradeDistribution(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "computing grade distribution", err).WithOp("reporting.Service.GradeDistribution")
	}
	return buckets, nil
}

func (s *Service) AgentLoads(ctx context.Context) ([]repository.AgentLoad, error) {
	loads, err := s.repo.AgentLoads(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "computing agent load report", err).WithOp("reporting.Service.AgentLoads")
	}
	return loads, nil
}
