// Package leads provides the lead and scoring bounded context module.
package leads

import (
	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/leads/handler"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/leads/scoring"
	"estate_crm_backend/internal/leads/service"
	"estate_crm_backend/internal/scheduler"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module.
type Module struct {
	handler *handler.Handler
	scoring *scoring.Service
	service *service.Service
}

// NewModule creates and initializes the leads module with all its
// dependencies. jobs may be nil; bulk rescoring then always runs inline.
func NewModule(pool *pgxpool.Pool, bus events.Bus, cfg config.ScoringConfig, jobs *scheduler.Client, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)

	weights, err := scoring.LoadWeights(cfg.GetScoringWeightsPath())
	if err != nil {
		return nil, err
	}

	scoringSvc := scoring.New(repo, bus, weights, cfg.GetBulkRecalcConcurrency(), log)
	svc := service.New(repo, bus)

	return &Module{
		handler: handler.New(svc, scoringSvc, jobs),
		scoring: scoringSvc,
		service: svc,
	}, nil
}

// Scoring exposes the scoring engine to other modules (scheduler worker).
func (m *Module) Scoring() *scoring.Service {
	return m.scoring
}

// RegisterRoutes mounts the module's routes on the given group.
func (m *Module) RegisterRoutes(rg *gin.RouterGroup) {
	m.handler.RegisterRoutes(rg)
}
