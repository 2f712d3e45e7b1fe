// Package pipeline provides the pipeline-tracking bounded context module.
package pipeline

import (
	assignmentrepo "estate_crm_backend/internal/assignments/repository"
	"estate_crm_backend/internal/events"
	leadrepo "estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/pipeline/handler"
	"estate_crm_backend/internal/pipeline/repository"
	"estate_crm_backend/internal/pipeline/service"
	"estate_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pipeline bounded context module. It subscribes to
// assignment-created events so every new assignment starts in stage NEW.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), assignmentrepo.New(pool), leadrepo.New(pool), bus, log)
	svc.SubscribeToAssignmentEvents(bus)

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// RegisterRoutes mounts the module's routes on the given group.
func (m *Module) RegisterRoutes(rg *gin.RouterGroup) {
	m.handler.RegisterRoutes(rg)
}
