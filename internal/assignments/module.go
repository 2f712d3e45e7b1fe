// Package assignments provides the assignment store bounded context module,
// including the bulk maintenance façade.
package assignments

import (
	"estate_crm_backend/internal/assignments/handler"
	"estate_crm_backend/internal/assignments/repository"
	"estate_crm_backend/internal/assignments/service"
	"estate_crm_backend/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the assignments bounded context module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the assignments module.
func NewModule(pool *pgxpool.Pool, bus events.Bus) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus)
	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// RegisterRoutes mounts read routes on rg and bulk mutations on bulk.
func (m *Module) RegisterRoutes(rg, bulk *gin.RouterGroup) {
	m.handler.RegisterRoutes(rg, bulk)
}
