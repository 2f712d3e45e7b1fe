// Package agents provides the sales agent directory bounded context module.
package agents

import (
	"estate_crm_backend/internal/agents/handler"
	"estate_crm_backend/internal/agents/repository"
	"estate_crm_backend/internal/agents/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the agents bounded context module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the agents module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	return &Module{handler: handler.New(svc)}
}

// RegisterRoutes mounts the module's routes on the given group.
func (m *Module) RegisterRoutes(rg *gin.RouterGroup) {
	m.handler.RegisterRoutes(rg)
}
