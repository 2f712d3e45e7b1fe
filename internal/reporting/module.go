// Package reporting provides derived read views over the engine's data:
// win rates, cycle times, open pipeline value, grade distribution, and
// agent workload.
package reporting

import (
	"estate_crm_backend/internal/reporting/handler"
	"estate_crm_backend/internal/reporting/repository"
	"estate_crm_backend/internal/reporting/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool) *Module {
	return &Module{handler: handler.New(service.New(repository.New(pool)))}
}

// RegisterRoutes mounts the module's routes on the given group.
func (m *Module) RegisterRoutes(rg *gin.RouterGroup) {
	m.handler.RegisterRoutes(rg)
}
