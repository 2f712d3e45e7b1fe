package handler

import (
	"net/http"

	"estate_crm_backend/internal/reporting/service"
	"estate_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/performance", h.Performance)
	rg.GET("/pipeline-value", h.PipelineValue)
	rg.GET("/grade-distribution", h.GradeDistribution)
	rg.GET("/agent-loads", h.AgentLoads)
}

// agentFilter reads the optional agentId query parameter.
func agentFilter(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("agentId")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return nil, false
	}
	return &id, true
}

func (h *Handler) Performance(c *gin.Context) {
	agentID, ok := agentFilter(c)
	if !ok {
		return
	}

	perf, err := h.svc.Performance(c.Request.Context(), agentID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, perf)
}

func (h *Handler) PipelineValue(c *gin.Context) {
	agentID, ok := agentFilter(c)
	if !ok {
		return
	}

	values, err := h.svc.PipelineValue(c.Request.Context(), agentID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"stages": values})
}

func (h *Handler) GradeDistribution(c *gin.Context) {
	buckets, err := h.svc.GradeDistribution(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"grades": buckets})
}

func (h *Handler) AgentLoads(c *gin.Context) {
	loads, err := h.svc.AgentLoads(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"agents": loads})
}
