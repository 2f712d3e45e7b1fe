package handler

import (
	"net/http"
	"strconv"
	"time"

	"estate_crm_backend/internal/leads/scoring"
	"estate_crm_backend/internal/leads/service"
	"estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/internal/scheduler"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc     *service.Service
	scoring *scoring.Service
	jobs    *scheduler.Client // nil when no job queue is configured
}

func New(svc *service.Service, scoringSvc *scoring.Service, jobs *scheduler.Client) *Handler {
	return &Handler{svc: svc, scoring: scoringSvc, jobs: jobs}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/activities", h.ListActivities)
	rg.POST("/:id/activities", h.RecordActivity)
	rg.POST("/:id/recalculate", h.Recalculate)
	rg.POST("/recalculate", h.BulkRecalculate)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) List(c *gin.Context) {
	filter := scoring.ListFilter{}

	if grade := c.Query("grade"); grade != "" {
		filter.Grade = &grade
	}
	if raw := c.Query("minScore"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		filter.MinScore = &value
	}
	if raw := c.Query("maxScore"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		filter.MaxScore = &value
	}
	if raw := c.Query("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		filter.Limit = value
	}

	leads, err := h.scoring.ListLeads(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		responses = append(responses, transport.ToLeadResponse(lead))
	}

	httpkit.OK(c, gin.H{"leads": responses, "count": len(responses)})
}

func (h *Handler) ListActivities(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	activities, err := h.svc.Activities(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"activities": activities, "count": len(activities)})
}

func (h *Handler) RecordActivity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.RecordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	occurredAt := time.Time{}
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	activity, err := h.scoring.RecordActivity(c.Request.Context(), id, req.Type, req.PropertyID, req.Metadata, occurredAt)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToActivityResponse(activity))
}

func (h *Handler) Recalculate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	score, grade, err := h.scoring.RecalculateScore(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"leadId": id, "score": score, "grade": grade})
}

func (h *Handler) BulkRecalculate(c *gin.Context) {
	var req transport.BulkRecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if req.Async && h.jobs != nil {
		ids := make([]string, 0, len(req.LeadIDs))
		for _, id := range req.LeadIDs {
			ids = append(ids, id.String())
		}
		err := h.jobs.EnqueueRecalculateScores(c.Request.Context(), scheduler.RecalculateScoresPayload{LeadIDs: ids})
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.JSON(c, http.StatusAccepted, gin.H{"queued": true, "leadIds": len(ids)})
		return
	}

	result, err := h.scoring.BulkRecalculate(c.Request.Context(), req.LeadIDs)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
