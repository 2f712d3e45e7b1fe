package handler

import (
	"net/http"
	"time"

	"estate_crm_backend/internal/pipeline/service"
	"estate_crm_backend/internal/pipeline/transport"
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
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:assignmentId", h.Detail)
	rg.POST("/:assignmentId/initialize", h.Initialize)
	rg.POST("/:assignmentId/transition", h.Transition)
	rg.POST("/:assignmentId/activities", h.AddActivity)
}

func (h *Handler) Detail(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("assignmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	detail, err := h.svc.Detail(c.Request.Context(), assignmentID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToDetailResponse(detail, time.Now()))
}

func (h *Handler) Initialize(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("assignmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	stage, err := h.svc.Initialize(c.Request.Context(), assignmentID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToStageResponse(stage, time.Now()))
}

func (h *Handler) Transition(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("assignmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	stage, err := h.svc.Transition(c.Request.Context(), assignmentID, req.Stage, req.Fields())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToStageResponse(stage, time.Now()))
}

func (h *Handler) AddActivity(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("assignmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.AddActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	activity, err := h.svc.AddActivity(c.Request.Context(), assignmentID, req.Params())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToActivityResponse(activity))
}
