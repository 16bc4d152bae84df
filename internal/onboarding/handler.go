package onboarding

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service   *Service
	variantOf func(*gin.Context) string
	visitorOf func(*gin.Context) string
	logger    *zap.Logger
}

func NewHandler(service *Service, variantOf, visitorOf func(*gin.Context) string, logger *zap.Logger) *Handler {
	return &Handler{
		service:   service,
		variantOf: variantOf,
		visitorOf: visitorOf,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/onboarding", h.GetState)
	r.PATCH("/onboarding", h.UpdateState)
}

type stateResponse struct {
	*State
	NextSteps []string `json:"next_steps"`
}

func (h *Handler) GetState(c *gin.Context) {
	st, err := h.service.Load(c.Request.Context(), h.visitorOf(c), h.variantOf(c))
	if err != nil {
		h.logger.Error("Failed to load onboarding state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, stateResponse{State: st, NextSteps: h.service.NextSteps(st)})
}

func (h *Handler) UpdateState(c *gin.Context) {
	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.service.Apply(c.Request.Context(), h.visitorOf(c), patch)
	if errors.Is(err, ErrInvalidStep) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Failed to update onboarding state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, stateResponse{State: st, NextSteps: h.service.NextSteps(st)})
}
