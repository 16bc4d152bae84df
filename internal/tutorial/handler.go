package tutorial

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the interactive tutorial
type Handler struct {
	service   *Service
	variantOf func(*gin.Context) string
	visitorOf func(*gin.Context) string
	logger    *zap.Logger
}

// NewHandler creates a new tutorial handler. variantOf and visitorOf read the
// visitor's A/B bucket and identity from the request.
func NewHandler(service *Service, variantOf, visitorOf func(*gin.Context) string, logger *zap.Logger) *Handler {
	return &Handler{
		service:   service,
		variantOf: variantOf,
		visitorOf: visitorOf,
		logger:    logger,
	}
}

// RegisterRoutes registers tutorial routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	tutorial := router.Group("/tutorial")
	{
		tutorial.GET("/phases", h.listPhases)
		tutorial.POST("/sessions", h.createSession)
		tutorial.GET("/sessions/:id", h.getSession)
		tutorial.DELETE("/sessions/:id", h.closeSession)
		tutorial.POST("/sessions/:id/advance", h.advance)
		tutorial.POST("/sessions/:id/back", h.back)
		tutorial.POST("/sessions/:id/skip", h.skip)
		tutorial.POST("/sessions/:id/actions", h.action)
		tutorial.GET("/sessions/:id/live", h.liveUpdates)
	}
}

// ActionRequest is a simulated tap or selection on the mock app
type ActionRequest struct {
	Action Action `json:"action" binding:"required"`
	Value  string `json:"value"`
}

// ActionResponse reports whether the action moved the tutorial
type ActionResponse struct {
	Accepted bool `json:"accepted"`
	View     View `json:"view"`
}

// listPhases handles GET /api/tutorial/phases
func (h *Handler) listPhases(c *gin.Context) {
	type phaseJSON struct {
		PhaseConfig
		AutoAdvanceMs int64 `json:"auto_advance_ms,omitempty"`
	}
	phases := make([]phaseJSON, 0, len(phaseOrder))
	for _, cfg := range Registry() {
		phases = append(phases, phaseJSON{PhaseConfig: cfg, AutoAdvanceMs: cfg.AutoAdvanceMs()})
	}
	c.JSON(http.StatusOK, gin.H{"phases": phases})
}

// createSession handles POST /api/tutorial/sessions
func (h *Handler) createSession(c *gin.Context) {
	session := h.service.Create(h.variantOf(c), h.visitorOf(c))
	c.JSON(http.StatusCreated, NewShell(session).View())
}

// getSession handles GET /api/tutorial/sessions/:id
func (h *Handler) getSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.service.View(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// closeSession handles DELETE /api/tutorial/sessions/:id
func (h *Handler) closeSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.service.Close(id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

// advance handles POST /api/tutorial/sessions/:id/advance
func (h *Handler) advance(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, accepted, err := h.service.Dispatch(id, ActionContinue, "")
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResponse{Accepted: accepted, View: view})
}

// back handles POST /api/tutorial/sessions/:id/back
func (h *Handler) back(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, moved, err := h.service.Back(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResponse{Accepted: moved, View: view})
}

// skip handles POST /api/tutorial/sessions/:id/skip
func (h *Handler) skip(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, moved, err := h.service.Skip(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResponse{Accepted: moved, View: view})
}

// action handles POST /api/tutorial/sessions/:id/actions
func (h *Handler) action(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, accepted, err := h.service.Dispatch(id, req.Action, req.Value)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResponse{Accepted: accepted, View: view})
}

// liveUpdates handles GET /api/tutorial/sessions/:id/live
func (h *Handler) liveUpdates(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.service.View(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.service.Watch(c.Writer, c.Request, view); err != nil {
		h.logger.Warn("Live subscription failed", zap.Error(err), zap.String("session_id", id.String()))
	}
}

func (h *Handler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("Tutorial request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
