package analytics

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the analytics sink and reporting endpoints
type Handler struct {
	recorder  *Recorder
	rollup    *Rollup
	repo      Repository
	variantOf func(*gin.Context) string
	visitorOf func(*gin.Context) string
	logger    *zap.Logger
}

func NewHandler(recorder *Recorder, rollup *Rollup, repo Repository, variantOf, visitorOf func(*gin.Context) string, logger *zap.Logger) *Handler {
	return &Handler{
		recorder:  recorder,
		rollup:    rollup,
		repo:      repo,
		variantOf: variantOf,
		visitorOf: visitorOf,
		logger:    logger,
	}
}

// RegisterRoutes registers analytics routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	analytics := router.Group("/analytics")
	{
		analytics.POST("/steps", h.reportStep)
		analytics.GET("/summary", h.getSummary)
		analytics.GET("/export", h.export)
	}
}

// reportStep handles POST /api/analytics/steps. The response never depends
// on whether the record was persisted.
func (h *Handler) reportStep(c *gin.Context) {
	var req StepReport
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.recorder.Record(StepRecord{
		SessionID:  req.SessionID,
		VisitorID:  h.visitorOf(c),
		Variant:    h.variantOf(c),
		Phase:      req.Phase,
		DurationMs: req.DurationMs,
		Skipped:    req.Skipped,
		Source:     SourceWalkthrough,
		RecordedAt: time.Now(),
	})

	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// getSummary handles GET /api/analytics/summary
func (h *Handler) getSummary(c *gin.Context) {
	summary := h.rollup.Latest()
	if summary == nil || c.Query("refresh") == "true" {
		var err error
		summary, err = h.rollup.Run(c.Request.Context())
		if err != nil {
			h.logger.Error("Failed to compute analytics summary", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}
	c.JSON(http.StatusOK, summary)
}

// export handles GET /api/analytics/export?format=csv|xlsx&since=RFC3339
func (h *Handler) export(c *gin.Context) {
	format, err := ParseExportFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	since := time.Now().Add(-h.rollup.config.Window)
	if s := c.Query("since"); s != "" {
		since, err = time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC3339 timestamp"})
			return
		}
	}

	records, err := h.repo.ListSteps(c.Request.Context(), since)
	if err != nil {
		h.logger.Error("Failed to list step records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var buf bytes.Buffer
	if err := Export(&buf, format, records); err != nil {
		h.logger.Error("Failed to export step records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	filename := fmt.Sprintf("tutorial-steps-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
