package sms

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	sender Sender
	links  AppLinks
	logger *zap.Logger
}

func NewHandler(sender Sender, links AppLinks, logger *zap.Logger) *Handler {
	return &Handler{sender: sender, links: links, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/sms/app-link", h.SendAppLink)
}

type AppLinkRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// SendAppLink texts the app download links to a phone number
func (h *Handler) SendAppLink(c *gin.Context) {
	var req AppLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number is required"})
		return
	}

	to, err := NormalizePhone(req.Phone)
	if err != nil {
		status, msg := StatusFor(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	id, err := h.sender.Send(c.Request.Context(), to, AppLinkMessage(h.links))
	if err != nil {
		h.logger.Error("Failed to send app link", zap.Error(err))
		status, msg := StatusFor(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messageId": id})
}
