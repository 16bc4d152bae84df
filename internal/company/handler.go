package company

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ops-web/ops-web-backend/internal/bubble"
	"ops-web/ops-web-backend/internal/sms"
)

const maxInvitees = 50

type Handler struct {
	service   *Service
	visitorOf func(*gin.Context) string
	logger    *zap.Logger
}

func NewHandler(service *Service, visitorOf func(*gin.Context) string, logger *zap.Logger) *Handler {
	return &Handler{service: service, visitorOf: visitorOf, logger: logger}
}

// RegisterRoutes registers company routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	company := r.Group("/company")
	{
		company.POST("/create", h.Create)
		company.POST("/join", h.Join)
		company.POST("/invite", h.Invite)
	}
}

type CreateRequest struct {
	UserID   string `json:"userId"`
	Name     string `json:"name" binding:"required"`
	Industry string `json:"industry"`
	Size     string `json:"size"`
}

type JoinRequest struct {
	UserID      string `json:"userId"`
	CompanyCode string `json:"companyCode" binding:"required"`
}

type InviteRequestBody struct {
	CompanyID string   `json:"companyId"`
	Emails    []string `json:"emails"`
	Phones    []string `json:"phones"`
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Company name is required"})
		return
	}

	company, err := h.service.Create(c.Request.Context(), h.visitorOf(c), bubble.NewCompany{
		UserID:   req.UserID,
		Name:     strings.TrimSpace(req.Name),
		Industry: req.Industry,
		Size:     req.Size,
	})
	if err != nil {
		h.respondError(c, "create", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "companyId": company.ID, "companyCode": company.Code})
}

func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Company code is required"})
		return
	}

	company, err := h.service.Join(c.Request.Context(), h.visitorOf(c), req.UserID, req.CompanyCode)
	if err != nil {
		h.respondError(c, "join", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "companyId": company.ID, "companyName": company.Name})
}

func (h *Handler) Invite(c *gin.Context) {
	var req InviteRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	emails := make([]string, 0, len(req.Emails))
	for _, e := range req.Emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.Contains(e, "@") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email: " + e})
			return
		}
		emails = append(emails, e)
	}

	phones := make([]string, 0, len(req.Phones))
	for _, p := range req.Phones {
		if strings.TrimSpace(p) == "" {
			continue
		}
		normalized, err := sms.NormalizePhone(p)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number: " + p})
			return
		}
		phones = append(phones, normalized)
	}

	if len(emails)+len(phones) > maxInvitees {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many invitees"})
		return
	}

	res, err := h.service.Invite(c.Request.Context(), h.visitorOf(c), InviteRequest{
		CompanyID: req.CompanyID,
		Emails:    emails,
		Phones:    phones,
	})
	if err != nil {
		h.respondError(c, "invite", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sent": res.Sent, "failed": res.Failed})
}

func (h *Handler) respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidCode):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid company code"})
	case errors.Is(err, ErrMissingUser), errors.Is(err, ErrMissingCompany), errors.Is(err, ErrNoRecipients):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		status, msg := bubble.StatusFor(err)
		if status >= 500 {
			h.logger.Error("Company request failed", zap.String("op", op), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": msg})
	}
}
