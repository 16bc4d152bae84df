package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ops-web/ops-web-backend/internal/bubble"
	"ops-web/ops-web-backend/internal/sms"
)

type Handler struct {
	Service   *Service
	visitorOf func(*gin.Context) string
	logger    *zap.Logger
}

func NewHandler(s *Service, visitorOf func(*gin.Context) string, logger *zap.Logger) *Handler {
	return &Handler{Service: s, visitorOf: visitorOf, logger: logger}
}

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type ProviderRequest struct {
	Provider string `json:"provider" binding:"required,oneof=google apple"`
	IDToken  string `json:"idToken" binding:"required"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

type ProfileRequest struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Phone     string `json:"phone"`
}

// SignUp creates an account
func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email and a password of at least 8 characters are required"})
		return
	}

	res, err := h.Service.SignUp(c.Request.Context(), h.visitorOf(c), bubble.Credentials{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, "signup", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "userId": res.UserID})
}

// Login signs an existing user in
func (h *Handler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	res, err := h.Service.Login(c.Request.Context(), h.visitorOf(c), bubble.Credentials{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "userId": res.UserID, "token": res.Token})
}

// ProviderLogin signs in with a Google or Apple identity token
func (h *Handler) ProviderLogin(c *gin.Context) {
	var req ProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider (google or apple) and idToken are required"})
		return
	}

	res, err := h.Service.ProviderLogin(c.Request.Context(), h.visitorOf(c), bubble.ProviderLogin{
		Provider: req.Provider,
		IDToken:  req.IDToken,
		Email:    req.Email,
		Name:     req.Name,
	})
	if err != nil {
		h.respondError(c, "provider login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "userId": res.UserID, "token": res.Token})
}

// UpdateProfile saves the user's name and phone
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "First and last name are required"})
		return
	}

	phone := strings.TrimSpace(req.Phone)
	if phone != "" {
		normalized, err := sms.NormalizePhone(phone)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
			return
		}
		phone = normalized
	}

	err := h.Service.UpdateProfile(c.Request.Context(), h.visitorOf(c), bubble.Profile{
		UserID:    req.UserID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     phone,
	})
	if err != nil {
		h.respondError(c, "profile update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrMissingUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
	default:
		status, msg := bubble.StatusFor(err)
		if status >= 500 {
			h.logger.Error("Auth request failed", zap.String("op", op), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": msg})
	}
}
