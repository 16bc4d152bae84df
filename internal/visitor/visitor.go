package visitor

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CookieName = "ops_visitor"
	contextKey = "ops.visitor"
	issuer     = "ops-web"
)

// Identity signs and verifies the visitor cookie. The cookie carries an
// HS256 token whose subject is the visitor ID.
type Identity struct {
	secret []byte
	maxAge time.Duration
	secure bool
	now    func() time.Time
	logger *zap.Logger
}

func NewIdentity(secret string, maxAge time.Duration, secure bool, logger *zap.Logger) (*Identity, error) {
	if secret == "" {
		return nil, errors.New("visitor cookie secret is required")
	}
	if maxAge <= 0 {
		maxAge = 365 * 24 * time.Hour
	}
	return &Identity{
		secret: []byte(secret),
		maxAge: maxAge,
		secure: secure,
		now:    time.Now,
		logger: logger,
	}, nil
}

// Issue returns a signed token for visitorID
func (i *Identity) Issue(visitorID string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   visitorID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.maxAge)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign visitor token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the visitor ID
func (i *Identity) Parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("invalid visitor token: %w", err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", fmt.Errorf("invalid visitor id: %w", err)
	}
	return claims.Subject, nil
}

// Middleware makes sure every request carries a visitor ID, issuing a new
// cookie when none or an invalid one is presented.
func (i *Identity) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(CookieName); err == nil && raw != "" {
			if id, err := i.Parse(raw); err == nil {
				c.Set(contextKey, id)
				c.Next()
				return
			}
			i.logger.Debug("Rejected visitor cookie", zap.String("path", c.Request.URL.Path))
		}

		id := uuid.New().String()
		token, err := i.Issue(id)
		if err != nil {
			i.logger.Error("Failed to issue visitor cookie", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, token, int(i.maxAge.Seconds()), "/", "", i.secure, true)
		c.Set(contextKey, id)
		c.Next()
	}
}

// FromContext returns the visitor ID set by the middleware
func FromContext(c *gin.Context) string {
	return c.GetString(contextKey)
}
