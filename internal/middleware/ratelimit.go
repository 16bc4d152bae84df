package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter limits requests per client IP. It guards the routes that cost
// money or hit the backend (SMS, signup, invites).
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
	limiters sync.Map // client IP -> *cachedLimiter
}

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

type RateLimitOption func(*RateLimiter)

// WithTTL sets how long an idle client's limiter is kept
func WithTTL(ttl time.Duration) RateLimitOption {
	return func(r *RateLimiter) { r.ttl = ttl }
}

func withNow(now func() time.Time) RateLimitOption {
	return func(r *RateLimiter) { r.now = now }
}

// NewRateLimiter allows perMinute requests per minute with the given burst.
// perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute float64, burst int, opts ...RateLimitOption) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	r := &RateLimiter{
		limit: rate.Limit(perMinute / 60),
		burst: burst,
		ttl:   10 * time.Minute,
		now:   time.Now,
	}
	if perMinute <= 0 {
		r.limit = rate.Inf
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.limit == rate.Inf {
			c.Next()
			return
		}

		if !r.get(c.ClientIP()).Allow() {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later"})
			return
		}
		c.Next()
	}
}

func (r *RateLimiter) get(key string) *rate.Limiter {
	now := r.now()
	if v, ok := r.limiters.Load(key); ok {
		cached := v.(*cachedLimiter)
		if now.Before(cached.expiresAt) {
			return cached.limiter
		}
		// expired, need to create new
	}

	limiter := rate.NewLimiter(r.limit, r.burst)
	r.limiters.Store(key, &cachedLimiter{
		limiter:   limiter,
		expiresAt: now.Add(r.ttl),
	})
	return limiter
}

// Sweep drops limiters that have expired
func (r *RateLimiter) Sweep() int {
	now := r.now()
	removed := 0
	r.limiters.Range(func(k, v any) bool {
		if !now.Before(v.(*cachedLimiter).expiresAt) {
			r.limiters.Delete(k)
			removed++
		}
		return true
	})
	return removed
}
