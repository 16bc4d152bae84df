// Package variant assigns visitors to an A/B bucket and remembers the choice
// in the ops_variant cookie.
package variant

import (
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	A = "a"
	B = "b"

	CookieName = "ops_variant"
	QueryParam = "variant"
	CookieTTL  = 30 * 24 * time.Hour

	contextKey = "ops.variant"
)

// Source records how a visitor's variant was decided
type Source string

const (
	SourceQuery  Source = "query"
	SourceCookie Source = "cookie"
	SourceRandom Source = "random"
)

// DefaultRoutes are the paths that take part in the experiment
var DefaultRoutes = []string{"/", "/tutorial", "/signup"}

// Valid reports whether v is a known bucket
func Valid(v string) bool {
	return v == A || v == B
}

// Resolve picks the variant for a request: a valid query parameter wins,
// then a valid cookie, then a coin flip.
func Resolve(query, cookie string, coin func() bool) (string, Source) {
	if q := strings.ToLower(strings.TrimSpace(query)); Valid(q) {
		return q, SourceQuery
	}
	if Valid(cookie) {
		return cookie, SourceCookie
	}
	if coin() {
		return A, SourceRandom
	}
	return B, SourceRandom
}

type Options struct {
	Routes []string
	Secure bool
	// Coin returns true for variant a. Defaults to a fair coin.
	Coin func() bool
	// OnAssign is called whenever a variant is decided for a qualifying request
	OnAssign func(variant string, source Source)
}

// Middleware assigns a variant on qualifying routes and refreshes the cookie
// whenever it is missing or changed. Other routes only read an existing cookie.
func Middleware(opts Options) gin.HandlerFunc {
	routes := opts.Routes
	if len(routes) == 0 {
		routes = DefaultRoutes
	}
	coin := opts.Coin
	if coin == nil {
		coin = func() bool { return rand.IntN(2) == 0 }
	}

	return func(c *gin.Context) {
		cookie, _ := c.Cookie(CookieName)

		if !qualifies(c.Request.URL.Path, routes) {
			if Valid(cookie) {
				c.Set(contextKey, cookie)
			}
			c.Next()
			return
		}

		v, source := Resolve(c.Query(QueryParam), cookie, coin)
		if v != cookie {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CookieName, v, int(CookieTTL.Seconds()), "/", "", opts.Secure, false)
		}
		if opts.OnAssign != nil {
			opts.OnAssign(v, source)
		}

		c.Set(contextKey, v)
		c.Next()
	}
}

// FromContext returns the variant for the request, or "" when the request is
// outside the experiment and carries no cookie.
func FromContext(c *gin.Context) string {
	return c.GetString(contextKey)
}

// qualifies matches a route exactly or as a path prefix ("/signup" covers
// "/signup/profile"). The root only matches itself.
func qualifies(path string, routes []string) bool {
	for _, r := range routes {
		if path == r {
			return true
		}
		if r != "/" && strings.HasPrefix(path, r+"/") {
			return true
		}
	}
	return false
}
