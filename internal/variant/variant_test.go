package variant

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrecedence(t *testing.T) {
	heads := func() bool { return true }
	tails := func() bool { return false }

	tests := []struct {
		name   string
		query  string
		cookie string
		coin   func() bool
		want   string
		source Source
	}{
		{"query wins over cookie", "b", "a", heads, B, SourceQuery},
		{"query is case insensitive", " A ", "b", tails, A, SourceQuery},
		{"invalid query falls back to cookie", "c", "b", heads, B, SourceCookie},
		{"cookie without query", "", "a", tails, A, SourceCookie},
		{"invalid cookie is ignored", "", "zzz", tails, B, SourceRandom},
		{"random heads", "", "", heads, A, SourceRandom},
		{"random tails", "", "", tails, B, SourceRandom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, source := Resolve(tt.query, tt.cookie, tt.coin)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestQualifies(t *testing.T) {
	assert.True(t, qualifies("/", DefaultRoutes))
	assert.True(t, qualifies("/tutorial", DefaultRoutes))
	assert.True(t, qualifies("/signup/profile", DefaultRoutes))
	assert.False(t, qualifies("/api/auth/signup", DefaultRoutes))
	assert.False(t, qualifies("/tutorials", DefaultRoutes))
}

func newRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(opts))
	echo := func(c *gin.Context) { c.String(http.StatusOK, FromContext(c)) }
	r.GET("/", echo)
	r.GET("/tutorial", echo)
	r.GET("/api/ping", echo)
	return r
}

func TestMiddlewareSetsCookie(t *testing.T) {
	var assigned []Source
	r := newRouter(Options{
		Coin:     func() bool { return false },
		OnAssign: func(_ string, s Source) { assigned = append(assigned, s) },
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tutorial", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, B, w.Body.String())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, B, cookies[0].Value)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, 30*24*60*60, cookies[0].MaxAge)

	// an existing cookie is kept and not rewritten
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: A})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, A, w.Body.String())
	assert.Empty(t, w.Result().Cookies())

	// the query parameter overrides the cookie and updates it
	req = httptest.NewRequest(http.MethodGet, "/?variant=b", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: A})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, B, w.Body.String())
	require.Len(t, w.Result().Cookies(), 1)
	assert.Equal(t, B, w.Result().Cookies()[0].Value)

	assert.Equal(t, []Source{SourceRandom, SourceCookie, SourceQuery}, assigned)
}

func TestMiddlewareIgnoresOtherRoutes(t *testing.T) {
	r := newRouter(Options{Coin: func() bool { return true }})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping?variant=a", nil))
	assert.Empty(t, w.Body.String())
	assert.Empty(t, w.Result().Cookies())

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: B})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, B, w.Body.String(), "existing cookie is still readable")
}
