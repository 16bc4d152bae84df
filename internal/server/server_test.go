package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ops-web/ops-web-backend/internal/config"
)

func newTestServer(t *testing.T, bubbleURL string) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Security.CookieSecret = "0123456789abcdef0123456789abcdef"
	cfg.Bubble.BaseURL = bubbleURL
	cfg.App.IOSURL = "https://apps.apple.com/ops"

	s, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.close)
	return s
}

func do(s *Server, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "http://bubble.invalid")

	w := do(s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestLandingSetsCookies(t *testing.T) {
	s := newTestServer(t, "http://bubble.invalid")

	w := do(s, http.MethodGet, "/?variant=b", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-variant="b"`)

	names := map[string]string{}
	for _, c := range w.Result().Cookies() {
		names[c.Name] = c.Value
	}
	assert.Equal(t, "b", names["ops_variant"])
	assert.NotEmpty(t, names["ops_visitor"])
}

func TestSignupFlowThroughBackend(t *testing.T) {
	bubbleSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wf/signup", r.URL.Path)
		w.Write([]byte(`{"status":"success","response":{"user_id":"u-7","token":"t"}}`))
	}))
	defer bubbleSrv.Close()
	s := newTestServer(t, bubbleSrv.URL)

	first := do(s, http.MethodGet, "/signup/account?variant=a", "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()

	w := do(s, http.MethodPost, "/api/auth/signup", `{"email":"crew@ops.app","password":"hunter2hunter2"}`, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"userId":"u-7"}`, w.Body.String())

	w = do(s, http.MethodGet, "/api/onboarding", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var state struct {
		Variant string `json:"variant"`
		Step    string `json:"step"`
		UserID  string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "a", state.Variant)
	assert.Equal(t, "profile", state.Step)
	assert.Equal(t, "u-7", state.UserID)

	metrics := do(s, http.MethodGet, "/metrics", "", nil).Body.String()
	assert.Contains(t, metrics, `ops_web_backend_requests_total{status="200",workflow="signup"} 1`)
}

func TestBackendErrorPassthrough(t *testing.T) {
	bubbleSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"statusCode":503,"body":{"message":"Bubble is down"}}`))
	}))
	defer bubbleSrv.Close()
	s := newTestServer(t, bubbleSrv.URL)

	w := do(s, http.MethodPost, "/api/company/join", `{"userId":"u-1","companyCode":"abc123"}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"Bubble is down"}`, w.Body.String())
}

func TestTutorialSessionLifecycle(t *testing.T) {
	s := newTestServer(t, "http://bubble.invalid")

	w := do(s, http.MethodPost, "/api/tutorial/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var view struct {
		SessionID string `json:"session_id"`
		Phase     string `json:"phase"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "jobBoardIntro", view.Phase)
	assert.Equal(t, 1, s.tutorials.ActiveSessions())

	w = do(s, http.MethodDelete, "/api/tutorial/sessions/"+view.SessionID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, s.tutorials.ActiveSessions())
}

func TestArchiveJobScheduledWithBucket(t *testing.T) {
	cfg := config.Default()
	cfg.Security.CookieSecret = "0123456789abcdef0123456789abcdef"
	cfg.AWS.Region = "us-east-1"
	cfg.AWS.AccessKeyID = "AKIDEXAMPLE"
	cfg.AWS.SecretAccessKey = "secret"
	cfg.Analytics.ArchiveBucket = "ops-analytics"
	cfg.Analytics.ArchiveSchedule = "not a schedule"

	s, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.close)

	err = s.rollup.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive")
}
