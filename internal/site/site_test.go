package site

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ops-web/ops-web-backend/internal/onboarding"
	"ops-web/ops-web-backend/internal/sms"
	"ops-web/ops-web-backend/internal/tutorial"
)

type testSite struct {
	router     *gin.Engine
	tutorials  *tutorial.Service
	onboarding *onboarding.Service
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	tutorials := tutorial.NewService(tutorial.DefaultServiceConfig(), tutorial.NewLiveHub(logger, nil), logger)
	t.Cleanup(tutorials.Shutdown)
	progress := onboarding.NewService(onboarding.NewMemoryRepository(), logger)

	h := NewHandler(tutorials, progress,
		func(c *gin.Context) string { return c.DefaultQuery("v", "b") },
		func(c *gin.Context) string { return "visitor-1" },
		Config{VideoURL: "https://cdn.ops.app/walkthrough.mp4", Links: sms.AppLinks{IOS: "https://apps.apple.com/ops"}},
		logger,
	)
	r := gin.New()
	h.RegisterRoutes(r)
	return &testSite{router: r, tutorials: tutorials, onboarding: progress}
}

func (s *testSite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (s *testSite) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestLandingPage(t *testing.T) {
	s := newTestSite(t)

	w := s.get("/?v=a")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!doctype html>"))
	assert.Contains(t, body, "Run every job from your pocket")
	assert.Contains(t, body, `data-variant="a"`)

	st, err := s.onboarding.Load(context.Background(), "visitor-1", "")
	require.NoError(t, err)
	assert.Equal(t, "a", st.Variant)
}

func TestTutorialVideoVariant(t *testing.T) {
	s := newTestSite(t)

	w := s.get("/tutorial?v=a")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `src="https://cdn.ops.app/walkthrough.mp4"`)
	assert.Zero(t, s.tutorials.ActiveSessions())
}

func TestTutorialPagesRenderPlayerAndControls(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, VideoTutorialPage("a", "https://cdn.ops.app/walkthrough.mp4").Render(&buf))
	assert.Contains(t, buf.String(), `<video class="tutorial-player" src="https://cdn.ops.app/walkthrough.mp4" controls`)

	buf.Reset()
	v := tutorial.BuildView(tutorial.State{Phase: tutorial.PhaseFABTap, Variant: "b"})
	require.NoError(t, InteractiveTutorialPage(v).Render(&buf))
	html := buf.String()
	assert.Contains(t, html, `class="tutorial-controls"`)
	assert.Contains(t, html, `class="tutorial-back"`)
	assert.Contains(t, html, "Skip tutorial")
	assert.NotContains(t, html, `class="tutorial-continue"`)
}

func TestTutorialInteractiveVariant(t *testing.T) {
	s := newTestSite(t)

	w := s.get("/tutorial")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `data-phase="jobBoardIntro"`)
	assert.Contains(t, body, "Step 1 of 18")
	assert.Contains(t, body, "Kitchen Remodel")
	require.Equal(t, 1, s.tutorials.ActiveSessions())

	id := sessionIDFrom(t, body)

	w = s.post("/tutorial/"+id+"/action", url.Values{"action": {"continue"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/tutorial/"+id, w.Header().Get("Location"))

	body = s.get("/tutorial/" + id).Body.String()
	assert.Contains(t, body, `data-phase="fabTap"`)
	assert.Contains(t, body, `value="tapFab"`)

	// continue is not accepted while the FAB tap is expected
	s.post("/tutorial/"+id+"/action", url.Values{"action": {"continue"}})
	assert.Contains(t, s.get("/tutorial/"+id).Body.String(), `data-phase="fabTap"`)

	s.post("/tutorial/"+id+"/action", url.Values{"action": {"tapFab"}})
	body = s.get("/tutorial/" + id).Body.String()
	assert.Contains(t, body, `data-phase="fabMenu"`)
	assert.Contains(t, body, "New Project")
	assert.Contains(t, body, `value="tapNewProject"`)

	s.post("/tutorial/"+id+"/action", url.Values{"action": {"tapNewProject"}})
	body = s.get("/tutorial/" + id).Body.String()
	assert.Contains(t, body, `data-phase="projectFormClient"`)
	assert.Contains(t, body, "Henderson Residence")

	s.post("/tutorial/"+id+"/action", url.Values{"action": {"back"}})
	assert.Contains(t, s.get("/tutorial/"+id).Body.String(), `data-phase="fabMenu"`)

	s.post("/tutorial/"+id+"/action", url.Values{"action": {"skip"}})
	body = s.get("/tutorial/" + id).Body.String()
	assert.Contains(t, body, `data-phase="completed"`)
	assert.Contains(t, body, "Create your account")
	assert.NotContains(t, body, "Skip tutorial")
}

func TestTutorialCrewSelectionJoinsValues(t *testing.T) {
	s := newTestSite(t)
	session := s.tutorials.Create("b", "visitor-1")
	id := session.Snapshot().ID.String()

	for session.Phase() != tutorial.PhaseTaskFormCrew {
		require.True(t, session.Advance())
	}

	w := s.post("/tutorial/"+id+"/action", url.Values{"action": {"selectCrew"}, "crew": {"Jackson M.", "Priya S."}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	snap := session.Snapshot()
	assert.Equal(t, tutorial.PhaseTaskFormDate, snap.Phase)
	assert.Equal(t, []string{"Jackson M.", "Priya S."}, snap.Selections.Crew)
}

func TestTutorialUnknownSessionRedirects(t *testing.T) {
	s := newTestSite(t)

	w := s.get("/tutorial/00000000-0000-0000-0000-000000000001")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/tutorial", w.Header().Get("Location"))

	w = s.post("/tutorial/not-a-uuid/action", url.Values{"action": {"continue"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/tutorial", w.Header().Get("Location"))
}

func TestSignupPages(t *testing.T) {
	s := newTestSite(t)

	w := s.get("/signup")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/signup/account", w.Header().Get("Location"))

	_, err := s.onboarding.Advance(context.Background(), "visitor-1", "profile", onboarding.Patch{
		UserID:    onboarding.String("u-1"),
		FirstName: onboarding.String("Dana"),
	})
	require.NoError(t, err)

	w = s.get("/signup")
	assert.Equal(t, "/signup/profile", w.Header().Get("Location"))

	w = s.get("/signup/profile")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `data-endpoint="/api/user/profile"`)
	assert.Contains(t, body, `value="Dana"`)
	assert.Contains(t, body, `value="u-1"`)

	w = s.get("/signup/download")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="https://apps.apple.com/ops"`)
	assert.NotContains(t, w.Body.String(), "Google Play")

	assert.Equal(t, http.StatusNotFound, s.get("/signup/payment").Code)
}

func TestMockAppShowsOneScreen(t *testing.T) {
	for _, p := range tutorial.Phases() {
		v := tutorial.BuildView(tutorial.State{Phase: p, Variant: "b"})
		var buf bytes.Buffer
		require.NoError(t, MockApp(v).Render(&buf))

		html := buf.String()
		screens := 0
		for _, class := range []string{"mock-job-board", "mock-project-form", "mock-task-form", "mock-calendar", "mock-summary"} {
			if strings.Contains(html, `class="`+class) {
				screens++
			}
		}
		assert.Equal(t, 1, screens, "phase %s", p)
	}
}

func sessionIDFrom(t *testing.T, body string) string {
	t.Helper()
	const marker = `data-session="`
	i := strings.Index(body, marker)
	require.GreaterOrEqual(t, i, 0)
	rest := body[i+len(marker):]
	return rest[:strings.Index(rest, `"`)]
}

func TestStaticStylesheet(t *testing.T) {
	s := newTestSite(t)

	w := s.get("/static/site.css")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".mock-phone")
}
