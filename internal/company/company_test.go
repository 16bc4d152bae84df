package company

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ops-web/ops-web-backend/internal/bubble"
	"ops-web/ops-web-backend/internal/onboarding"
	"ops-web/ops-web-backend/internal/sms"
	"ops-web/ops-web-backend/pkg/workflows"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) CreateCompany(ctx context.Context, req bubble.NewCompany) (*bubble.Company, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bubble.Company), args.Error(1)
}

func (m *MockBackend) JoinCompany(ctx context.Context, userID, code string) (*bubble.Company, error) {
	args := m.Called(ctx, userID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bubble.Company), args.Error(1)
}

func (m *MockBackend) RecordInvites(ctx context.Context, inv bubble.Invite) (*bubble.InviteResult, error) {
	args := m.Called(ctx, inv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bubble.InviteResult), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, email sms.Email) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

const testVisitor = "visitor-7"

type fixture struct {
	router   *gin.Engine
	backend  *MockBackend
	texts    *MockSender
	emails   *MockEmailSender
	progress *onboarding.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		backend:  new(MockBackend),
		texts:    new(MockSender),
		emails:   new(MockEmailSender),
		progress: onboarding.NewService(onboarding.NewMemoryRepository(), zap.NewNop()),
	}

	// put the visitor at the company step with a known user
	ctx := context.Background()
	_, err := f.progress.Advance(ctx, testVisitor, workflows.StepProfile, onboarding.Patch{UserID: onboarding.String("u-1")})
	require.NoError(t, err)
	_, err = f.progress.Advance(ctx, testVisitor, workflows.StepCompany, onboarding.Patch{})
	require.NoError(t, err)

	svc := NewService(f.backend, f.progress, f.texts, f.emails, Config{Links: sms.AppLinks{IOS: "https://ios"}}, zap.NewNop())
	f.router = gin.New()
	NewHandler(svc, func(*gin.Context) string { return testVisitor }, zap.NewNop()).RegisterRoutes(f.router.Group("/api"))
	return f
}

func (f *fixture) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) state(t *testing.T) *onboarding.State {
	t.Helper()
	st, err := f.progress.Load(context.Background(), testVisitor, "")
	require.NoError(t, err)
	return st
}

func TestCreateCompany(t *testing.T) {
	f := newFixture(t)
	f.backend.On("CreateCompany", mock.Anything, bubble.NewCompany{UserID: "u-1", Name: "Acme Roofing", Industry: "roofing", Size: "2-5"}).
		Return(&bubble.Company{ID: "c-1", Code: "ACME42"}, nil)

	w := f.post("/api/company/create", `{"name":" Acme Roofing ","industry":"roofing","size":"2-5"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"companyId":"c-1","companyCode":"ACME42"}`, w.Body.String())

	st := f.state(t)
	assert.Equal(t, workflows.StepInvite, st.Step)
	assert.Equal(t, "ACME42", st.CompanyCode)
	assert.Equal(t, "owner", st.Role)

	w = f.post("/api/company/create", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinCompany(t *testing.T) {
	f := newFixture(t)
	f.backend.On("JoinCompany", mock.Anything, "u-1", "ACME42").
		Return(&bubble.Company{ID: "c-1", Name: "Acme"}, nil)
	f.backend.On("JoinCompany", mock.Anything, "u-1", "NOPE").
		Return(nil, &bubble.Error{Status: http.StatusBadRequest, Message: "no company"})
	f.backend.On("JoinCompany", mock.Anything, "u-1", "BOOM").
		Return(nil, errors.New("timeout"))

	w := f.post("/api/company/join", `{"companyCode":"nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Invalid company code"}`, w.Body.String())

	w = f.post("/api/company/join", `{"companyCode":"boom"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())

	w = f.post("/api/company/join", `{"companyCode":" acme42 "}`)
	require.Equal(t, http.StatusOK, w.Code)

	st := f.state(t)
	assert.Equal(t, workflows.StepDownload, st.Step, "joining skips invites")
	assert.Equal(t, "member", st.Role)
}

func TestInvite(t *testing.T) {
	f := newFixture(t)
	f.backend.On("RecordInvites", mock.Anything, bubble.Invite{
		CompanyID: "c-9",
		Emails:    []string{"a@crew.co", "b@crew.co"},
		Phones:    []string{"+15550100199", "+15550100200"},
	}).Return(&bubble.InviteResult{CompanyName: "Acme", CompanyCode: "ACME42"}, nil)

	f.texts.On("Send", mock.Anything, "+15550100199", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "Acme") && strings.Contains(body, "ACME42")
	})).Return("SM1", nil)
	f.texts.On("Send", mock.Anything, "+15550100200", mock.Anything).Return("", errors.New("carrier down"))
	f.emails.On("SendEmail", mock.Anything, mock.MatchedBy(func(e sms.Email) bool {
		return len(e.To) == 1 && strings.Contains(e.HTML, "ACME42")
	})).Return("e-1", nil)

	w := f.post("/api/company/invite",
		`{"companyId":"c-9","emails":["A@crew.co","b@crew.co",""],"phones":["555 010 0199","(555) 010-0200"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"sent":3,"failed":1}`, w.Body.String())

	f.emails.AssertNumberOfCalls(t, "SendEmail", 2)
	f.texts.AssertNumberOfCalls(t, "Send", 2)
}

func TestInviteValidation(t *testing.T) {
	f := newFixture(t)

	w := f.post("/api/company/invite", `{"companyId":"c-9","phones":["12"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.post("/api/company/invite", `{"companyId":"c-9","emails":["not-an-email"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.post("/api/company/invite", `{"companyId":"c-9"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.post("/api/company/invite", `{"emails":["a@b.co"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "no company id given or stored")

	f.backend.AssertNotCalled(t, "RecordInvites", mock.Anything, mock.Anything)
}

func TestInviteBackendErrorPassesThrough(t *testing.T) {
	f := newFixture(t)
	f.backend.On("RecordInvites", mock.Anything, mock.Anything).
		Return(nil, &bubble.Error{Status: http.StatusForbidden, Message: "Not a company admin"})

	w := f.post("/api/company/invite", `{"companyId":"c-9","emails":["a@b.co"]}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Not a company admin"}`, w.Body.String())
	f.emails.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}
