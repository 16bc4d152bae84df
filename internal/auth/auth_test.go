package auth

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
	"ops-web/ops-web-backend/pkg/workflows"
)

// MockBackend is a mock implementation of the Backend interface
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) SignUp(ctx context.Context, creds bubble.Credentials) (*bubble.AuthResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bubble.AuthResult), args.Error(1)
}

func (m *MockBackend) Login(ctx context.Context, creds bubble.Credentials) (*bubble.AuthResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bubble.AuthResult), args.Error(1)
}

func (m *MockBackend) ProviderLogin(ctx context.Context, req bubble.ProviderLogin) (*bubble.AuthResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bubble.AuthResult), args.Error(1)
}

func (m *MockBackend) UpdateProfile(ctx context.Context, p bubble.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

const testVisitor = "visitor-1"

type fixture struct {
	router   *gin.Engine
	backend  *MockBackend
	progress *onboarding.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		backend:  new(MockBackend),
		progress: onboarding.NewService(onboarding.NewMemoryRepository(), zap.NewNop()),
	}
	svc := NewService(f.backend, f.progress, zap.NewNop())
	h := NewHandler(svc, func(*gin.Context) string { return testVisitor }, zap.NewNop())

	f.router = gin.New()
	RegisterRoutes(f.router.Group("/api"), h)
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

func TestSignUp(t *testing.T) {
	f := newFixture(t)
	f.backend.On("SignUp", mock.Anything, bubble.Credentials{Email: "crew@ops.app", Password: "longenough"}).
		Return(&bubble.AuthResult{UserID: "u-1", Token: "tok"}, nil)

	w := f.post("/api/auth/signup", `{"email":"Crew@OPS.app","password":"longenough"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"userId":"u-1"}`, w.Body.String())

	st := f.state(t)
	assert.Equal(t, workflows.StepProfile, st.Step)
	assert.Equal(t, "u-1", st.UserID)
	assert.Equal(t, "tok", st.AuthToken)
	f.backend.AssertExpectations(t)
}

func TestSignUpErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		want   string
	}{
		{
			name:   "validation",
			body:   `{"email":"nope","password":"x"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "email taken",
			body:   `{"email":"a@b.co","password":"longenough"}`,
			err:    &bubble.Error{Workflow: "signup", Status: 400, Code: "USED_EMAIL", Message: "used"},
			status: http.StatusConflict,
			want:   `{"error":"An account with this email already exists"}`,
		},
		{
			name:   "status passthrough",
			body:   `{"email":"a@b.co","password":"longenough"}`,
			err:    &bubble.Error{Workflow: "signup", Status: 422, Message: "Password too weak"},
			status: 422,
			want:   `{"error":"Password too weak"}`,
		},
		{
			name:   "unexpected",
			body:   `{"email":"a@b.co","password":"longenough"}`,
			err:    errors.New("connection reset"),
			status: http.StatusInternalServerError,
			want:   `{"error":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.err != nil {
				f.backend.On("SignUp", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			w := f.post("/api/auth/signup", tt.body)
			assert.Equal(t, tt.status, w.Code)
			if tt.want != "" {
				assert.JSONEq(t, tt.want, w.Body.String())
			}
			assert.Equal(t, workflows.StepAccount, f.state(t).Step)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.backend.On("Login", mock.Anything, bubble.Credentials{Email: "a@b.co", Password: "pw"}).
		Return(&bubble.AuthResult{UserID: "u-2", Token: "t-2"}, nil).Once()
	f.backend.On("Login", mock.Anything, bubble.Credentials{Email: "a@b.co", Password: "wrong"}).
		Return(nil, &bubble.Error{Status: 400, Message: "We didn't find an account"}).Once()

	w := f.post("/api/auth/login", `{"email":"a@b.co","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"userId":"u-2","token":"t-2"}`, w.Body.String())

	w = f.post("/api/auth/login", `{"email":"a@b.co","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid email or password"}`, w.Body.String())
}

func TestProviderLogin(t *testing.T) {
	f := newFixture(t)
	f.backend.On("ProviderLogin", mock.Anything, mock.MatchedBy(func(req bubble.ProviderLogin) bool {
		return req.Provider == "apple" && req.IDToken == "id-token"
	})).Return(&bubble.AuthResult{UserID: "u-3"}, nil)

	w := f.post("/api/auth/provider", `{"provider":"apple","idToken":"id-token","email":"x@y.co"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "x@y.co", f.state(t).Email)

	w = f.post("/api/auth/provider", `{"provider":"myspace","idToken":"id-token"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	f.backend.On("SignUp", mock.Anything, mock.Anything).Return(&bubble.AuthResult{UserID: "u-4"}, nil)
	f.backend.On("UpdateProfile", mock.Anything, bubble.Profile{
		UserID: "u-4", FirstName: "Sam", LastName: "Lee", Phone: "+15550100199",
	}).Return(nil)

	w := f.post("/api/user/profile", `{"firstName":"Sam","lastName":"Lee"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "no user yet")

	require.Equal(t, http.StatusOK, f.post("/api/auth/signup", `{"email":"s@l.co","password":"longenough"}`).Code)

	w = f.post("/api/user/profile", `{"firstName":"Sam","lastName":"Lee","phone":"555 010 0199"}`)
	require.Equal(t, http.StatusOK, w.Code)

	st := f.state(t)
	assert.Equal(t, workflows.StepCompany, st.Step)
	assert.Equal(t, "Sam", st.FirstName)

	w = f.post("/api/user/profile", `{"firstName":"Sam","lastName":"Lee","phone":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.backend.AssertNumberOfCalls(t, "UpdateProfile", 1)
}
