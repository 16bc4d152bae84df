package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ops-web/ops-web-backend/internal/bubble"
	"ops-web/ops-web-backend/internal/onboarding"
	"ops-web/ops-web-backend/pkg/workflows"
)

var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingUser        = errors.New("userId is required")
)

// Backend is the account API of the Bubble app
type Backend interface {
	SignUp(ctx context.Context, creds bubble.Credentials) (*bubble.AuthResult, error)
	Login(ctx context.Context, creds bubble.Credentials) (*bubble.AuthResult, error)
	ProviderLogin(ctx context.Context, req bubble.ProviderLogin) (*bubble.AuthResult, error)
	UpdateProfile(ctx context.Context, p bubble.Profile) error
}

// Progress records signup progress for a visitor
type Progress interface {
	Load(ctx context.Context, visitorID, variant string) (*onboarding.State, error)
	Advance(ctx context.Context, visitorID, step string, patch onboarding.Patch) (*onboarding.State, error)
}

type Service struct {
	backend  Backend
	progress Progress
	logger   *zap.Logger
}

func NewService(backend Backend, progress Progress, logger *zap.Logger) *Service {
	return &Service{backend: backend, progress: progress, logger: logger}
}

// SignUp creates the account and moves the visitor on to the profile step
func (s *Service) SignUp(ctx context.Context, visitorID string, creds bubble.Credentials) (*bubble.AuthResult, error) {
	res, err := s.backend.SignUp(ctx, creds)
	if err != nil {
		var be *bubble.Error
		if errors.As(err, &be) && (be.Code == "USED_EMAIL" || be.Status == http.StatusConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.record(ctx, visitorID, workflows.StepProfile, onboarding.Patch{
		UserID:    onboarding.String(res.UserID),
		AuthToken: onboarding.String(res.Token),
		Email:     onboarding.String(creds.Email),
	})
	return res, nil
}

// Login signs an existing user in. Any client-side rejection from the
// backend is reported as bad credentials.
func (s *Service) Login(ctx context.Context, visitorID string, creds bubble.Credentials) (*bubble.AuthResult, error) {
	res, err := s.backend.Login(ctx, creds)
	if err != nil {
		return nil, credentialsError(err)
	}

	s.record(ctx, visitorID, workflows.StepProfile, onboarding.Patch{
		UserID:    onboarding.String(res.UserID),
		AuthToken: onboarding.String(res.Token),
		Email:     onboarding.String(creds.Email),
	})
	return res, nil
}

func (s *Service) ProviderLogin(ctx context.Context, visitorID string, req bubble.ProviderLogin) (*bubble.AuthResult, error) {
	res, err := s.backend.ProviderLogin(ctx, req)
	if err != nil {
		return nil, credentialsError(err)
	}

	patch := onboarding.Patch{
		UserID:    onboarding.String(res.UserID),
		AuthToken: onboarding.String(res.Token),
	}
	if req.Email != "" {
		patch.Email = onboarding.String(req.Email)
	}
	s.record(ctx, visitorID, workflows.StepProfile, patch)
	return res, nil
}

// UpdateProfile saves name and phone. A missing user ID is taken from the
// visitor's onboarding state.
func (s *Service) UpdateProfile(ctx context.Context, visitorID string, p bubble.Profile) error {
	if p.UserID == "" && s.progress != nil {
		if st, err := s.progress.Load(ctx, visitorID, ""); err == nil {
			p.UserID = st.UserID
		}
	}
	if p.UserID == "" {
		return ErrMissingUser
	}

	if err := s.backend.UpdateProfile(ctx, p); err != nil {
		return err
	}

	s.record(ctx, visitorID, workflows.StepCompany, onboarding.Patch{
		FirstName: onboarding.String(p.FirstName),
		LastName:  onboarding.String(p.LastName),
		Phone:     onboarding.String(p.Phone),
	})
	return nil
}

// record saves progress. The backend call already succeeded, so a failure
// here is logged and not returned.
func (s *Service) record(ctx context.Context, visitorID, step string, patch onboarding.Patch) {
	if s.progress == nil || visitorID == "" {
		return
	}
	if _, err := s.progress.Advance(ctx, visitorID, step, patch); err != nil {
		s.logger.Warn("Failed to record signup progress",
			zap.String("visitor_id", visitorID),
			zap.String("step", step),
			zap.Error(err))
	}
}

func credentialsError(err error) error {
	var be *bubble.Error
	if errors.As(err, &be) && be.Status >= 400 && be.Status < 500 {
		return ErrInvalidCredentials
	}
	return err
}
