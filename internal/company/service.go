package company

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ops-web/ops-web-backend/internal/bubble"
	"ops-web/ops-web-backend/internal/onboarding"
	"ops-web/ops-web-backend/internal/sms"
	"ops-web/ops-web-backend/pkg/workflows"
)

var (
	ErrInvalidCode    = errors.New("invalid company code")
	ErrMissingUser    = errors.New("userId is required")
	ErrMissingCompany = errors.New("companyId is required")
	ErrNoRecipients   = errors.New("at least one email or phone is required")
)

// Backend is the company API of the Bubble app
type Backend interface {
	CreateCompany(ctx context.Context, req bubble.NewCompany) (*bubble.Company, error)
	JoinCompany(ctx context.Context, userID, code string) (*bubble.Company, error)
	RecordInvites(ctx context.Context, inv bubble.Invite) (*bubble.InviteResult, error)
}

// Progress records signup progress for a visitor
type Progress interface {
	Load(ctx context.Context, visitorID, variant string) (*onboarding.State, error)
	Advance(ctx context.Context, visitorID, step string, patch onboarding.Patch) (*onboarding.State, error)
}

type Config struct {
	Links sms.AppLinks
	// MaxParallelSends bounds concurrent SMS and email sends per invite
	MaxParallelSends int
}

type Service struct {
	backend  Backend
	progress Progress
	texts    sms.Sender
	emails   sms.EmailSender
	cfg      Config
	logger   *zap.Logger
}

func NewService(backend Backend, progress Progress, texts sms.Sender, emails sms.EmailSender, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxParallelSends <= 0 {
		cfg.MaxParallelSends = 4
	}
	return &Service{
		backend:  backend,
		progress: progress,
		texts:    texts,
		emails:   emails,
		cfg:      cfg,
		logger:   logger,
	}
}

// Create registers a new company owned by the user
func (s *Service) Create(ctx context.Context, visitorID string, req bubble.NewCompany) (*bubble.Company, error) {
	st := s.state(ctx, visitorID)
	if req.UserID == "" && st != nil {
		req.UserID = st.UserID
	}
	if req.UserID == "" {
		return nil, ErrMissingUser
	}

	company, err := s.backend.CreateCompany(ctx, req)
	if err != nil {
		return nil, err
	}

	s.record(ctx, visitorID, workflows.StepInvite, onboarding.Patch{
		CompanyID:   onboarding.String(company.ID),
		CompanyName: onboarding.String(req.Name),
		CompanyCode: onboarding.String(company.Code),
		Industry:    onboarding.String(req.Industry),
		CompanySize: onboarding.String(req.Size),
		Role:        onboarding.String("owner"),
	})
	return company, nil
}

// Join adds the user to the company behind code
func (s *Service) Join(ctx context.Context, visitorID, userID, code string) (*bubble.Company, error) {
	st := s.state(ctx, visitorID)
	if userID == "" && st != nil {
		userID = st.UserID
	}
	if userID == "" {
		return nil, ErrMissingUser
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	company, err := s.backend.JoinCompany(ctx, userID, code)
	if err != nil {
		var be *bubble.Error
		if errors.As(err, &be) && (be.Status == http.StatusBadRequest || be.Status == http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCode, code)
		}
		return nil, err
	}

	s.record(ctx, visitorID, workflows.StepDownload, onboarding.Patch{
		CompanyID:   onboarding.String(company.ID),
		CompanyName: onboarding.String(company.Name),
		CompanyCode: onboarding.String(code),
		Role:        onboarding.String("member"),
	})
	return company, nil
}

// InviteRequest lists the people to invite. Phones must already be in E.164.
type InviteRequest struct {
	CompanyID string
	Emails    []string
	Phones    []string
}

// InviteResult counts delivered and failed messages
type InviteResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Invite records the invitations in the backend, then texts every phone and
// emails every address. Individual delivery failures are counted, not
// returned.
func (s *Service) Invite(ctx context.Context, visitorID string, req InviteRequest) (*InviteResult, error) {
	st := s.state(ctx, visitorID)
	if req.CompanyID == "" && st != nil {
		req.CompanyID = st.CompanyID
	}
	if req.CompanyID == "" {
		return nil, ErrMissingCompany
	}
	if len(req.Emails)+len(req.Phones) == 0 {
		return nil, ErrNoRecipients
	}

	recorded, err := s.backend.RecordInvites(ctx, bubble.Invite{
		CompanyID: req.CompanyID,
		Emails:    req.Emails,
		Phones:    req.Phones,
	})
	if err != nil {
		return nil, err
	}

	companyName, code := recorded.CompanyName, recorded.CompanyCode
	if st != nil {
		if companyName == "" {
			companyName = st.CompanyName
		}
		if code == "" {
			code = st.CompanyCode
		}
	}

	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxParallelSends)

	text := sms.InviteMessage(companyName, code, s.cfg.Links)
	for _, phone := range req.Phones {
		g.Go(func() error {
			if _, err := s.texts.Send(gctx, phone, text); err != nil {
				failed.Add(1)
				s.logger.Warn("Failed to text invite", zap.String("phone", phone), zap.Error(err))
				return nil
			}
			sent.Add(1)
			return nil
		})
	}

	for _, addr := range req.Emails {
		g.Go(func() error {
			email, err := sms.InviteEmail([]string{addr}, companyName, code, s.cfg.Links)
			if err == nil {
				_, err = s.emails.SendEmail(gctx, email)
			}
			if err != nil {
				failed.Add(1)
				s.logger.Warn("Failed to email invite", zap.String("email", addr), zap.Error(err))
				return nil
			}
			sent.Add(1)
			return nil
		})
	}

	_ = g.Wait()

	s.record(ctx, visitorID, workflows.StepDownload, onboarding.Patch{})

	s.logger.Info("Invites sent",
		zap.String("company_id", req.CompanyID),
		zap.Int64("sent", sent.Load()),
		zap.Int64("failed", failed.Load()))
	return &InviteResult{Sent: int(sent.Load()), Failed: int(failed.Load())}, nil
}

func (s *Service) state(ctx context.Context, visitorID string) *onboarding.State {
	if s.progress == nil || visitorID == "" {
		return nil
	}
	st, err := s.progress.Load(ctx, visitorID, "")
	if err != nil {
		s.logger.Warn("Failed to load signup progress", zap.String("visitor_id", visitorID), zap.Error(err))
		return nil
	}
	return st
}

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
