package tutorial

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("tutorial session not found")

// ServiceConfig configures session lifetime
type ServiceConfig struct {
	SessionTTL    time.Duration
	SweepInterval time.Duration
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		SessionTTL:    30 * time.Minute,
		SweepInterval: time.Minute,
	}
}

// Service owns the live tutorial sessions
type Service struct {
	cache     *SessionCache
	live      *LiveHub
	scheduler Scheduler
	clock     func() time.Time
	observers []Observer
	logger    *zap.Logger
}

// ServiceOption customises a Service
type ServiceOption func(*Service)

func WithServiceScheduler(s Scheduler) ServiceOption {
	return func(svc *Service) { svc.scheduler = s }
}

func WithServiceClock(clock func() time.Time) ServiceOption {
	return func(svc *Service) { svc.clock = clock }
}

// WithTransitionObserver registers an observer on every session the service creates
func WithTransitionObserver(o Observer) ServiceOption {
	return func(svc *Service) { svc.observers = append(svc.observers, o) }
}

// NewService creates a new tutorial service
func NewService(cfg ServiceConfig, live *LiveHub, logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		live:      live,
		scheduler: SystemScheduler,
		clock:     time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = NewSessionCache(cfg.SessionTTL, cfg.SweepInterval, s.evicted)
	return s
}

// Create starts a new session for a visitor
func (s *Service) Create(variant, visitorID string) *Session {
	opts := []SessionOption{
		WithVariant(variant),
		WithVisitor(visitorID),
		WithClock(s.clock),
		WithScheduler(s.scheduler),
		WithObserver(s.publish),
	}
	for _, o := range s.observers {
		opts = append(opts, WithObserver(o))
	}

	session := NewSession(opts...)
	s.cache.Set(session)

	s.logger.Info("Tutorial session started",
		zap.String("session_id", session.ID.String()),
		zap.String("variant", variant))

	return session
}

// Get returns a live session
func (s *Service) Get(id uuid.UUID) (*Session, error) {
	session, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// View returns the current view of a session
func (s *Service) View(id uuid.UUID) (View, error) {
	session, err := s.Get(id)
	if err != nil {
		return View{}, err
	}
	return NewShell(session).View(), nil
}

// Dispatch applies a simulated action and reports whether it was accepted
func (s *Service) Dispatch(id uuid.UUID, action Action, value string) (View, bool, error) {
	session, err := s.Get(id)
	if err != nil {
		return View{}, false, err
	}
	shell := NewShell(session)
	accepted := shell.Dispatch(action, value)
	if !accepted {
		s.logger.Debug("Ignored tutorial action",
			zap.String("session_id", id.String()),
			zap.String("action", string(action)),
			zap.String("phase", string(session.Phase())))
	}
	return shell.View(), accepted, nil
}

// Back moves a session one phase back
func (s *Service) Back(id uuid.UUID) (View, bool, error) {
	session, err := s.Get(id)
	if err != nil {
		return View{}, false, err
	}
	moved := session.GoBack()
	return NewShell(session).View(), moved, nil
}

// Skip jumps a session to the completed phase
func (s *Service) Skip(id uuid.UUID) (View, bool, error) {
	session, err := s.Get(id)
	if err != nil {
		return View{}, false, err
	}
	moved := session.Skip()
	return NewShell(session).View(), moved, nil
}

// Watch streams a session's views to a websocket client, starting from view.
// A session closed before the subscription was registered is closed for the
// new subscriber too, since its final message has already gone out.
func (s *Service) Watch(w http.ResponseWriter, r *http.Request, view View) error {
	if s.live == nil {
		return errors.New("live updates are not enabled")
	}
	if err := s.live.Subscribe(w, r, view); err != nil {
		return err
	}
	id, err := uuid.Parse(view.SessionID)
	if err != nil {
		return fmt.Errorf("invalid session id: %w", err)
	}
	if _, err := s.Get(id); err != nil {
		s.live.CloseSession(id, view)
	}
	return nil
}

// Close unmounts a session: pending timers are cancelled and the session is dropped
func (s *Service) Close(id uuid.UUID) error {
	session, ok := s.cache.Delete(id)
	if !ok {
		return ErrSessionNotFound
	}
	session.Close()
	s.closed(session)
	return nil
}

// ActiveSessions returns the number of live sessions
func (s *Service) ActiveSessions() int {
	return s.cache.Size()
}

// Shutdown closes every session and live connection
func (s *Service) Shutdown() {
	s.cache.Stop()
	if s.live != nil {
		s.live.Close()
	}
}

func (s *Service) publish(session *Session, t Transition) {
	if s.live == nil {
		return
	}
	s.live.Publish(session.ID, LiveMessage{Type: LiveMessageTransition, View: BuildView(t.State), Timestamp: t.At})
}

func (s *Service) evicted(session *Session) {
	s.logger.Info("Tutorial session expired", zap.String("session_id", session.ID.String()))
	s.closed(session)
}

func (s *Service) closed(session *Session) {
	if s.live == nil {
		return
	}
	s.live.CloseSession(session.ID, NewShell(session).View())
}
