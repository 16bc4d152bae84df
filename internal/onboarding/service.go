package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ops-web/ops-web-backend/pkg/workflows"
)

var ErrInvalidStep = errors.New("invalid signup step transition")

// Service manages per-visitor onboarding state
type Service struct {
	repo   Repository
	steps  *workflows.StateMachine
	logger *zap.Logger
	now    func() time.Time

	// serialises read-modify-write per process; visitors only talk to one tab at a time
	mu sync.Mutex
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		steps:  workflows.NewSignupStateMachine(),
		logger: logger,
		now:    time.Now,
	}
}

// Load returns the visitor's state, creating it on first access
func (s *Service) Load(ctx context.Context, visitorID, variant string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx, visitorID, variant)
}

// Apply merges a patch into the visitor's state. A step change must follow
// the signup flow.
func (s *Service) Apply(ctx context.Context, visitorID string, patch Patch) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadLocked(ctx, visitorID, "")
	if err != nil {
		return nil, err
	}

	if patch.Step != nil && *patch.Step != st.Step {
		if !s.steps.CanTransition(st.Step, *patch.Step) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStep, st.Step, *patch.Step)
		}
	}

	patch.apply(st)
	st.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, st); err != nil {
		return nil, err
	}

	s.logger.Debug("Onboarding state updated",
		zap.String("visitor_id", visitorID),
		zap.String("step", st.Step))
	return st, nil
}

// Advance moves the visitor to step if the flow allows it, and otherwise
// leaves the step alone while still applying the rest of the patch. Signup
// handlers use it so a visitor revisiting an earlier form does not fail.
func (s *Service) Advance(ctx context.Context, visitorID, step string, patch Patch) (*State, error) {
	s.mu.Lock()
	current, err := s.loadLocked(ctx, visitorID, "")
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if s.steps.CanTransition(current.Step, step) {
		patch.Step = String(step)
	}
	return s.Apply(ctx, visitorID, patch)
}

// NextSteps returns the steps reachable from the visitor's current step
func (s *Service) NextSteps(st *State) []string {
	return s.steps.GetAllowedTransitions(st.Step)
}

func (s *Service) loadLocked(ctx context.Context, visitorID, variant string) (*State, error) {
	if visitorID == "" {
		return nil, errors.New("visitor id is required")
	}

	st, err := s.repo.Get(ctx, visitorID)
	if err == nil {
		if variant != "" && st.Variant == "" {
			st.Variant = variant
			if err := s.repo.Save(ctx, st); err != nil {
				return nil, err
			}
		}
		return st, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := s.now()
	st = &State{
		VisitorID: visitorID,
		Variant:   variant,
		Step:      s.steps.Initial(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Save(ctx, st); err != nil {
		return nil, err
	}

	s.logger.Info("Onboarding state created",
		zap.String("visitor_id", visitorID),
		zap.String("variant", variant))
	return st, nil
}
