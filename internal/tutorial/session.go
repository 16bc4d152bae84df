package tutorial

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TransitionKind describes how a session moved between phases
type TransitionKind string

const (
	TransitionAdvance TransitionKind = "advance"
	TransitionAuto    TransitionKind = "auto"
	TransitionBack    TransitionKind = "back"
	TransitionSkip    TransitionKind = "skip"
)

// Transition is emitted to observers after every phase change
type Transition struct {
	SessionID uuid.UUID      `json:"session_id"`
	VisitorID string         `json:"visitor_id,omitempty"`
	Variant   string         `json:"variant"`
	Kind      TransitionKind `json:"kind"`
	From      Phase          `json:"from"`
	To        Phase          `json:"to"`
	Duration  time.Duration  `json:"-"`
	At        time.Time      `json:"at"`
	Seq       uint64         `json:"seq"`
	// State is the session as it was right after this transition
	State State `json:"-"`
}

// Recorded reports whether the transition appended to the duration log
func (t Transition) Recorded() bool {
	return t.Kind != TransitionBack
}

// Observer receives transitions. It is called outside the session lock.
type Observer func(s *Session, t Transition)

// StepDuration is one entry of the per-phase duration log
type StepDuration struct {
	Phase    Phase         `json:"phase"`
	Duration time.Duration `json:"-"`
}

// Selections are the simulated values the user picked in the mock forms
type Selections struct {
	Client      string   `json:"client"`
	ProjectName string   `json:"project_name"`
	TaskType    string   `json:"task_type"`
	Crew        []string `json:"crew"`
	Date        string   `json:"date"`
}

// State is a point-in-time copy of a session
type State struct {
	ID         uuid.UUID
	VisitorID  string
	Variant    string
	Phase      Phase
	Selections Selections
	StartedAt  time.Time
	Elapsed    time.Duration
	Durations  []StepDuration
	Closed     bool
	Seq        uint64
}

// Session is the state store of one tutorial run
type Session struct {
	ID        uuid.UUID
	VisitorID string
	Variant   string

	mu             sync.Mutex
	phase          Phase
	selections     Selections
	startedAt      time.Time
	phaseStartedAt time.Time
	durations      []StepDuration
	timer          Timer
	generation     uint64
	seq            uint64
	closed         bool

	clock     func() time.Time
	scheduler Scheduler
	observers []Observer
}

// SessionOption configures a session at creation
type SessionOption func(*Session)

func WithClock(clock func() time.Time) SessionOption {
	return func(s *Session) { s.clock = clock }
}

func WithScheduler(scheduler Scheduler) SessionOption {
	return func(s *Session) { s.scheduler = scheduler }
}

func WithObserver(o Observer) SessionOption {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

func WithVariant(variant string) SessionOption {
	return func(s *Session) { s.Variant = variant }
}

func WithVisitor(visitorID string) SessionOption {
	return func(s *Session) { s.VisitorID = visitorID }
}

// NewSession starts a session at the first phase
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		ID:        uuid.New(),
		clock:     time.Now,
		scheduler: SystemScheduler,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	s.startedAt = s.clock()
	s.enterLocked(FirstPhase())
	s.mu.Unlock()

	return s
}

// Phase returns the current phase
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Advance records the current phase duration and moves one phase forward.
// It is a no-op at the terminal phase or after Close.
func (s *Session) Advance() bool {
	s.mu.Lock()
	t, ok := s.advanceLocked(TransitionAdvance)
	s.mu.Unlock()
	if ok {
		s.notify(t)
	}
	return ok
}

// GoBack drops the last duration log entry and moves one phase back.
// It is a no-op at the first phase or after Close.
func (s *Session) GoBack() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	prev, ok := s.phase.Previous()
	if !ok {
		s.mu.Unlock()
		return false
	}
	if n := len(s.durations); n > 0 {
		s.durations = s.durations[:n-1]
	}
	t := s.transitionLocked(TransitionBack, prev, 0)
	s.enterLocked(prev)
	t = s.commitLocked(t)
	s.mu.Unlock()

	s.notify(t)
	return true
}

// Skip records the current phase duration and jumps to the completed phase
func (s *Session) Skip() bool {
	s.mu.Lock()
	if s.closed || s.phase.Terminal() {
		s.mu.Unlock()
		return false
	}
	d := s.recordLocked()
	t := s.transitionLocked(TransitionSkip, PhaseCompleted, d)
	s.enterLocked(PhaseCompleted)
	t = s.commitLocked(t)
	s.mu.Unlock()

	s.notify(t)
	return true
}

// Perform applies a simulated user action. The action only takes effect
// when the current phase expects it; anything else is ignored.
func (s *Session) Perform(action Action, value string) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}

	cfg := s.phase.Config()
	switch {
	case action == ActionContinue && cfg.AllowContinue:
	case action != ActionNone && action == cfg.Expects:
		if !s.applyLocked(action, value) {
			s.mu.Unlock()
			return false
		}
	default:
		s.mu.Unlock()
		return false
	}

	t, ok := s.advanceLocked(TransitionAdvance)
	s.mu.Unlock()
	if ok {
		s.notify(t)
	}
	return ok
}

func (s *Session) SetClient(client string) {
	s.mu.Lock()
	s.selections.Client = client
	s.mu.Unlock()
}

func (s *Session) SetProjectName(name string) {
	s.mu.Lock()
	s.selections.ProjectName = name
	s.mu.Unlock()
}

func (s *Session) SetTaskType(taskType string) {
	s.mu.Lock()
	s.selections.TaskType = taskType
	s.mu.Unlock()
}

func (s *Session) SetCrew(crew []string) {
	s.mu.Lock()
	s.selections.Crew = append([]string(nil), crew...)
	s.mu.Unlock()
}

func (s *Session) SetDate(date string) {
	s.mu.Lock()
	s.selections.Date = date
	s.mu.Unlock()
}

// Close cancels any pending auto-advance. No transitions happen afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.generation++
	s.stopTimerLocked()
}

// Snapshot copies the session state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() State {
	sel := s.selections
	sel.Crew = append([]string(nil), s.selections.Crew...)

	return State{
		ID:         s.ID,
		VisitorID:  s.VisitorID,
		Variant:    s.Variant,
		Phase:      s.phase,
		Selections: sel,
		StartedAt:  s.startedAt,
		Elapsed:    s.clock().Sub(s.startedAt),
		Durations:  append([]StepDuration(nil), s.durations...),
		Closed:     s.closed,
		Seq:        s.seq,
	}
}

func (s *Session) advanceLocked(kind TransitionKind) (Transition, bool) {
	if s.closed {
		return Transition{}, false
	}
	next, ok := s.phase.Next()
	if !ok {
		return Transition{}, false
	}
	d := s.recordLocked()
	t := s.transitionLocked(kind, next, d)
	s.enterLocked(next)
	return s.commitLocked(t), true
}

func (s *Session) recordLocked() time.Duration {
	d := s.clock().Sub(s.phaseStartedAt)
	s.durations = append(s.durations, StepDuration{Phase: s.phase, Duration: d})
	return d
}

func (s *Session) transitionLocked(kind TransitionKind, to Phase, d time.Duration) Transition {
	return Transition{
		SessionID: s.ID,
		VisitorID: s.VisitorID,
		Variant:   s.Variant,
		Kind:      kind,
		From:      s.phase,
		To:        to,
		Duration:  d,
		At:        s.clock(),
	}
}

// commitLocked numbers the transition and captures the state it produced, so
// observers running after the unlock never see a later state under an earlier number
func (s *Session) commitLocked(t Transition) Transition {
	s.seq++
	t.Seq = s.seq
	t.State = s.snapshotLocked()
	return t
}

func (s *Session) enterLocked(p Phase) {
	s.phase = p
	s.phaseStartedAt = s.clock()
	s.generation++
	s.stopTimerLocked()

	delay := p.Config().AutoAdvance
	if delay <= 0 {
		return
	}
	gen := s.generation
	s.timer = s.scheduler.AfterFunc(delay, func() { s.autoAdvance(gen) })
}

func (s *Session) autoAdvance(gen uint64) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	t, ok := s.advanceLocked(TransitionAuto)
	s.mu.Unlock()
	if ok {
		s.notify(t)
	}
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) applyLocked(action Action, value string) bool {
	value = strings.TrimSpace(value)
	switch action {
	case ActionSelectClient:
		if value == "" {
			return false
		}
		s.selections.Client = value
	case ActionEnterProjectName:
		if value == "" {
			return false
		}
		s.selections.ProjectName = value
	case ActionSelectTaskType:
		if value == "" {
			return false
		}
		s.selections.TaskType = value
	case ActionSelectCrew:
		crew := splitList(value)
		if len(crew) == 0 {
			return false
		}
		s.selections.Crew = crew
	case ActionSelectDate:
		if value == "" {
			return false
		}
		s.selections.Date = value
	}
	return true
}

func (s *Session) notify(t Transition) {
	for _, o := range s.observers {
		o(s, t)
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
