package tutorial

import "time"

// Tab is a mock app bottom-bar tab
type Tab string

const (
	TabJobs     Tab = "jobs"
	TabCalendar Tab = "calendar"
	TabCrew     Tab = "crew"
)

// Visibility says which mock components the shell renders for a phase.
// Exactly one screen is shown; the tab bar and tooltip are always present.
type Visibility struct {
	Screen    Screen `json:"screen"`
	ActiveTab Tab    `json:"active_tab"`
	TabBar    bool   `json:"tab_bar"`
	Tooltip   bool   `json:"tooltip"`
	FAB       bool   `json:"fab"`
	FABActive bool   `json:"fab_active"`
	FABMenu   bool   `json:"fab_menu"`
	MenuOpen  bool   `json:"menu_open"`
	NewCard   bool   `json:"new_card"`
}

// VisibilityFor computes the visible components for p
func VisibilityFor(p Phase) Visibility {
	cfg := p.Config()
	v := Visibility{
		Screen:    cfg.Screen,
		ActiveTab: TabJobs,
		TabBar:    true,
		Tooltip:   true,
	}

	// the FAB and its menu exist only while a project is being started
	switch p {
	case PhaseFABTap:
		v.FAB = true
		v.FABMenu = true
		v.FABActive = true
	case PhaseFABMenu:
		v.FAB = true
		v.FABMenu = true
		v.MenuOpen = true
	}

	if cfg.Screen == ScreenCalendar {
		v.ActiveTab = TabCalendar
	}
	if p.Index() >= PhaseJobBoardProjectCreated.Index() && cfg.Screen == ScreenJobBoard {
		v.NewCard = true
	}
	return v
}

// StepRecord is a duration log entry as rendered to clients
type StepRecord struct {
	Phase      Phase `json:"phase"`
	DurationMs int64 `json:"duration_ms"`
}

// View is everything a renderer needs to draw the mock app for one moment
type View struct {
	SessionID     string       `json:"session_id"`
	Variant       string       `json:"variant"`
	Phase         Phase        `json:"phase"`
	Step          int          `json:"step"`
	TotalSteps    int          `json:"total_steps"`
	Tooltip       Tooltip      `json:"tooltip"`
	AllowContinue bool         `json:"allow_continue"`
	CanGoBack     bool         `json:"can_go_back"`
	Expects       Action       `json:"expects,omitempty"`
	AutoAdvanceMs int64        `json:"auto_advance_ms,omitempty"`
	Visibility    Visibility   `json:"visibility"`
	Selections    Selections   `json:"selections"`
	Durations     []StepRecord `json:"durations"`
	ElapsedMs     int64        `json:"elapsed_ms"`
	Completed     bool         `json:"completed"`
	Seq           uint64       `json:"seq"`
}

// Shell orchestrates the mock components around a session
type Shell struct {
	session *Session
}

func NewShell(session *Session) *Shell {
	return &Shell{session: session}
}

func (sh *Shell) Session() *Session {
	return sh.session
}

// Dispatch forwards a simulated action. Unknown actions and actions on
// controls that are not active in the current phase are ignored.
func (sh *Shell) Dispatch(action Action, value string) bool {
	if !action.Known() {
		return false
	}
	return sh.session.Perform(action, value)
}

// View renders the current session state
func (sh *Shell) View() View {
	return BuildView(sh.session.Snapshot())
}

// BuildView turns a snapshot into a View
func BuildView(st State) View {
	cfg := st.Phase.Config()
	records := make([]StepRecord, 0, len(st.Durations))
	for _, d := range st.Durations {
		records = append(records, StepRecord{Phase: d.Phase, DurationMs: d.Duration.Milliseconds()})
	}
	_, canBack := st.Phase.Previous()

	return View{
		SessionID:     st.ID.String(),
		Variant:       st.Variant,
		Phase:         st.Phase,
		Step:          st.Phase.Index() + 1,
		TotalSteps:    len(phaseOrder),
		Tooltip:       cfg.Tooltip,
		AllowContinue: cfg.AllowContinue,
		CanGoBack:     canBack && !st.Closed,
		Expects:       cfg.Expects,
		AutoAdvanceMs: cfg.AutoAdvanceMs(),
		Visibility:    VisibilityFor(st.Phase),
		Selections:    st.Selections,
		Durations:     records,
		ElapsedMs:     st.Elapsed.Round(time.Millisecond).Milliseconds(),
		Completed:     st.Phase.Terminal(),
		Seq:           st.Seq,
	}
}

var knownActions = map[Action]bool{
	ActionContinue:         true,
	ActionTapFAB:           true,
	ActionTapNewProject:    true,
	ActionSelectClient:     true,
	ActionEnterProjectName: true,
	ActionTapAddTask:       true,
	ActionSelectTaskType:   true,
	ActionSelectCrew:       true,
	ActionSelectDate:       true,
	ActionTapTaskDone:      true,
	ActionTapCreateProject: true,
	ActionTapProjectCard:   true,
	ActionTapCalendarTab:   true,
}

// Known reports whether a is one of the mock app actions
func (a Action) Known() bool {
	return knownActions[a]
}
