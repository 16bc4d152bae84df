package tutorial

import "time"

// Phase identifies one step of the interactive tutorial
type Phase string

const (
	PhaseJobBoardIntro          Phase = "jobBoardIntro"
	PhaseFABTap                 Phase = "fabTap"
	PhaseFABMenu                Phase = "fabMenu"
	PhaseProjectFormClient      Phase = "projectFormClient"
	PhaseProjectFormName        Phase = "projectFormName"
	PhaseProjectFormAddTask     Phase = "projectFormAddTask"
	PhaseTaskFormType           Phase = "taskFormType"
	PhaseTaskFormCrew           Phase = "taskFormCrew"
	PhaseTaskFormDate           Phase = "taskFormDate"
	PhaseTaskFormDone           Phase = "taskFormDone"
	PhaseProjectFormComplete    Phase = "projectFormComplete"
	PhaseJobBoardProjectCreated Phase = "jobBoardProjectCreated"
	PhaseJobBoardStatusUpdate   Phase = "jobBoardStatusUpdate"
	PhaseCalendarTab            Phase = "calendarTab"
	PhaseCalendarWeek           Phase = "calendarWeek"
	PhaseCalendarMonth          Phase = "calendarMonth"
	PhaseTutorialSummary        Phase = "tutorialSummary"
	PhaseCompleted              Phase = "completed"
)

// Screen is the mock app screen shown while a phase is active
type Screen string

const (
	ScreenJobBoard    Screen = "jobBoard"
	ScreenProjectForm Screen = "projectForm"
	ScreenTaskForm    Screen = "taskForm"
	ScreenCalendar    Screen = "calendar"
	ScreenSummary     Screen = "summary"
)

// Action is a simulated user action on one of the mock controls
type Action string

const (
	ActionNone             Action = ""
	ActionContinue         Action = "continue"
	ActionTapFAB           Action = "tapFab"
	ActionTapNewProject    Action = "tapNewProject"
	ActionSelectClient     Action = "selectClient"
	ActionEnterProjectName Action = "enterProjectName"
	ActionTapAddTask       Action = "tapAddTask"
	ActionSelectTaskType   Action = "selectTaskType"
	ActionSelectCrew       Action = "selectCrew"
	ActionSelectDate       Action = "selectDate"
	ActionTapTaskDone      Action = "tapTaskDone"
	ActionTapCreateProject Action = "tapCreateProject"
	ActionTapProjectCard   Action = "tapProjectCard"
	ActionTapCalendarTab   Action = "tapCalendarTab"
)

// Tooltip is the coach-mark copy shown over the mock app
type Tooltip struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PhaseConfig is the static configuration of a phase
type PhaseConfig struct {
	Phase         Phase         `json:"phase"`
	Screen        Screen        `json:"screen"`
	Tooltip       Tooltip       `json:"tooltip"`
	AllowContinue bool          `json:"allow_continue"`
	AutoAdvance   time.Duration `json:"-"`
	Expects       Action        `json:"expects,omitempty"`
}

// AutoAdvanceMs is the auto-advance delay in milliseconds, zero when the phase waits for the user.
func (c PhaseConfig) AutoAdvanceMs() int64 {
	return c.AutoAdvance.Milliseconds()
}

var phaseOrder = []Phase{
	PhaseJobBoardIntro,
	PhaseFABTap,
	PhaseFABMenu,
	PhaseProjectFormClient,
	PhaseProjectFormName,
	PhaseProjectFormAddTask,
	PhaseTaskFormType,
	PhaseTaskFormCrew,
	PhaseTaskFormDate,
	PhaseTaskFormDone,
	PhaseProjectFormComplete,
	PhaseJobBoardProjectCreated,
	PhaseJobBoardStatusUpdate,
	PhaseCalendarTab,
	PhaseCalendarWeek,
	PhaseCalendarMonth,
	PhaseTutorialSummary,
	PhaseCompleted,
}

var phaseConfigs = map[Phase]PhaseConfig{
	PhaseJobBoardIntro: {
		Screen:        ScreenJobBoard,
		Tooltip:       Tooltip{Title: "This is your job board", Body: "Every active project your crew is working on lives here."},
		AllowContinue: true,
	},
	PhaseFABTap: {
		Screen:  ScreenJobBoard,
		Tooltip: Tooltip{Title: "Create a project", Body: "Tap the + button to start a new project."},
		Expects: ActionTapFAB,
	},
	PhaseFABMenu: {
		Screen:  ScreenJobBoard,
		Tooltip: Tooltip{Title: "Start a project", Body: "Pick New Project from the menu."},
		Expects: ActionTapNewProject,
	},
	PhaseProjectFormClient: {
		Screen:  ScreenProjectForm,
		Tooltip: Tooltip{Title: "Pick a client", Body: "Choose who the work is for."},
		Expects: ActionSelectClient,
	},
	PhaseProjectFormName: {
		Screen:  ScreenProjectForm,
		Tooltip: Tooltip{Title: "Name the project", Body: "Give the job a name your crew will recognise."},
		Expects: ActionEnterProjectName,
	},
	PhaseProjectFormAddTask: {
		Screen:  ScreenProjectForm,
		Tooltip: Tooltip{Title: "Add a task", Body: "Projects are broken into tasks. Tap Add Task."},
		Expects: ActionTapAddTask,
	},
	PhaseTaskFormType: {
		Screen:  ScreenTaskForm,
		Tooltip: Tooltip{Title: "What kind of work?", Body: "Pick a task type."},
		Expects: ActionSelectTaskType,
	},
	PhaseTaskFormCrew: {
		Screen:  ScreenTaskForm,
		Tooltip: Tooltip{Title: "Assign your crew", Body: "Choose who is doing the work."},
		Expects: ActionSelectCrew,
	},
	PhaseTaskFormDate: {
		Screen:  ScreenTaskForm,
		Tooltip: Tooltip{Title: "Schedule it", Body: "Pick the day the task happens."},
		Expects: ActionSelectDate,
	},
	PhaseTaskFormDone: {
		Screen:  ScreenTaskForm,
		Tooltip: Tooltip{Title: "Save the task", Body: "Tap Done to add the task to the project."},
		Expects: ActionTapTaskDone,
	},
	PhaseProjectFormComplete: {
		Screen:  ScreenProjectForm,
		Tooltip: Tooltip{Title: "Create the project", Body: "Everything looks good. Tap Create."},
		Expects: ActionTapCreateProject,
	},
	PhaseJobBoardProjectCreated: {
		Screen:      ScreenJobBoard,
		Tooltip:     Tooltip{Title: "Project created", Body: "Your crew can see it right away."},
		AutoAdvance: 2500 * time.Millisecond,
	},
	PhaseJobBoardStatusUpdate: {
		Screen:  ScreenJobBoard,
		Tooltip: Tooltip{Title: "Track progress", Body: "Tap the project card to move it along."},
		Expects: ActionTapProjectCard,
	},
	PhaseCalendarTab: {
		Screen:  ScreenJobBoard,
		Tooltip: Tooltip{Title: "See the schedule", Body: "Tap the calendar tab."},
		Expects: ActionTapCalendarTab,
	},
	PhaseCalendarWeek: {
		Screen:        ScreenCalendar,
		Tooltip:       Tooltip{Title: "Your week at a glance", Body: "The task you just scheduled is on the calendar."},
		AllowContinue: true,
	},
	PhaseCalendarMonth: {
		Screen:      ScreenCalendar,
		Tooltip:     Tooltip{Title: "Plan further out", Body: "Switch to month view to plan ahead."},
		AutoAdvance: 3 * time.Second,
	},
	PhaseTutorialSummary: {
		Screen:        ScreenSummary,
		Tooltip:       Tooltip{Title: "That's OPS", Body: "Projects, tasks, crew and schedule in one place."},
		AllowContinue: true,
	},
	PhaseCompleted: {
		Screen:  ScreenSummary,
		Tooltip: Tooltip{Title: "You're ready", Body: "Create your account to get your crew on OPS."},
	},
}

var phaseIndex = func() map[Phase]int {
	idx := make(map[Phase]int, len(phaseOrder))
	for i, p := range phaseOrder {
		idx[p] = i
	}
	return idx
}()

// Phases returns the fixed phase order, first to terminal
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// FirstPhase is where every session starts
func FirstPhase() Phase {
	return phaseOrder[0]
}

// Valid reports whether p is one of the known phases
func (p Phase) Valid() bool {
	_, ok := phaseIndex[p]
	return ok
}

// Terminal reports whether p is the completed phase
func (p Phase) Terminal() bool {
	return p == PhaseCompleted
}

// Index is the position of p in the phase order, -1 for unknown phases
func (p Phase) Index() int {
	if i, ok := phaseIndex[p]; ok {
		return i
	}
	return -1
}

// Config returns the static configuration of p. Unknown phases yield the zero config.
func (p Phase) Config() PhaseConfig {
	cfg, ok := phaseConfigs[p]
	if !ok {
		return PhaseConfig{}
	}
	cfg.Phase = p
	return cfg
}

// Next returns the phase after p, false at the terminal phase
func (p Phase) Next() (Phase, bool) {
	i := p.Index()
	if i < 0 || i+1 >= len(phaseOrder) {
		return "", false
	}
	return phaseOrder[i+1], true
}

// Previous returns the phase before p, false at the first phase
func (p Phase) Previous() (Phase, bool) {
	i := p.Index()
	if i <= 0 {
		return "", false
	}
	return phaseOrder[i-1], true
}

// Registry returns every phase config in order
func Registry() []PhaseConfig {
	out := make([]PhaseConfig, 0, len(phaseOrder))
	for _, p := range phaseOrder {
		out = append(out, p.Config())
	}
	return out
}
