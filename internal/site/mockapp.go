package site

import (
	"fmt"
	"strconv"
	"strings"

	g "maragu.dev/gomponents"
	c "maragu.dev/gomponents/components"
	. "maragu.dev/gomponents/html"

	"ops-web/ops-web-backend/internal/tutorial"
)

// Form field names posted by the mock app controls
const (
	fieldAction = "action"
	fieldValue  = "value"
	fieldCrew   = "crew"

	opBack = "back"
	opSkip = "skip"
)

// MockApp draws the simulated phone for one tutorial view
func MockApp(v tutorial.View) g.Node {
	return Div(Class("mock-phone"), Data("phase", string(v.Phase)), Data("screen", string(v.Visibility.Screen)),
		g.If(v.Visibility.Tooltip, tooltip(v)),
		Div(Class("mock-screen"), screen(v)),
		g.If(v.Visibility.TabBar, tabBar(v)),
	)
}

func screen(v tutorial.View) g.Node {
	switch v.Visibility.Screen {
	case tutorial.ScreenProjectForm:
		return projectForm(v)
	case tutorial.ScreenTaskForm:
		return taskForm(v)
	case tutorial.ScreenCalendar:
		return calendar(v)
	case tutorial.ScreenSummary:
		return summary(v)
	default:
		return jobBoard(v)
	}
}

func tooltip(v tutorial.View) g.Node {
	return Div(Class("mock-tooltip"),
		Span(Class("mock-step"), g.Textf("Step %d of %d", v.Step, v.TotalSteps)),
		H3(g.Text(v.Tooltip.Title)),
		P(g.Text(v.Tooltip.Body)),
	)
}

// actionForm posts a single simulated action back to the session
func actionForm(v tutorial.View, action string, class string, children ...g.Node) g.Node {
	return g.El("form", Method("post"), Action(fmt.Sprintf("/tutorial/%s/action", v.SessionID)), Class(class),
		Input(Type("hidden"), Name(fieldAction), Value(action)),
		g.Group(children),
	)
}

func expects(v tutorial.View, a tutorial.Action) bool {
	return !v.Completed && v.Expects == a
}

func jobBoard(v tutorial.View) g.Node {
	cards := tutorial.BoardFor(v)
	return Div(Class("mock-job-board"),
		H2(g.Text("Job Board")),
		Ul(Class("mock-cards"),
			g.Map(cards, func(p tutorial.MockProject) g.Node {
				card := g.Group{
					Span(Class("mock-card-name"), g.Text(p.Name)),
					Span(Class("mock-card-client"), g.Text(p.Client)),
					Span(Class("mock-card-status"), g.Text(p.Status)),
				}
				isNew := v.Visibility.NewCard && p.Name == cards[0].Name
				if isNew && expects(v, tutorial.ActionTapProjectCard) {
					return Li(Class("mock-card mock-card-new"), g.Attr("style", "border-color:"+p.Color),
						actionForm(v, string(tutorial.ActionTapProjectCard), "mock-card-tap",
							Button(Type("submit"), card),
						),
					)
				}
				return Li(c.Classes{"mock-card": true, "mock-card-new": isNew}, g.Attr("style", "border-color:"+p.Color), card)
			}),
		),
		g.If(v.Visibility.FAB, fab(v)),
	)
}

func fab(v tutorial.View) g.Node {
	if v.Visibility.MenuOpen {
		return Div(Class("mock-fab mock-fab-open"),
			Ul(Class("mock-fab-menu"),
				Li(actionForm(v, string(tutorial.ActionTapNewProject), "mock-fab-pick",
					Button(Type("submit"), Class("mock-fab-item"), g.Text("New Project")),
				)),
				Li(Class("mock-fab-item"), g.Text("New Client")),
				Li(Class("mock-fab-item"), g.Text("New Task")),
			),
		)
	}
	if v.Visibility.FABActive {
		return Div(Class("mock-fab mock-fab-active"),
			actionForm(v, string(tutorial.ActionTapFAB), "mock-fab-tap",
				Button(Type("submit"), Class("mock-fab-button"), g.Text("+")),
			),
		)
	}
	return Div(Class("mock-fab"),
		Button(Type("button"), Class("mock-fab-button"), Disabled(), g.Text("+")),
	)
}

func projectForm(v tutorial.View) g.Node {
	s := v.Selections
	return Div(Class("mock-project-form"),
		H2(g.Text("New Project")),

		Label(g.Text("Client")),
		g.If(expects(v, tutorial.ActionSelectClient),
			actionForm(v, string(tutorial.ActionSelectClient), "mock-field",
				Select(Name(fieldValue),
					g.Map(tutorial.DemoClients, func(client string) g.Node { return Option(Value(client), g.Text(client)) }),
				),
				Button(Type("submit"), g.Text("Select")),
			),
		),
		g.If(!expects(v, tutorial.ActionSelectClient), P(Class("mock-value"), g.Text(orDash(s.Client)))),

		Label(g.Text("Project name")),
		g.If(expects(v, tutorial.ActionEnterProjectName),
			actionForm(v, string(tutorial.ActionEnterProjectName), "mock-field",
				Input(Type("text"), Name(fieldValue), Placeholder(tutorial.DemoProjectName), Required()),
				Button(Type("submit"), g.Text("Next")),
			),
		),
		g.If(!expects(v, tutorial.ActionEnterProjectName), P(Class("mock-value"), g.Text(orDash(s.ProjectName)))),

		Div(Class("mock-tasks"),
			g.If(s.TaskType != "" && v.Phase.Index() >= tutorial.PhaseProjectFormComplete.Index(),
				P(Class("mock-task"), g.Textf("%s · %s · %s", s.TaskType, strings.Join(s.Crew, ", "), s.Date)),
			),
			controlButton(v, tutorial.ActionTapAddTask, "+ Add Task"),
		),
		controlButton(v, tutorial.ActionTapCreateProject, "Create Project"),
	)
}

func taskForm(v tutorial.View) g.Node {
	s := v.Selections
	return Div(Class("mock-task-form"),
		H2(g.Text("New Task")),

		Label(g.Text("Task type")),
		g.If(expects(v, tutorial.ActionSelectTaskType),
			actionForm(v, string(tutorial.ActionSelectTaskType), "mock-field",
				g.Map(tutorial.DemoTaskTypes, func(t tutorial.MockTaskType) g.Node {
					return Button(Type("submit"), Name(fieldValue), Value(t.Name), g.Attr("style", "background:"+t.Color), g.Text(t.Name))
				}),
			),
		),
		g.If(!expects(v, tutorial.ActionSelectTaskType), P(Class("mock-value"), g.Text(orDash(s.TaskType)))),

		Label(g.Text("Crew")),
		g.If(expects(v, tutorial.ActionSelectCrew),
			actionForm(v, string(tutorial.ActionSelectCrew), "mock-field",
				g.Map(tutorial.DemoCrew, func(name string) g.Node {
					return Label(Class("mock-check"),
						Input(Type("checkbox"), Name(fieldCrew), Value(name)),
						g.Text(name),
					)
				}),
				Button(Type("submit"), g.Text("Assign")),
			),
		),
		g.If(!expects(v, tutorial.ActionSelectCrew), P(Class("mock-value"), g.Text(orDash(strings.Join(s.Crew, ", "))))),

		Label(g.Text("Date")),
		g.If(expects(v, tutorial.ActionSelectDate),
			actionForm(v, string(tutorial.ActionSelectDate), "mock-field",
				Input(Type("date"), Name(fieldValue), Required()),
				Button(Type("submit"), g.Text("Set date")),
			),
		),
		g.If(!expects(v, tutorial.ActionSelectDate), P(Class("mock-value"), g.Text(orDash(s.Date)))),

		controlButton(v, tutorial.ActionTapTaskDone, "Done"),
	)
}

func calendar(v tutorial.View) g.Node {
	s := v.Selections
	month := v.Phase == tutorial.PhaseCalendarMonth
	label := "Week"
	if month {
		label = "Month"
	}
	return Div(c.Classes{"mock-calendar": true, "mock-calendar-month": month},
		H2(g.Text(label)),
		Div(Class("calendar-event"),
			Span(g.Text(orDash(s.Date))),
			Span(g.Text(s.TaskType)),
			Span(g.Text(s.ProjectName)),
			Span(g.Text(strings.Join(s.Crew, ", "))),
		),
	)
}

func summary(v tutorial.View) g.Node {
	return Div(Class("mock-summary"),
		H2(g.Text("Nice work")),
		Ul(
			Li(g.Textf("Created %q for %s", orDash(v.Selections.ProjectName), orDash(v.Selections.Client))),
			Li(g.Textf("Scheduled %s with %s", orDash(v.Selections.TaskType), orDash(strings.Join(v.Selections.Crew, ", ")))),
			Li(g.Text("Tracked it on the job board and calendar")),
		),
		g.If(v.Completed, A(Class("btn btn-primary"), Href("/signup"), g.Text("Create your account"))),
	)
}

func tabBar(v tutorial.View) g.Node {
	tab := func(t tutorial.Tab, label string) g.Node {
		active := v.Visibility.ActiveTab == t
		if t == tutorial.TabCalendar && expects(v, tutorial.ActionTapCalendarTab) {
			return actionForm(v, string(tutorial.ActionTapCalendarTab), "mock-tab mock-tab-pulse",
				Button(Type("submit"), g.Text(label)),
			)
		}
		return Span(c.Classes{"mock-tab": true, "mock-tab-active": active}, g.Text(label))
	}
	return Nav(Class("mock-tab-bar"),
		tab(tutorial.TabJobs, "Jobs"),
		tab(tutorial.TabCalendar, "Calendar"),
		tab(tutorial.TabCrew, "Crew"),
	)
}

// controlButton renders a tap target, live only while the phase expects it
func controlButton(v tutorial.View, a tutorial.Action, label string) g.Node {
	if !expects(v, a) {
		return Button(Type("button"), Class("mock-button"), Disabled(), g.Text(label))
	}
	return actionForm(v, string(a), "mock-control",
		Button(Type("submit"), Class("mock-button mock-button-pulse"), g.Text(label)),
	)
}

// controlsBar is the continue/back/skip bar under the phone
func controlsBar(v tutorial.View) g.Node {
	return Div(Class("tutorial-controls"),
		g.If(v.CanGoBack, actionForm(v, opBack, "tutorial-back", Button(Type("submit"), g.Text("Back")))),
		g.If(v.AllowContinue, actionForm(v, string(tutorial.ActionContinue), "tutorial-continue", Button(Type("submit"), Class("btn btn-primary"), g.Text("Continue")))),
		g.If(!v.Completed, actionForm(v, opSkip, "tutorial-skip", Button(Type("submit"), Class("btn btn-ghost"), g.Text("Skip tutorial")))),
	)
}

// autoRefresh reloads the page once an auto-advance phase is due
func autoRefresh(v tutorial.View) []g.Node {
	if v.AutoAdvanceMs <= 0 || v.Completed {
		return nil
	}
	secs := (v.AutoAdvanceMs + 999) / 1000
	return []g.Node{Meta(g.Attr("http-equiv", "refresh"), Content(strconv.FormatInt(secs, 10)))}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
