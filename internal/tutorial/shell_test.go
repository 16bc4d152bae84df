package tutorial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFABVisibleInTwoPhasesOnly(t *testing.T) {
	var withFAB []Phase
	for _, p := range Phases() {
		v := VisibilityFor(p)
		if v.FAB {
			withFAB = append(withFAB, p)
		}
		assert.Equal(t, v.FAB, v.FABMenu, p)
		assert.Equal(t, v.FABActive, p == PhaseFABTap, p)
		assert.Equal(t, v.MenuOpen, p == PhaseFABMenu, p)
		assert.True(t, v.TabBar, p)
		assert.True(t, v.Tooltip, p)
	}
	assert.Equal(t, []Phase{PhaseFABTap, PhaseFABMenu}, withFAB)
}

func TestScreensAreExclusive(t *testing.T) {
	screens := map[Screen]bool{
		ScreenJobBoard: true, ScreenProjectForm: true, ScreenTaskForm: true,
		ScreenCalendar: true, ScreenSummary: true,
	}
	for _, p := range Phases() {
		v := VisibilityFor(p)
		assert.True(t, screens[v.Screen], "phase %s has screen %q", p, v.Screen)
	}

	assert.Equal(t, TabCalendar, VisibilityFor(PhaseCalendarWeek).ActiveTab)
	assert.Equal(t, TabJobs, VisibilityFor(PhaseCalendarTab).ActiveTab)
}

func TestShellIgnoresInactiveControls(t *testing.T) {
	s, _, _ := newTestSession(t)
	sh := NewShell(s)

	assert.False(t, sh.Dispatch(ActionTapFAB, ""))
	assert.False(t, sh.Dispatch(Action("launchRockets"), ""))
	assert.False(t, sh.Dispatch(ActionTapCalendarTab, ""))
	assert.Equal(t, PhaseJobBoardIntro, s.Phase())

	require.True(t, sh.Dispatch(ActionContinue, ""))
	assert.False(t, sh.Dispatch(ActionTapNewProject, ""), "menu is closed until the FAB is tapped")
	require.True(t, sh.Dispatch(ActionTapFAB, ""))
	assert.False(t, sh.Dispatch(ActionTapFAB, ""))
	require.True(t, sh.Dispatch(ActionTapNewProject, ""))
	assert.Equal(t, ScreenProjectForm, sh.View().Visibility.Screen)
}

func TestViewReflectsState(t *testing.T) {
	s, clock, _ := newTestSession(t)
	sh := NewShell(s)

	v := sh.View()
	assert.Equal(t, s.ID.String(), v.SessionID)
	assert.Equal(t, "b", v.Variant)
	assert.Equal(t, 1, v.Step)
	assert.Equal(t, len(Phases()), v.TotalSteps)
	assert.True(t, v.AllowContinue)
	assert.False(t, v.CanGoBack)
	assert.Empty(t, v.Durations)

	clock.Add(1200 * time.Millisecond)
	require.True(t, sh.Dispatch(ActionContinue, ""))

	v = sh.View()
	assert.Equal(t, PhaseFABTap, v.Phase)
	assert.Equal(t, ActionTapFAB, v.Expects)
	assert.True(t, v.CanGoBack)
	assert.Equal(t, []StepRecord{{Phase: PhaseJobBoardIntro, DurationMs: 1200}}, v.Durations)
	assert.Equal(t, int64(1200), v.ElapsedMs)
}

func TestBoardShowsCreatedProject(t *testing.T) {
	s, _, _ := newTestSession(t)
	sh := NewShell(s)

	assert.Len(t, BoardFor(sh.View()), len(DemoBoard))

	s.SetClient("Riverbend HOA")
	s.SetProjectName("Fence")
	for s.Phase() != PhaseJobBoardProjectCreated {
		require.True(t, s.Advance())
	}

	board := BoardFor(sh.View())
	require.Len(t, board, len(DemoBoard)+1)
	assert.Equal(t, "Fence", board[0].Name)
	assert.Equal(t, "Accepted", board[0].Status)

	for s.Phase() != PhaseCalendarTab {
		require.True(t, s.Advance())
	}
	assert.Equal(t, "In Progress", BoardFor(sh.View())[0].Status)
}
