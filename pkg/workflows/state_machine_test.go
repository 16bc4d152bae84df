package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignupStateMachine(t *testing.T) {
	sm := NewSignupStateMachine()

	assert.Equal(t, StepAccount, sm.Initial())
	assert.True(t, sm.CanTransition(StepAccount, StepProfile))
	assert.True(t, sm.CanTransition(StepProfile, StepProfile))
	assert.True(t, sm.CanTransition(StepCompany, StepDownload))
	assert.False(t, sm.CanTransition(StepAccount, StepCompany))
	assert.False(t, sm.CanTransition(StepDone, StepAccount))
	assert.False(t, sm.CanTransition("bogus", StepProfile))

	assert.ElementsMatch(t, []string{StepInvite, StepDownload}, sm.GetAllowedTransitions(StepCompany))
	assert.Empty(t, sm.GetAllowedTransitions("bogus"))
	assert.True(t, sm.Known(StepDone))
	assert.False(t, sm.Known("bogus"))
}
