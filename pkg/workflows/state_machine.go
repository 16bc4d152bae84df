package workflows

// Signup steps, in the order a visitor normally completes them
const (
	StepAccount  = "account"
	StepProfile  = "profile"
	StepCompany  = "company"
	StepInvite   = "invite"
	StepDownload = "download"
	StepDone     = "done"
)

// StateMachine enforces signup step transitions
type StateMachine struct {
	initial            string
	allowedTransitions map[string][]string
}

// NewSignupStateMachine creates the signup flow state machine
func NewSignupStateMachine() *StateMachine {
	return &StateMachine{
		initial: StepAccount,
		allowedTransitions: map[string][]string{
			StepAccount:  {StepProfile},
			StepProfile:  {StepCompany},
			StepCompany:  {StepInvite, StepDownload}, // joining an existing company skips invites
			StepInvite:   {StepDownload},
			StepDownload: {StepDone},
			StepDone:     {},
		},
	}
}

// Initial returns the first step
func (sm *StateMachine) Initial() string {
	return sm.initial
}

// Known reports whether step belongs to the machine
func (sm *StateMachine) Known(step string) bool {
	_, ok := sm.allowedTransitions[step]
	return ok
}

// CanTransition checks if a step transition is allowed. Staying on the
// current step is always allowed so a form can be resubmitted.
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	if from == to {
		return true
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next steps for a given step
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}
