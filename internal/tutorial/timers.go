package tutorial

import "time"

// Timer is a pending scheduled call that can be cancelled
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Sessions use it for auto-advance.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler schedules on the runtime timer wheel
var SystemScheduler Scheduler = systemScheduler{}
