package poller

import "time"

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Scheduler arms one-shot callbacks. Tests substitute a manual scheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler schedules on the runtime timer.
type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

var _ Scheduler = SystemScheduler{}
