package popup

import "time"

// Timer is a cancellable handle for a scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs a callback once after a delay. The engine and the
// behavioral trackers take it as a port so tests can drive virtual time
// instead of sleeping.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type realScheduler struct{}

// NewScheduler returns a Scheduler backed by time.AfterFunc.
func NewScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
