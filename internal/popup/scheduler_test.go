package popup

import "time"

// fakeScheduler drives virtual time on a single goroutine. Callbacks run
// inline from Advance, in deadline order, and may schedule further timers.
type fakeScheduler struct {
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	deadline time.Duration
	fn       func()
	stopped  bool
	fired    bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{}
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	t := &fakeTimer{deadline: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves virtual time forward, firing due timers as it goes. Dead
// timers are pruned so long advances stay cheap.
func (s *fakeScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		var next *fakeTimer
		live := s.timers[:0]
		for _, t := range s.timers {
			if t.stopped || t.fired {
				continue
			}
			live = append(live, t)
			if t.deadline <= target && (next == nil || t.deadline < next.deadline) {
				next = t
			}
		}
		s.timers = live
		if next == nil {
			break
		}
		s.now = next.deadline
		next.fired = true
		next.fn()
	}
	s.now = target
}

// pendingTimers reports how many unfired, unstopped timers remain.
func (s *fakeScheduler) pendingTimers() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
