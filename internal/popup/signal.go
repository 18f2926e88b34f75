package popup

import (
	"sync"
	"time"
)

const idleTimeout = 30 * time.Second

// DwellTimer counts elapsed seconds since it was started. It never resets
// and has no upper bound.
type DwellTimer struct {
	mu      sync.Mutex
	sched   Scheduler
	seconds int
	timer   Timer
	stopped bool
}

func NewDwellTimer(sched Scheduler) *DwellTimer {
	d := &DwellTimer{sched: sched}
	d.timer = sched.AfterFunc(time.Second, d.tick)
	return d
}

func (d *DwellTimer) tick() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.seconds++
	d.timer = d.sched.AfterFunc(time.Second, d.tick)
}

func (d *DwellTimer) Seconds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seconds
}

func (d *DwellTimer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

// ScrollDepthTracker latches once the visitor has scrolled past half of the
// scrollable height. The latch is sticky: scrolling back up does not clear
// it.
type ScrollDepthTracker struct {
	mu      sync.Mutex
	reached bool
}

// Observe records one scroll event in page coordinates.
func (t *ScrollDepthTracker) Observe(scrollY, scrollHeight, viewportHeight float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reached {
		return
	}

	scrollable := scrollHeight - viewportHeight
	if scrollable <= 0 {
		// nothing to scroll, the whole page is in view
		t.reached = true
		return
	}

	if scrollY/scrollable*100 >= 50 {
		t.reached = true
	}
}

func (t *ScrollDepthTracker) Reached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reached
}

// ExitIntentDetector latches when the pointer leaves through the top edge
// of the viewport. Sticky for the session.
type ExitIntentDetector struct {
	mu       sync.Mutex
	detected bool
}

// PointerLeave records a pointer-leave event at the given vertical client
// coordinate.
func (d *ExitIntentDetector) PointerLeave(clientY int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if clientY <= 0 {
		d.detected = true
	}
}

func (d *ExitIntentDetector) Detected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detected
}

// IdleDetector reports whether the visitor has gone 30 seconds without
// activity. Unlike the other trackers it is not sticky: activity clears the
// idle flag and restarts the countdown.
type IdleDetector struct {
	mu      sync.Mutex
	sched   Scheduler
	idle    bool
	timer   Timer
	stopped bool
}

func NewIdleDetector(sched Scheduler) *IdleDetector {
	d := &IdleDetector{sched: sched}
	d.timer = sched.AfterFunc(idleTimeout, d.expire)
	return d
}

// Activity records a pointer movement, click, or keypress.
func (d *IdleDetector) Activity() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.idle = false
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.sched.AfterFunc(idleTimeout, d.expire)
}

func (d *IdleDetector) expire() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.idle = true
}

func (d *IdleDetector) Idle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.idle
}

func (d *IdleDetector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
