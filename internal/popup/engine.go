package popup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State is the engine's visibility state.
type State int

const (
	StateHidden State = iota
	StateVisible
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateVisible:
		return "visible"
	case StateSubmitted:
		return "submitted"
	default:
		return "hidden"
	}
}

const (
	triggerPollInterval  = time.Second
	dwellTriggerSeconds  = 15
	rotationInterval     = 30 * time.Second
	notNowRedisplayDelay = 5 * time.Second
	submittedHideDelay   = 4 * time.Second
	capIOTimeout         = 2 * time.Second
)

var ErrInvalidInput = errors.New("popup: input failed validation")

// Lead is the payload posted to the lead-capture collaborator on a
// successful submit.
type Lead struct {
	OfferID   string    `json:"offerId"`
	Value     string    `json:"value"`
	InputType InputType `json:"inputType"`
	Source    string    `json:"source"`
	Page      string    `json:"page"`
}

// LeadSink receives captured leads.
type LeadSink interface {
	SubmitLead(ctx context.Context, lead Lead) error
}

// Snapshot is what the host paints after every engine transition.
type Snapshot struct {
	State      State
	Offer      *Offer
	Input      string
	FieldError string
}

// Config wires an Engine. Scheduler, Caps and Leads are required.
type Config struct {
	Catalog []Offer
	Page    string

	Scheduler Scheduler
	Caps      *CapStore
	Leads     LeadSink
	Logger    *logrus.Logger

	// Render is called synchronously after every state change. It must not
	// call back into the Engine.
	Render func(Snapshot)

	// Now defaults to time.Now.
	Now func() time.Time
}

// Engine decides whether, which, and when to show a promotional overlay for
// one page session. It polls its behavioral trackers while hidden, rotates
// through the eligible offers while visible, and records the frequency cap
// on dismissal. Close releases every timer; the engine is unusable
// afterwards.
type Engine struct {
	mu sync.Mutex

	page     string
	eligible []Offer
	index    int

	sched  Scheduler
	caps   *CapStore
	leads  LeadSink
	logger *logrus.Logger
	render func(Snapshot)
	now    func() time.Time

	state      State
	input      string
	fieldError string

	dwell  *DwellTimer
	scroll *ScrollDepthTracker
	exit   *ExitIntentDetector
	idle   *IdleDetector

	pollTimer    Timer
	rotateTimer  Timer
	reentryTimer Timer
	hideTimer    Timer

	closed bool
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Scheduler == nil {
		return nil, errors.New("popup: scheduler is required")
	}
	if cfg.Caps == nil {
		return nil, errors.New("popup: cap store is required")
	}
	if cfg.Leads == nil {
		return nil, errors.New("popup: lead sink is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	e := &Engine{
		page:     cfg.Page,
		eligible: Eligible(cfg.Catalog, cfg.Page),
		sched:    cfg.Scheduler,
		caps:     cfg.Caps,
		leads:    cfg.Leads,
		logger:   cfg.Logger,
		render:   cfg.Render,
		now:      cfg.Now,
		state:    StateHidden,
		scroll:   &ScrollDepthTracker{},
		exit:     &ExitIntentDetector{},
	}
	e.dwell = NewDwellTimer(cfg.Scheduler)
	e.idle = NewIdleDetector(cfg.Scheduler)

	e.mu.Lock()
	e.armPollLocked()
	e.mu.Unlock()

	return e, nil
}

// Scroll forwards a scroll event to the depth tracker. Scrolling is not
// activity as far as the idle countdown is concerned; only pointer
// movement, clicks, and keypresses reset it.
func (e *Engine) Scroll(scrollY, scrollHeight, viewportHeight float64) {
	e.scroll.Observe(scrollY, scrollHeight, viewportHeight)
}

// PointerLeave forwards a pointer-leave event to the exit-intent detector.
func (e *Engine) PointerLeave(clientY int) {
	e.exit.PointerLeave(clientY)
}

// Activity forwards pointer movement, clicks, and keypresses to the idle
// detector.
func (e *Engine) Activity() {
	e.idle.Activity()
}

// SetInput updates the capture form's current text.
func (e *Engine) SetInput(v string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input = v
}

// Snapshot returns the current render state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CurrentOffer returns the offer the rotation index points at, or nil when
// no offer is eligible on this page.
func (e *Engine) CurrentOffer() *Offer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentOfferLocked()
}

// Submit validates the captured input against the current offer's declared
// shape and posts it to the lead sink. Shape failures surface inline and
// never reach the sink; sink failures keep the overlay visible with a
// retry message. Success moves to Submitted and schedules the return to
// Hidden, at which point the frequency cap is written.
func (e *Engine) Submit(ctx context.Context) error {
	e.mu.Lock()
	if e.closed || e.state != StateVisible {
		e.mu.Unlock()
		return nil
	}

	offer := *e.currentOfferLocked()
	value := e.input

	if !ValidInput(offer.InputType, value) {
		if offer.InputType == InputPhone {
			e.fieldError = "Please enter a valid phone number"
		} else {
			e.fieldError = "Please enter a valid email address"
		}
		e.renderLocked()
		e.mu.Unlock()
		return ErrInvalidInput
	}
	e.fieldError = ""
	e.mu.Unlock()

	err := e.leads.SubmitLead(ctx, Lead{
		OfferID:   offer.ID,
		Value:     value,
		InputType: offer.InputType,
		Source:    "popup",
		Page:      e.page,
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.state != StateVisible {
		return err
	}

	if err != nil {
		e.logger.WithError(err).WithField("offer", offer.ID).Error("lead submit failed")
		e.fieldError = "Something went wrong, please try again"
		e.renderLocked()
		return err
	}

	e.state = StateSubmitted
	e.stopTimerLocked(&e.rotateTimer)
	e.hideTimer = e.sched.AfterFunc(submittedHideDelay, e.submittedHide)
	e.renderLocked()
	return nil
}

// Dismiss handles explicit close, the Escape key, and backdrop clicks: hide
// immediately and write the frequency cap for the offer that was showing.
func (e *Engine) Dismiss(ctx context.Context) error {
	e.mu.Lock()
	if e.closed || e.state == StateHidden {
		e.mu.Unlock()
		return nil
	}
	offerID := e.currentOfferLocked().ID
	e.hideLocked()
	e.mu.Unlock()

	return e.writeCap(ctx, offerID)
}

// NotNow dismisses like Dismiss but additionally schedules a one-shot
// re-entry five seconds later showing the next offer in rotation. That
// re-entry deliberately bypasses the frequency cap.
func (e *Engine) NotNow(ctx context.Context) error {
	e.mu.Lock()
	if e.closed || e.state != StateVisible {
		e.mu.Unlock()
		return nil
	}
	offerID := e.currentOfferLocked().ID
	e.hideLocked()
	e.index = (e.index + 1) % len(e.eligible)
	e.stopTimerLocked(&e.reentryTimer)
	e.reentryTimer = e.sched.AfterFunc(notNowRedisplayDelay, e.reentryShow)
	e.mu.Unlock()

	return e.writeCap(ctx, offerID)
}

// Close releases every timer. Called on navigation away.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.stopTimerLocked(&e.pollTimer)
	e.stopTimerLocked(&e.rotateTimer)
	e.stopTimerLocked(&e.reentryTimer)
	e.stopTimerLocked(&e.hideTimer)
	e.dwell.Stop()
	e.idle.Stop()
}

// pollTick runs every second while hidden and fires the show transition
// when a behavioral trigger and the frequency cap both allow it.
func (e *Engine) pollTick() {
	e.mu.Lock()
	if e.closed || e.state != StateHidden {
		e.mu.Unlock()
		return
	}
	if len(e.eligible) == 0 || !e.triggered() {
		e.armPollLocked()
		e.mu.Unlock()
		return
	}
	offerID := e.currentOfferLocked().ID
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), capIOTimeout)
	defer cancel()
	record, err := e.caps.Load(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.state != StateHidden {
		return
	}
	if err != nil {
		// cap store unreachable, stay quiet rather than over-showing
		e.logger.WithError(err).Warn("frequency cap lookup failed")
		e.armPollLocked()
		return
	}
	if !record.Permits(offerID, e.now()) {
		e.armPollLocked()
		return
	}

	e.showLocked()
}

func (e *Engine) triggered() bool {
	return e.dwell.Seconds() >= dwellTriggerSeconds ||
		e.scroll.Reached() ||
		e.exit.Detected() ||
		e.idle.Idle()
}

// rotateTick advances to the next eligible offer, wrapping, without hiding
// the overlay.
func (e *Engine) rotateTick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.state != StateVisible {
		return
	}
	e.index = (e.index + 1) % len(e.eligible)
	e.input = ""
	e.fieldError = ""
	e.rotateTimer = e.sched.AfterFunc(rotationInterval, e.rotateTick)
	e.renderLocked()
}

// reentryShow is the deferred "not now" re-entry. It skips the frequency
// cap check on purpose.
func (e *Engine) reentryShow() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.state != StateHidden || len(e.eligible) == 0 {
		return
	}
	e.showLocked()
}

func (e *Engine) submittedHide() {
	e.mu.Lock()
	if e.closed || e.state != StateSubmitted {
		e.mu.Unlock()
		return
	}
	offerID := e.currentOfferLocked().ID
	e.hideLocked()
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), capIOTimeout)
	defer cancel()
	if err := e.writeCap(ctx, offerID); err != nil {
		e.logger.WithError(err).Warn("frequency cap write failed")
	}
}

func (e *Engine) showLocked() {
	e.state = StateVisible
	e.input = ""
	e.fieldError = ""
	e.stopTimerLocked(&e.rotateTimer)
	e.rotateTimer = e.sched.AfterFunc(rotationInterval, e.rotateTick)
	e.renderLocked()
}

func (e *Engine) hideLocked() {
	e.state = StateHidden
	e.input = ""
	e.fieldError = ""
	e.stopTimerLocked(&e.rotateTimer)
	e.stopTimerLocked(&e.hideTimer)
	e.armPollLocked()
	e.renderLocked()
}

func (e *Engine) armPollLocked() {
	e.stopTimerLocked(&e.pollTimer)
	e.pollTimer = e.sched.AfterFunc(triggerPollInterval, e.pollTick)
}

func (e *Engine) stopTimerLocked(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (e *Engine) currentOfferLocked() *Offer {
	if len(e.eligible) == 0 {
		return nil
	}
	offer := e.eligible[e.index]
	return &offer
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		State:      e.state,
		Offer:      e.currentOfferLocked(),
		Input:      e.input,
		FieldError: e.fieldError,
	}
}

func (e *Engine) renderLocked() {
	if e.render != nil {
		e.render(e.snapshotLocked())
	}
}

func (e *Engine) writeCap(ctx context.Context, offerID string) error {
	return e.caps.Save(ctx, CapRecord{ShownAt: e.now(), OfferID: offerID})
}
