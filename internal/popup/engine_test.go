package popup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	leads []Lead
	err   error
}

func (f *fakeSink) SubmitLead(_ context.Context, lead Lead) error {
	if f.err != nil {
		return f.err
	}
	f.leads = append(f.leads, lead)
	return nil
}

type engineFixture struct {
	sched     *fakeScheduler
	kv        *fakeKV
	sink      *fakeSink
	caps      *CapStore
	base      time.Time
	snapshots []Snapshot
	engine    *Engine
}

func newEngineFixture(t *testing.T, catalog []Offer, page string) *engineFixture {
	t.Helper()

	f := &engineFixture{
		sched: newFakeScheduler(),
		kv:    newFakeKV(),
		sink:  &fakeSink{},
		base:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.caps = NewCapStore(f.kv, "popup:cap:visitor-1")

	engine, err := NewEngine(Config{
		Catalog:   catalog,
		Page:      page,
		Scheduler: f.sched,
		Caps:      f.caps,
		Leads:     f.sink,
		Render:    func(s Snapshot) { f.snapshots = append(f.snapshots, s) },
		Now:       func() time.Time { return f.base.Add(f.sched.now) },
	})
	require.NoError(t, err)

	f.engine = engine
	t.Cleanup(engine.Close)
	return f
}

func threeOffers() []Offer {
	return []Offer{
		{ID: "a", InputType: InputEmail, Priority: 3},
		{ID: "b", InputType: InputEmail, Priority: 2},
		{ID: "c", InputType: InputPhone, Priority: 1},
	}
}

func TestEngine_DwellTriggerShowsHighestPriorityOffer(t *testing.T) {
	f := newEngineFixture(t, DefaultCatalog(), "/test-preparation")

	f.sched.Advance(10 * time.Second)
	assert.Equal(t, StateHidden, f.engine.State())

	f.sched.Advance(6 * time.Second)
	assert.Equal(t, StateVisible, f.engine.State())
	require.NotNil(t, f.engine.CurrentOffer())
	assert.Equal(t, "ielts-mock-test", f.engine.CurrentOffer().ID)
}

func TestEngine_ExitIntentTriggersBeforeDwell(t *testing.T) {
	f := newEngineFixture(t, threeOffers(), "/")

	f.sched.Advance(5 * time.Second)
	assert.Equal(t, StateHidden, f.engine.State())

	f.engine.PointerLeave(0)
	f.sched.Advance(time.Second)
	assert.Equal(t, StateVisible, f.engine.State())
}

func TestEngine_ScrollLatchTriggers(t *testing.T) {
	f := newEngineFixture(t, threeOffers(), "/")

	f.engine.Scroll(1200, 3000, 900) // ~57% depth
	f.sched.Advance(2 * time.Second)
	assert.Equal(t, StateVisible, f.engine.State())
}

func TestEngine_NoEligibleOffersNeverShows(t *testing.T) {
	catalog := []Offer{{ID: "elsewhere", Priority: 5, Pages: []string{"/countries"}}}
	f := newEngineFixture(t, catalog, "/about")

	f.sched.Advance(2 * time.Minute)
	assert.Equal(t, StateHidden, f.engine.State())
	assert.Nil(t, f.engine.CurrentOffer())
}

func TestEngine_FrequencyCapBlanketWindow(t *testing.T) {
	f := newEngineFixture(t, threeOffers(), "/")
	require.NoError(t, f.caps.Save(context.Background(),
		CapRecord{ShownAt: f.base, OfferID: "some-other-offer"}))

	f.sched.Advance(time.Hour)
	assert.Equal(t, StateHidden, f.engine.State(), "no popup inside the two-hour window")

	f.sched.Advance(time.Hour + time.Minute)
	assert.Equal(t, StateVisible, f.engine.State(), "blanket window elapsed, different offer may show")
}

func TestEngine_FrequencyCapSameOfferWindow(t *testing.T) {
	f := newEngineFixture(t, threeOffers(), "/")
	require.NoError(t, f.caps.Save(context.Background(),
		CapRecord{ShownAt: f.base, OfferID: "a"}))

	f.sched.Advance(3 * time.Hour)
	assert.Equal(t, StateHidden, f.engine.State(), "offer a stays hidden for twelve hours")

	f.sched.Advance(10 * time.Hour)
	assert.Equal(t, StateVisible, f.engine.State())
}

func TestEngine_RotationWraps(t *testing.T) {
	f := newEngineFixture(t, threeOffers(), "/")

	f.sched.Advance(16 * time.Second)
	require.Equal(t, StateVisible, f.engine.State())
	assert.Equal(t, "a", f.engine.CurrentOffer().ID)

	f.sched.Advance(30 * time.Second)
	assert.Equal(t, "b", f.engine.CurrentOffer().ID)

	f.sched.Advance(30 * time.Second)
	assert.Equal(t, "c", f.engine.CurrentOffer().ID)

	f.sched.Advance(30 * time.Second)
	assert.Equal(t, "a", f.engine.CurrentOffer().ID, "rotation wraps back to the first offer")
	assert.Equal(t, StateVisible, f.engine.State(), "rotation never hides the overlay")
}

func TestEngine_SubmitInvalidInputStaysVisible(t *testing.T) {
	f := newEngineFixture(t, threeOffers(), "/")
	f.sched.Advance(16 * time.Second)
	require.Equal(t, StateVisible, f.engine.State())

	f.engine.SetInput("not-an-email")
	err := f.engine.Submit(context.Background())

	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, StateVisible, f.engine.State())
	assert.NotEmpty(t, f.engine.Snapshot().FieldError)
	assert.Empty(t, f.sink.leads, "invalid input never reaches the collaborator")
}

func TestEngine_SubmitSuccessScenario(t *testing.T) {
	f := newEngineFixture(t, DefaultCatalog(), "/test-preparation")

	f.sched.Advance(16 * time.Second)
	require.Equal(t, StateVisible, f.engine.State())

	f.engine.SetInput("student@example.com")
	require.NoError(t, f.engine.Submit(context.Background()))
	assert.Equal(t, StateSubmitted, f.engine.State())

	require.Len(t, f.sink.leads, 1)
	lead := f.sink.leads[0]
	assert.Equal(t, "ielts-mock-test", lead.OfferID)
	assert.Equal(t, "student@example.com", lead.Value)
	assert.Equal(t, InputEmail, lead.InputType)
	assert.Equal(t, "popup", lead.Source)
	assert.Equal(t, "/test-preparation", lead.Page)

	// thank-you view auto-dismisses and writes the frequency cap
	f.sched.Advance(submittedHideDelay)
	assert.Equal(t, StateHidden, f.engine.State())

	record, err := f.caps.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "ielts-mock-test", record.OfferID)
	assert.False(t, record.ShownAt.IsZero())
}

func TestEngine_SinkFailureKeepsVisible(t *testing.T) {
	f := newEngineFixture(t, threeOffers(), "/")
	f.sched.Advance(16 * time.Second)
	require.Equal(t, StateVisible, f.engine.State())

	f.sink.err = errors.New("lead api: 503")
	f.engine.SetInput("student@example.com")
	err := f.engine.Submit(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateVisible, f.engine.State())
	assert.Equal(t, "Something went wrong, please try again", f.engine.Snapshot().FieldError)

	// retry after the collaborator recovers
	f.sink.err = nil
	require.NoError(t, f.engine.Submit(context.Background()))
	assert.Equal(t, StateSubmitted, f.engine.State())
}

func TestEngine_DismissWritesCapAndStaysHidden(t *testing.T) {
	f := newEngineFixture(t, threeOffers(), "/")
	f.sched.Advance(16 * time.Second)
	require.Equal(t, StateVisible, f.engine.State())

	require.NoError(t, f.engine.Dismiss(context.Background()))
	assert.Equal(t, StateHidden, f.engine.State())

	record, err := f.caps.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "a", record.OfferID)

	f.sched.Advance(time.Hour)
	assert.Equal(t, StateHidden, f.engine.State(), "frequency cap holds after dismissal")
}

func TestEngine_NotNowReentersWithNextOffer(t *testing.T) {
	f := newEngineFixture(t, threeOffers(), "/")
	f.sched.Advance(16 * time.Second)
	require.Equal(t, StateVisible, f.engine.State())
	require.Equal(t, "a", f.engine.CurrentOffer().ID)

	require.NoError(t, f.engine.NotNow(context.Background()))
	assert.Equal(t, StateHidden, f.engine.State())

	// cap record was written, but the deferred re-entry bypasses it
	record, err := f.caps.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, record)

	f.sched.Advance(notNowRedisplayDelay)
	assert.Equal(t, StateVisible, f.engine.State())
	assert.Equal(t, "b", f.engine.CurrentOffer().ID, "re-entry shows the next offer in rotation")
}

func TestEngine_ScrollDoesNotResetIdleCountdown(t *testing.T) {
	f := newEngineFixture(t, threeOffers(), "/")

	f.sched.Advance(10 * time.Second)
	f.engine.Scroll(100, 3000, 900) // shallow, below the depth latch

	f.sched.Advance(19 * time.Second)
	assert.False(t, f.engine.idle.Idle(), "countdown still running at 29s")

	f.sched.Advance(2 * time.Second)
	assert.True(t, f.engine.idle.Idle(), "idle fires 30s after start, the scroll did not restart it")
}

func TestEngine_ActivityResetsIdleCountdown(t *testing.T) {
	f := newEngineFixture(t, threeOffers(), "/")

	f.sched.Advance(10 * time.Second)
	f.engine.Activity()

	f.sched.Advance(21 * time.Second)
	assert.False(t, f.engine.idle.Idle(), "countdown restarted at 10s, not yet expired at 31s")

	f.sched.Advance(10 * time.Second)
	assert.True(t, f.engine.idle.Idle())
}

func TestEngine_CapStoreErrorKeepsHidden(t *testing.T) {
	f := newEngineFixture(t, threeOffers(), "/")
	f.kv.err = errors.New("redis: connection refused")

	f.sched.Advance(30 * time.Second)
	assert.Equal(t, StateHidden, f.engine.State(), "unreachable cap store never shows a popup")

	// polling resumes deciding as soon as the store recovers
	f.kv.err = nil
	f.sched.Advance(2 * time.Second)
	assert.Equal(t, StateVisible, f.engine.State())
}

func TestEngine_CloseReleasesEveryTimer(t *testing.T) {
	f := newEngineFixture(t, threeOffers(), "/")
	f.sched.Advance(16 * time.Second)
	require.Equal(t, StateVisible, f.engine.State())

	f.engine.Close()
	f.sched.Advance(time.Minute)
	assert.Equal(t, 0, f.sched.pendingTimers())
}
