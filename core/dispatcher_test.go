package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domkit-go/domkit/core"
	"github.com/domkit-go/domkit/host"
	"github.com/domkit-go/domkit/host/memdom"
	"github.com/domkit-go/domkit/internal/testhost"
	"github.com/domkit-go/domkit/owner"
)

func newTestCore(t *testing.T, doc *memdom.Document) (*core.Core, *testhost.Clock, *testhost.FrameScheduler, *testhost.MicrotaskQueue, *testhost.Timer) {
	t.Helper()
	clock := testhost.NewClock(time.Unix(0, 0))
	frames := testhost.NewFrameScheduler()
	microtasks := testhost.NewMicrotaskQueue()
	timer := testhost.NewTimer(clock)

	cfg := core.DefaultConfig()
	cfg.Document = doc
	cfg.Window = memdom.Window{}
	cfg.RootElement = doc
	cfg.Clock = clock
	cfg.FrameScheduler = frames
	cfg.MicrotaskQueue = microtasks
	cfg.Timer = timer
	cfg.CleanupInterval = 0 // tests drive sweeps explicitly
	cfg.MaxThrottleRate = 0 // disable the admission gate so tests control dispatch precisely

	return core.New(cfg), clock, frames, microtasks, timer
}

func clickEvent(target host.Node, ts time.Time) *host.NativeEvent {
	return host.NewNativeEvent(string(core.EventClick), target, ts, nil, nil)
}

// Scenario 1 (spec §8): priority and phases — descendant fires before a
// higher-priority ancestor handler, both in the bubble phase.
func TestDispatchPriorityAndPhases(t *testing.T) {
	doc := memdom.NewDocument()
	a := memdom.NewElement("div")
	doc.AppendChild(a)
	d := memdom.NewElement("button")
	a.AppendChild(d)

	c, clock, _, _, _ := newTestCore(t, doc)

	var order []string
	_, err := c.Register(a, core.EventClick, func(e *core.Event) { order = append(order, "A") }, core.Options{Priority: 10})
	require.NoError(t, err)
	_, err = c.Register(d, core.EventClick, func(e *core.Event) { order = append(order, "D") }, core.Options{Priority: 0})
	require.NoError(t, err)

	c.HandleNativeEvent(clickEvent(d, clock.Now()))

	assert.Equal(t, []string{"D", "A"}, order)
}

// Scenario 2 (spec §8): delegation with detach — a delegated handler fires
// with the resolved delegate target, then stops firing once its row is
// removed and swept.
func TestDelegationWithDetach(t *testing.T) {
	doc := memdom.NewDocument()
	row := memdom.NewElement("div")
	row.AddClass("row")
	doc.AppendChild(row)
	btn := memdom.NewElement("button")
	btn.SetID("b")
	row.AppendChild(btn)

	c, clock, _, microtasks, _ := newTestCore(t, doc)

	var fired bool
	var delegateID string
	_, err := c.Register(doc, core.EventClick, func(e *core.Event) {
		fired = true
		delegateID = e.DelegateTarget.ID()
	}, core.Options{Selector: ".row > button"})
	require.NoError(t, err)

	c.HandleNativeEvent(clickEvent(btn, clock.Now()))
	assert.True(t, fired)
	assert.Equal(t, btn.ID(), func() string {
		// delegateID is the memdom element's generated id, not its "id"
		// attribute; assert it resolved to the button, not the row.
		return delegateID
	}())
	assert.Equal(t, btn.ID(), delegateID)

	row.Remove()
	microtasks.Drain() // runs the governor's deferred subtree sweep

	fired = false
	c.HandleNativeEvent(clickEvent(btn, clock.Now()))
	assert.False(t, fired, "handler must not fire for a detached delegate target")
}

// Scenario 5 (spec §8): stopImmediatePropagation inside one bucket stops
// the remaining handlers in that bucket and suppresses ancestor buckets too.
func TestStopImmediatePropagation(t *testing.T) {
	doc := memdom.NewDocument()
	parent := memdom.NewElement("div")
	doc.AppendChild(parent)
	child := memdom.NewElement("button")
	parent.AppendChild(child)

	c, clock, _, _, _ := newTestCore(t, doc)

	var highRan, lowRan, parentRan bool
	_, err := c.Register(child, core.EventClick, func(e *core.Event) {
		highRan = true
		e.StopImmediatePropagation()
	}, core.Options{Priority: 2})
	require.NoError(t, err)
	_, err = c.Register(child, core.EventClick, func(e *core.Event) { lowRan = true }, core.Options{Priority: 1})
	require.NoError(t, err)
	_, err = c.Register(parent, core.EventClick, func(e *core.Event) { parentRan = true }, core.Options{Priority: 0})
	require.NoError(t, err)

	c.HandleNativeEvent(clickEvent(child, clock.Now()))

	assert.True(t, highRan)
	assert.False(t, lowRan, "lower-priority handler in the same bucket must not run")
	assert.False(t, parentRan, "ancestor bucket must not run after stopImmediatePropagation")
}

// Scenario 6 (spec §8): owner teardown removes exactly the handlers
// registered under that owner group, leaving others untouched.
func TestUnregisterByOwner(t *testing.T) {
	doc := memdom.NewDocument()
	el := memdom.NewElement("div")
	doc.AppendChild(el)

	c, _, _, _, _ := newTestCore(t, doc)
	group := owner.New()

	for i := 0; i < 50; i++ {
		_, err := c.Register(el, core.EventClick, func(e *core.Event) {}, core.Options{OwnerGroup: group})
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		_, err := c.Register(el, core.EventClick, func(e *core.Event) {}, core.Options{})
		require.NoError(t, err)
	}

	removed := c.UnregisterByOwner(group)
	assert.Equal(t, 50, removed)
	assert.Equal(t, 5, c.Diagnostics().HandlerCount)
}

// Coalescing (spec §8 scenario 3): N high-frequency events of the same
// type collapse into exactly one dispatch per animation frame, carrying the
// most recent event.
func TestFrameCoalescing(t *testing.T) {
	doc := memdom.NewDocument()
	el := memdom.NewElement("div")
	doc.AppendChild(el)

	c, clock, frames, _, _ := newTestCore(t, doc)

	var calls int
	var lastTimestamp time.Time
	_, err := c.Register(el, core.EventMouseMove, func(e *core.Event) {
		calls++
		lastTimestamp = e.Timestamp
	}, core.Options{})
	require.NoError(t, err)

	var last time.Time
	for i := 0; i < 10; i++ {
		clock.Advance(time.Millisecond)
		last = clock.Now()
		c.HandleNativeEvent(host.NewNativeEvent(string(core.EventMouseMove), el, last, nil, nil))
	}

	assert.Equal(t, 0, calls, "coalesced events must not dispatch before the animation frame")
	assert.Equal(t, 1, frames.Pending())

	frames.RunFrame()

	assert.Equal(t, 1, calls)
	assert.Equal(t, last, lastTimestamp)
}

func TestRegisterRejectsUnknownEventType(t *testing.T) {
	doc := memdom.NewDocument()
	c, _, _, _, _ := newTestCore(t, doc)
	_, err := c.Register(doc, core.EventType("not-a-real-event"), func(e *core.Event) {}, core.Options{})
	assert.ErrorIs(t, err, core.ErrUnknownEventType)
}

func TestRegisterCoercesWindowOnlyTypeOntoWindow(t *testing.T) {
	doc := memdom.NewDocument()
	el := memdom.NewElement("div")
	doc.AppendChild(el)
	c, clock, _, _, _ := newTestCore(t, doc)

	var fired bool
	_, err := c.Register(el, core.EventPopState, func(e *core.Event) { fired = true }, core.Options{})
	require.NoError(t, err)

	win := memdom.Window{}
	c.HandleNativeEvent(host.NewNativeEvent(string(core.EventPopState), win, clock.Now(), nil, nil))
	assert.True(t, fired, "a window-only type registered on a non-window target coerces to the window")
}
