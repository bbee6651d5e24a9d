// Package testhost provides deterministic fakes for the host package's
// scheduling primitives (Clock, FrameScheduler, MicrotaskQueue, Timer), so
// tests can drive rAF coalescing, microtask batching, and debounce/throttle
// without real time or a real browser (spec §9 "configurable schedulers ...
// to permit deterministic testing"; ambient stack §10.4).
package testhost

import (
	"sort"
	"time"
)

// Clock is a manually advanced fake implementing host.Clock.
type Clock struct {
	now time.Time
}

// NewClock creates a Clock starting at the given time.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the fake's current time.
func (c *Clock) Now() time.Time { return c.now }

// Advance moves the fake clock forward by d. It does not fire Timer
// callbacks; call FireDue on a Timer sharing this Clock for that.
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// FrameScheduler is a fake implementing host.FrameScheduler: callbacks queue
// up and only run when the test calls RunFrame.
type FrameScheduler struct {
	pending []func()
}

// NewFrameScheduler creates an empty FrameScheduler fake.
func NewFrameScheduler() *FrameScheduler {
	return &FrameScheduler{}
}

// RequestFrame queues cb to run on the next RunFrame call.
func (f *FrameScheduler) RequestFrame(cb func()) {
	f.pending = append(f.pending, cb)
}

// Pending reports how many frame callbacks are currently queued.
func (f *FrameScheduler) Pending() int { return len(f.pending) }

// RunFrame runs every callback queued as of this call (callbacks queued by
// a running callback are deferred to the next RunFrame, matching "exactly
// one callback pending at a time" — spec §5).
func (f *FrameScheduler) RunFrame() {
	due := f.pending
	f.pending = nil
	for _, cb := range due {
		cb()
	}
}

// MicrotaskQueue is a fake implementing host.MicrotaskQueue: tasks queue up
// and run, in FIFO order including tasks enqueued by a running task, only
// when the test calls Drain.
type MicrotaskQueue struct {
	queue []func()
}

// NewMicrotaskQueue creates an empty MicrotaskQueue fake.
func NewMicrotaskQueue() *MicrotaskQueue {
	return &MicrotaskQueue{}
}

// Enqueue appends fn to the queue.
func (m *MicrotaskQueue) Enqueue(fn func()) {
	m.queue = append(m.queue, fn)
}

// Pending reports how many microtasks are currently queued.
func (m *MicrotaskQueue) Pending() int { return len(m.queue) }

// Drain runs every microtask in FIFO order, including ones enqueued by
// tasks that ran earlier in the same Drain call (spec §5 "Effects scheduled
// from within a flushing microtask are appended and run in the same flush").
func (m *MicrotaskQueue) Drain() {
	for len(m.queue) > 0 {
		fn := m.queue[0]
		m.queue = m.queue[1:]
		fn()
	}
}

// Timer is a fake implementing host.Timer, driven by an associated Clock:
// AfterFunc-scheduled callbacks fire when the test advances the clock past
// their deadline and calls FireDue.
type Timer struct {
	clock   *Clock
	pending []*timerEntry
	nextID  uint64
}

type timerEntry struct {
	id       uint64
	deadline time.Time
	fn       func()
	canceled bool
}

// NewTimer creates a Timer driven by clock.
func NewTimer(clock *Clock) *Timer {
	return &Timer{clock: clock}
}

// AfterFunc schedules fn to run once the clock reaches now+d, returning a
// cancel func.
func (t *Timer) AfterFunc(d time.Duration, fn func()) (cancel func()) {
	t.nextID++
	entry := &timerEntry{id: t.nextID, deadline: t.clock.Now().Add(d), fn: fn}
	t.pending = append(t.pending, entry)
	return func() { entry.canceled = true }
}

// FireDue runs every non-canceled timer whose deadline is at or before the
// clock's current time, earliest deadline first, then prunes them.
func (t *Timer) FireDue() {
	sort.SliceStable(t.pending, func(i, j int) bool {
		return t.pending[i].deadline.Before(t.pending[j].deadline)
	})
	now := t.clock.Now()
	var remaining []*timerEntry
	for _, entry := range t.pending {
		if entry.canceled {
			continue
		}
		if entry.deadline.After(now) {
			remaining = append(remaining, entry)
			continue
		}
		entry.fn()
	}
	t.pending = remaining
}

// Pending reports how many non-canceled timers are still outstanding.
func (t *Timer) Pending() int {
	count := 0
	for _, e := range t.pending {
		if !e.canceled {
			count++
		}
	}
	return count
}
