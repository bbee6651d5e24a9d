package core

import (
	"time"

	"github.com/domkit-go/domkit/host"
)

// scheduler implements the Filter & Scheduler component (spec §4.3): a
// per-type rate-limiting admission gate, an animation-frame coalescing
// queue, and user-controllable throttle/debounce helpers. It holds no lock
// of its own — callers run under Core's mutex, consistent with the
// single-threaded cooperative model of spec §5 (the mutex exists only to
// let devtools goroutines read Diagnostics safely, not to make dispatch
// concurrent).
type scheduler struct {
	clock  host.Clock
	frames host.FrameScheduler
	timers host.Timer

	maxThrottleRate float64 // events/sec for the default admission gate
	highFrequency   map[EventType]struct{}
	coalesced       map[EventType]struct{}

	lastAdmitted map[EventType]time.Time
	dropped      map[EventType]uint64

	coalescingQueue map[EventType]*host.NativeEvent
	coalescingOrder []EventType
	rafScheduled    bool

	throttleLast map[string]time.Time
	debounce     map[string]func()
}

func newScheduler(cfg Config) *scheduler {
	highFreq := make(map[EventType]struct{}, len(cfg.HighFrequencyEvents))
	for _, t := range cfg.HighFrequencyEvents {
		highFreq[t] = struct{}{}
	}
	coalesced := make(map[EventType]struct{}, len(cfg.CoalescedEvents))
	for _, t := range cfg.CoalescedEvents {
		coalesced[t] = struct{}{}
	}
	return &scheduler{
		clock:           cfg.Clock,
		frames:          cfg.FrameScheduler,
		timers:          cfg.Timer,
		maxThrottleRate: cfg.MaxThrottleRate,
		highFrequency:   highFreq,
		coalesced:       coalesced,
		lastAdmitted:    make(map[EventType]time.Time),
		dropped:         make(map[EventType]uint64),
		coalescingQueue: make(map[EventType]*host.NativeEvent),
		throttleLast:    make(map[string]time.Time),
		debounce:        make(map[string]func()),
	}
}

// admit applies the admission gate (spec §4.3 "Admission gate"): types
// outside the high-frequency set are rate-limited to maxThrottleRate/sec.
func (s *scheduler) admit(t EventType) bool {
	if _, highFreq := s.highFrequency[t]; highFreq {
		return true
	}
	if s.maxThrottleRate <= 0 {
		return true
	}
	minInterval := time.Duration(float64(time.Second) / s.maxThrottleRate)
	now := s.clock.Now()
	last, ok := s.lastAdmitted[t]
	if ok && now.Sub(last) < minInterval {
		s.dropped[t]++
		return false
	}
	s.lastAdmitted[t] = now
	return true
}

// isCoalesced reports whether t belongs to the fixed UI coalescing set.
func (s *scheduler) isCoalesced(t EventType) bool {
	_, ok := s.coalesced[t]
	return ok
}

// enqueueCoalesced stores native as the latest pending event for t,
// overwriting any earlier pending event of that type, and arms the frame
// callback if one is not already pending (spec §4.3 "Frame coalescing").
// onFrame is invoked on the animation frame with the drained events in
// insertion order.
func (s *scheduler) enqueueCoalesced(t EventType, native *host.NativeEvent, onFrame func(map[EventType]*host.NativeEvent, []EventType)) {
	if _, exists := s.coalescingQueue[t]; !exists {
		s.coalescingOrder = append(s.coalescingOrder, t)
	}
	s.coalescingQueue[t] = native

	if s.rafScheduled {
		return
	}
	s.rafScheduled = true
	s.frames.RequestFrame(func() {
		queue := s.coalescingQueue
		order := s.coalescingOrder
		s.coalescingQueue = make(map[EventType]*host.NativeEvent)
		s.coalescingOrder = nil
		s.rafScheduled = false
		onFrame(queue, order)
	})
}

// throttle reports whether an event of key should be emitted now, limiting
// to at most once per wait duration; keyed independently of the admission
// gate so user-controlled throttling composes with it (spec §4.3
// "Additional user-controllable helpers").
func (s *scheduler) throttle(key string, wait time.Duration) bool {
	now := s.clock.Now()
	last, ok := s.throttleLast[key]
	if ok && now.Sub(last) < wait {
		return false
	}
	s.throttleLast[key] = now
	return true
}

// debounceFire (re)arms a single-shot timer for key, canceling any
// previously pending one, so fn runs once wait after the last call for that
// key (spec §4.3 "debounce").
func (s *scheduler) debounceFire(key string, wait time.Duration, fn func()) {
	if cancel, ok := s.debounce[key]; ok {
		cancel()
	}
	s.debounce[key] = s.timers.AfterFunc(wait, func() {
		delete(s.debounce, key)
		fn()
	})
}

func (s *scheduler) droppedCount(t EventType) uint64 {
	return s.dropped[t]
}

func (s *scheduler) droppedSnapshot() map[EventType]uint64 {
	out := make(map[EventType]uint64, len(s.dropped))
	for k, v := range s.dropped {
		out[k] = v
	}
	return out
}
