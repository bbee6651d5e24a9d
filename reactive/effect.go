package reactive

import (
	"sync/atomic"

	"github.com/domkit-go/domkit/owner"
)

// EffectOptions configures CreateEffect.
type EffectOptions struct {
	// OwnerGroup ties this effect's lifetime to a Runtime.TeardownOwner call,
	// matching the Event Dispatcher's owner-group teardown (spec §5 "Owner-
	// group teardown cancels both handlers and effects in one operation").
	OwnerGroup owner.GroupID
}

// Effect is a subscribed side-effecting function (spec §3 "Effect Record").
// Grounded on the teacher's Effect (pkg/vango/effect.go): fn may return a
// cleanup closure, run before the next rerun and on Dispose, exactly as
// vango's effect.cleanup field works.
type Effect struct {
	id         uint64
	rt         *Runtime
	fn         func() func()
	cleanup    func()
	deps       []depEdge
	ownerGroup owner.GroupID
	active     atomic.Bool
	pending    atomic.Bool
}

// CreateEffect creates and immediately runs fn once to collect its initial
// dependencies (spec §4.5 "On creation, fn runs once under a 'current
// effect' slot"). fn may return a cleanup closure run before each rerun and
// on Dispose.
func CreateEffect(rt *Runtime, fn func() func(), opts EffectOptions) *Effect {
	e := &Effect{id: rt.reserveEffectID(), rt: rt, fn: fn, ownerGroup: opts.OwnerGroup}
	e.active.Store(true)
	rt.registerOwner(e)
	e.run()
	return e
}

// notify implements tracker: a dependency changed, so schedule a rerun
// (spec §4.5 "Writes subsequently trigger the effect").
func (e *Effect) notify() {
	if !e.active.Load() {
		return
	}
	e.rt.schedule(e)
}

// run executes the effect's cleanup (if any) from the previous run, then
// re-runs fn under fresh dependency tracking, clearing and rebuilding
// dependencies wholesale (spec §3 invariant, §4.5 "Each rerun clears and
// rebuilds the effect's dependencies").
func (e *Effect) run() {
	if !e.active.Load() {
		return
	}
	if e.cleanup != nil {
		prev := e.cleanup
		e.cleanup = nil
		e.safeCall("effect.cleanup", prev)
	}

	e.deps = withTracking(e, e.deps, func() {
		var cleanup func()
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.rt.report(ErrorContext{
						Context: "effect.panic",
						Data:    map[string]any{"effect_id": e.id},
						Err:     panicToError(r),
					})
				}
			}()
			cleanup = e.fn()
		}()
		e.cleanup = cleanup
	})
}

func (e *Effect) safeCall(context string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.rt.report(ErrorContext{
				Context: context,
				Data:    map[string]any{"effect_id": e.id},
				Err:     panicToError(r),
			})
		}
	}()
	fn()
}

// Dispose deactivates the effect, unsubscribes it from every dependency,
// and runs its pending cleanup (spec §5 "Cancellation": "Effects are
// canceled by calling their dispose"). A Dispose during a flush removes the
// effect from the pending set before it is reached because run() now checks
// e.active first.
func (e *Effect) Dispose() {
	if !e.active.CompareAndSwap(true, false) {
		return
	}
	for _, d := range e.deps {
		d.dep.unsubscribe(d.key, e)
	}
	e.deps = nil
	if e.cleanup != nil {
		prev := e.cleanup
		e.cleanup = nil
		e.safeCall("effect.cleanup", prev)
	}
	e.rt.unregisterOwner(e)
}

// ID returns the effect's identity, used in error reports and diagnostics.
func (e *Effect) ID() uint64 { return e.id }
