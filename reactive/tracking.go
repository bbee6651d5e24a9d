// Package reactive implements the Reactive Core: observable wrapping with
// per-key dependency tracking, effect execution and microtask-batched
// flushing, lazy cached computed values, watches, and batching (spec §4.5).
//
// It deliberately tracks dependencies per property key rather than per
// whole value — where the teacher's Signal[T] (pkg/vango/signal.go) treats
// the whole wrapped value as one dependency edge, this package's Object and
// Array types record one edge per key/index, matching spec §3's Observable
// entity ("mapping from property key → set of effect records"). The
// effect/dispose/owner-teardown machinery is otherwise grounded on the
// teacher's Effect (pkg/vango/effect.go) and Owner (pkg/vango/owner.go).
package reactive

// tracker is anything that can be subscribed to a dependency and later
// notified when it changes: an Effect or a Computed (Design Note 9:
// "dependency tracking uses a thread-local current effect variable" —
// generalized here to any tracker, since a Computed both tracks its own
// reads and is itself trackable by outer effects).
type tracker interface {
	notify()
}

// dependency is a subscribable source of change keyed by a string: an
// Object field, an Array index/length, or a Computed's own value.
type dependency interface {
	subscribe(key string, t tracker)
	unsubscribe(key string, t tracker)
}

// depEdge is one (dependency, key) pair read during a tracker's last run.
type depEdge struct {
	dep dependency
	key string
}

// trackingStack holds the currently active trackers, innermost last. Reads
// that occur while a Computed recomputes under an outer Effect must credit
// both — the Computed via its own recompute, and (through the Computed's
// own dependency interface) the outer Effect via its separate read of
// Computed.Value(). This package is built for the single cooperative host
// thread described in spec §5; no synchronization guards this stack.
var trackingStack []*trackingScope

type trackingScope struct {
	owner tracker
	deps  []depEdge
}

// trackRead records a read of (dep, key) against the innermost active
// tracker, if any.
func trackRead(dep dependency, key string) {
	if len(trackingStack) == 0 {
		return
	}
	scope := trackingStack[len(trackingStack)-1]
	scope.deps = append(scope.deps, depEdge{dep: dep, key: key})
}

// withTracking runs fn with t as the active tracker, first unsubscribing t
// from every edge in prevEdges (the previous run's dependencies), then
// subscribing it to every edge read during fn. This is the "clear and
// rebuild wholesale" semantics spec §3 and §4.5 require: no edge from a
// stale read may survive a rerun.
func withTracking(t tracker, prevEdges []depEdge, fn func()) []depEdge {
	for _, e := range prevEdges {
		e.dep.unsubscribe(e.key, t)
	}

	scope := &trackingScope{owner: t}
	trackingStack = append(trackingStack, scope)
	func() {
		defer func() { trackingStack = trackingStack[:len(trackingStack)-1] }()
		fn()
	}()

	for _, e := range scope.deps {
		e.dep.subscribe(e.key, t)
	}
	return scope.deps
}

// Untracked runs fn without recording any dependency reads against the
// currently active tracker, mirroring the teacher's Untracked/UntrackedGet
// (pkg/vango/batch.go) for reads that must not create subscriptions.
func Untracked(fn func()) {
	trackingStack = append(trackingStack, &trackingScope{})
	defer func() { trackingStack = trackingStack[:len(trackingStack)-1] }()
	fn()
}
