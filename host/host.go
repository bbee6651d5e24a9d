// Package host defines the environment contract the event dispatcher and
// memory governor are built against, standing in for the DOM APIs a browser
// would supply (composedPath, closest, MutationObserver) and for the host's
// two extra scheduling planes (requestAnimationFrame, the microtask queue).
//
// Design Note (spec §9): "weak reference tables → arena + index" and
// "proxy-based reactivity → explicit observable wrappers" both point at the
// same idea — trade host magic (weak maps, proxies) for an explicit,
// strongly typed substitute. This package is that substitute for the DOM
// side; package reactive is the substitute for the proxy side.
package host

import "time"

// Kind distinguishes the three target flavors the dispatcher must reason
// about: ordinary elements, the document, and the window. Window-typed
// handlers are tagged and stored separately from the per-element index (spec
// §3: "window-targeted handlers excepted; they appear only in the global
// table tagged as window-owned").
type Kind uint8

const (
	KindElement Kind = iota
	KindDocument
	KindWindow
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindDocument:
		return "document"
	case KindWindow:
		return "window"
	default:
		return "unknown"
	}
}

// Node is the minimal surface the dispatcher needs from a DOM node: stable
// identity (for arena-style indexing instead of weak-keyed maps), a parent
// link (for propagation-path construction and selector matching), a
// liveness check (for the detach sweep), and selector matching (for
// delegation's nearest-ancestor search).
//
// A real browser binding wraps a js.Value; host/memdom wraps an in-memory
// tree for tests and for embedders with no browser at all.
type Node interface {
	// ID is a stable identifier for this node, valid for the node's
	// lifetime. It is the key used by the dispatcher's indices and caches —
	// never the Go pointer, so the same logical node reattached after a
	// detach-then-reattach keeps its identity.
	ID() string

	// Kind reports whether this node is an element, the document, or the
	// window.
	Kind() Kind

	// Parent returns the node's parent in the tree, or nil at the root.
	// The document has no Parent (nil); the window is never reached via
	// Parent — it is appended explicitly when building a propagation path.
	Parent() Node

	// IsConnected reports whether the node is currently part of the live
	// document tree. The detach sweep (spec §4.4) unregisters handlers
	// whose target answers false here.
	IsConnected() bool

	// Matches reports whether this node satisfies the given selector.
	// Returns an error for a syntactically invalid selector; the dispatcher
	// catches that error, reports it once per (target, selector), and
	// caches "no match" for the pair (spec §4.1, §7).
	Matches(selector string) (bool, error)
}

// Document is the root of a node tree. It additionally exposes mutation
// notifications so the Memory Governor can react to subtree removal instead
// of waiting for the next sweep interval (spec §4.4).
type Document interface {
	Node

	// Observe registers a callback invoked once per removed subtree (the
	// callback receives the root of the removed subtree, not every
	// descendant — deciding which descendants owned handlers is the
	// governor's job). The returned func cancels the subscription.
	Observe(cb func(MutationRecord)) (cancel func())
}

// MutationRecord describes one DOM mutation batch relevant to handler
// cleanup: the roots of any subtrees removed from the document.
type MutationRecord struct {
	RemovedRoots []Node
}

// NativeEvent is the host's event, wrapped just enough for the dispatcher to
// do its job without depending on a concrete browser type. Type-specific
// payloads (mouse coordinates, key, touch points, ...) travel in Data; the
// core package defines and interprets the concrete payload types for its
// closed event-type enumeration.
type NativeEvent struct {
	Type      string
	Target    Node
	Timestamp time.Time
	Data       any
	Defaulted  bool // true once PreventDefault has been called
	onPreventDefault func()
}

// NewNativeEvent builds a NativeEvent. onPreventDefault, if non-nil, is
// invoked the first time PreventDefault is called, forwarding to the real
// underlying platform event (spec §4.1 point 5: preventDefault "also
// forwards to the native event").
func NewNativeEvent(eventType string, target Node, ts time.Time, data any, onPreventDefault func()) *NativeEvent {
	return &NativeEvent{Type: eventType, Target: target, Timestamp: ts, Data: data, onPreventDefault: onPreventDefault}
}

// PreventDefault marks the event defaulted and forwards to the native event.
func (e *NativeEvent) PreventDefault() {
	if e.Defaulted {
		return
	}
	e.Defaulted = true
	if e.onPreventDefault != nil {
		e.onPreventDefault()
	}
}

// ComposedPathProvider is implemented by hosts that can authoritatively
// report an event's composed path (shadow-DOM aware). When a target does not
// implement it, the dispatcher falls back to walking Parent() (spec §4.1
// point 1).
type ComposedPathProvider interface {
	ComposedPath() []Node
}

// FrameScheduler abstracts requestAnimationFrame. Exactly one callback is
// ever pending at a time per spec §5 ("Animation-frame plane"); callers are
// responsible for only calling RequestFrame when no callback is already
// scheduled (the Filter & Scheduler's rAF-scheduled flag, spec §3).
type FrameScheduler interface {
	RequestFrame(cb func())
}

// MicrotaskQueue abstracts the host's microtask queue used to batch reactive
// effect flushes (spec §4.5, §5 "Microtask plane"). Tasks enqueued from
// within a draining task run in the same drain (FIFO), matching native
// microtask semantics.
type MicrotaskQueue interface {
	Enqueue(fn func())
}

// Clock abstracts time so throttle/debounce windows are deterministically
// testable (spec §9 "configurable schedulers ... to permit deterministic
// testing").
type Clock interface {
	Now() time.Time
}

// Timer abstracts a single-shot delayed callback, used by the debounce
// helper (spec §4.3).
type Timer interface {
	// AfterFunc schedules fn to run after d elapses and returns a cancel
	// function. Calling cancel before fn has run prevents it from running.
	AfterFunc(d time.Duration, fn func()) (cancel func())
}
