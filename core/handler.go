package core

import (
	"time"

	"github.com/domkit-go/domkit/host"
	"github.com/domkit-go/domkit/owner"
)

// HandlerID is the monotonically increasing opaque id returned by Register
// (spec §4.1: "Returns a monotonically increasing opaque id").
type HandlerID uint64

// Callback receives the wrapped event for one invocation of a registered
// handler.
type Callback func(*Event)

// Options configures a single Register call (spec §4.1 "options recognized").
type Options struct {
	// Capture, when true, registers for the capture phase instead of bubble.
	Capture bool
	// Once unregisters the handler after its first successful invocation
	// (spec §8: "even if the handler threw").
	Once bool
	// Passive overrides the type's default passive flag (spec §4.1 "Passive
	// flag"). Most callers leave this unset and rely on the per-type default.
	Passive *bool
	// Priority orders handlers within one (node, type, phase) bucket,
	// descending; ties preserve registration order (spec §4.1 "Ordering
	// contract").
	Priority int
	// OwnerGroup tags this handler for bulk teardown via UnregisterByOwner.
	OwnerGroup owner.GroupID
	// Selector, when non-empty, makes this a delegated registration: the
	// handler fires only when the nearest matching ancestor of the actual
	// target resolves (spec §4.1 point 4).
	Selector string
	// Throttle, when non-zero, limits this handler's event type to at most
	// one invocation per Throttle duration, dropping the rest (spec §4.3
	// "Additional user-controllable helpers ... per-type throttle"). Keyed by
	// event type, so it is shared across every handler registered for the
	// same type.
	Throttle time.Duration
	// Debounce, when non-zero, defers this handler's event type to fire once
	// after Debounce has elapsed with no further events of that type (spec
	// §4.3 "per-type debounce"). Keyed by event type, like Throttle.
	Debounce time.Duration
}

// handlerRecord is one entry in the global handler table (spec §3 "Handler
// Record").
type handlerRecord struct {
	id          HandlerID
	eventType   EventType
	callback    Callback
	target      host.Node
	windowOwned bool
	capture     bool
	once        bool
	passive     bool
	priority    int
	selector    string
	throttle    time.Duration
	debounce    time.Duration
	ownerGroup  owner.GroupID
	seq         uint64 // registration sequence, breaks priority ties
	createdAt   time.Time
}

func (h *handlerRecord) phase() phase {
	if h.capture {
		return phaseCapture
	}
	return phaseBubble
}

type phase uint8

const (
	phaseCapture phase = iota
	phaseBubble
)

func resolvePassive(t EventType, override *bool) bool {
	if override != nil {
		return *override
	}
	_, nonPassive := nonPassiveByDefault[t]
	return !nonPassive
}
