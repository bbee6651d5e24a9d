package core

import "time"

// EventType identifies one member of the closed set of event types the
// dispatcher understands (spec §6). Registering any other string fails
// Register with ErrUnknownEventType — there is no open extension point,
// matching the teacher's closed protocol.EventType enumeration
// (pkg/protocol/event.go) adapted here to Go string constants instead of a
// wire-coded byte range, since this package defines no wire format (§6 "No
// wire formats").
type EventType string

// Element/document-targetable event types.
const (
	EventClick       EventType = "click"
	EventDblClick    EventType = "dblclick"
	EventMouseDown   EventType = "mousedown"
	EventMouseUp     EventType = "mouseup"
	EventMouseMove   EventType = "mousemove"
	EventMouseEnter  EventType = "mouseenter"
	EventMouseLeave  EventType = "mouseleave"
	EventMouseOver   EventType = "mouseover"
	EventMouseOut    EventType = "mouseout"
	EventContextMenu EventType = "contextmenu"
	EventWheel       EventType = "wheel"

	EventKeyDown  EventType = "keydown"
	EventKeyUp    EventType = "keyup"
	EventKeyPress EventType = "keypress"

	EventFocus   EventType = "focus"
	EventBlur    EventType = "blur"
	EventFocusIn EventType = "focusin"
	EventFocusOut EventType = "focusout"

	EventInput  EventType = "input"
	EventChange EventType = "change"
	EventSubmit EventType = "submit"
	EventPaste  EventType = "paste"

	EventTouchStart  EventType = "touchstart"
	EventTouchMove   EventType = "touchmove"
	EventTouchEnd    EventType = "touchend"
	EventTouchCancel EventType = "touchcancel"

	EventDragStart EventType = "dragstart"
	EventDragOver  EventType = "dragover"
	EventDragEnter EventType = "dragenter"
	EventDragLeave EventType = "dragleave"
	EventDrop      EventType = "drop"

	EventScroll EventType = "scroll"
	EventResize EventType = "resize"
)

// Window-only event types; Register coerces a non-window target to the
// window singleton for these (spec §8 boundary behavior).
const (
	EventPopState        EventType = "popstate"
	EventHashChange       EventType = "hashchange"
	EventLoad             EventType = "load"
	EventDOMContentLoaded EventType = "DOMContentLoaded"
	EventBeforeUnload     EventType = "beforeunload"
	EventOnline           EventType = "online"
	EventOffline          EventType = "offline"
	EventVisibilityChange EventType = "visibilitychange"
	EventStorage          EventType = "storage"
	EventMessage          EventType = "message"
)

var windowOnlyEventTypes = map[EventType]struct{}{
	EventPopState: {}, EventHashChange: {}, EventLoad: {}, EventDOMContentLoaded: {},
	EventBeforeUnload: {}, EventOnline: {}, EventOffline: {}, EventVisibilityChange: {},
	EventStorage: {}, EventMessage: {},
}

var knownEventTypes = buildKnownEventTypes()

func buildKnownEventTypes() map[EventType]struct{} {
	types := map[EventType]struct{}{
		EventClick: {}, EventDblClick: {}, EventMouseDown: {}, EventMouseUp: {},
		EventMouseMove: {}, EventMouseEnter: {}, EventMouseLeave: {}, EventMouseOver: {},
		EventMouseOut: {}, EventContextMenu: {}, EventWheel: {},
		EventKeyDown: {}, EventKeyUp: {}, EventKeyPress: {},
		EventFocus: {}, EventBlur: {}, EventFocusIn: {}, EventFocusOut: {},
		EventInput: {}, EventChange: {}, EventSubmit: {}, EventPaste: {},
		EventTouchStart: {}, EventTouchMove: {}, EventTouchEnd: {}, EventTouchCancel: {},
		EventDragStart: {}, EventDragOver: {}, EventDragEnter: {}, EventDragLeave: {}, EventDrop: {},
		EventScroll: {}, EventResize: {},
	}
	for t := range windowOnlyEventTypes {
		types[t] = struct{}{}
	}
	return types
}

// IsWindowOnly reports whether t may only target the window.
func (t EventType) IsWindowOnly() bool {
	_, ok := windowOnlyEventTypes[t]
	return ok
}

func (t EventType) isKnown() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// nonPassiveByDefault is the fixed small set of types registered as
// non-passive so preventDefault is honored (spec §4.1 "Passive flag").
// Everything else is registered passive.
var nonPassiveByDefault = map[EventType]struct{}{
	EventClick: {}, EventSubmit: {},
	EventKeyDown: {}, EventKeyUp: {}, EventKeyPress: {},
	EventTouchStart: {}, EventTouchMove: {},
	EventWheel: {},
	EventDragStart: {}, EventDragOver: {}, EventDragEnter: {}, EventDragLeave: {}, EventDrop: {},
	EventPaste: {},
}

// Modifiers is a bitmask snapshot of keyboard modifier keys held during an
// event, adapted from the teacher's protocol.Modifiers bitflags
// (pkg/protocol/event.go) without its wire encoding.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModMeta
)

func (m Modifiers) Has(flag Modifiers) bool { return m&flag != 0 }

// Kind distinguishes the tagged variants of Event (spec §9 "Ad-hoc duck
// typing on wrapped events → tagged record").
type Kind uint8

const (
	KindGeneric Kind = iota
	KindMouse
	KindKeyboard
	KindTouch
	KindPointer
)

// MouseData is the payload carried by mouse-kind events.
type MouseData struct {
	X, Y             float64
	ClientX, ClientY float64
	Button           int
	Modifiers        Modifiers
}

// KeyboardData is the payload carried by keyboard-kind events.
type KeyboardData struct {
	Key       string
	Code      string
	Repeat    bool
	Modifiers Modifiers
}

// TouchData is the payload carried by touch-kind events.
type TouchData struct {
	Touches   []TouchPoint
	Modifiers Modifiers
}

// TouchPoint is one contact point within a TouchData payload.
type TouchPoint struct {
	ID   int
	X, Y float64
}

// PointerData is the payload carried by pointer-kind events.
type PointerData struct {
	PointerID int
	X, Y      float64
	Primary   bool
	Modifiers Modifiers
}

// Event is the wrapped event handed to every registered callback (spec
// §4.1 point 5). It is a tagged sum: exactly one of Mouse, Keyboard, Touch,
// or Pointer is non-nil when Kind says so; Generic-kind events carry no
// typed payload.
type Event struct {
	Type           EventType
	Kind           Kind
	Modifiers      Modifiers
	Target         interface{ ID() string }
	CurrentTarget  interface{ ID() string }
	DelegateTarget interface{ ID() string }
	Timestamp      time.Time

	Mouse    *MouseData
	Keyboard *KeyboardData
	Touch    *TouchData
	Pointer  *PointerData

	native *wrappedNative
	ctx    *dispatchContext
}

type wrappedNative struct {
	preventDefault func()
}

// PreventDefault marks the event defaulted and forwards to the native event,
// if one is attached (spec §4.1 point 5).
func (e *Event) PreventDefault() {
	if e.native != nil && e.native.preventDefault != nil {
		e.native.preventDefault()
	}
}

// StopPropagation halts dispatch to remaining nodes along the propagation
// path, including suppressing the bubble phase if called during capture
// (spec §9 ambiguity resolution: "stopPropagation halts both remaining
// capture-phase and the subsequent bubble phase").
func (e *Event) StopPropagation() {
	if e.ctx != nil {
		e.ctx.stopped = true
	}
}

// StopImmediatePropagation stops further handlers within the current
// (node, type, phase) bucket and also halts propagation to remaining nodes,
// exactly as StopPropagation does.
func (e *Event) StopImmediatePropagation() {
	if e.ctx != nil {
		e.ctx.stopped = true
		e.ctx.immediateStopped = true
	}
}
