package core

import "errors"

// ErrUnknownEventType is returned by Register when the event type is not a
// member of the closed, supported enumeration (spec §6 "Supported event-type
// set is a fixed closed enumeration"). Callers should treat this as a
// programmer error: fix the call site, do not retry.
var ErrUnknownEventType = errors.New("core: unknown event type")

// ErrNilCallback is returned by Register when callback is nil. Every
// registration must carry a callback to invoke; there is no deferred-bind
// form.
var ErrNilCallback = errors.New("core: callback must not be nil")

// ErrInvalidTarget is returned by Register when target is nil for an
// element/document event type, or when a window-only event type is
// registered on a Core configured without a Window to coerce it onto (spec
// §8 "registering a window-only type with a non-window target coerces to
// window"; a nil target is coerced the same way).
var ErrInvalidTarget = errors.New("core: invalid registration target")

// ErrHandlerNotFound identifies an id that is not present in the global
// handler table, including ids that were already unregistered. Unregister
// does not return it; it reports that case by returning false.
var ErrHandlerNotFound = errors.New("core: handler not found")

// ErrCoreClosed is returned by Register when called after Close. The other
// public methods do not return it: HandleNativeEvent ignores events on a
// closed Core, and the Unregister family keeps working.
var ErrCoreClosed = errors.New("core: closed")
