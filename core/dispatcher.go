package core

import (
	"context"

	"github.com/domkit-go/domkit/host"
)

// HandleNativeEvent is the single entry point a host binding calls when its
// one native listener per type fires (spec §2 "native events → Dispatcher").
// It applies the admission gate, coalesces high-frequency UI events to the
// next animation frame, and otherwise dispatches immediately.
func (c *Core) HandleNativeEvent(native *host.NativeEvent) {
	t := EventType(native.Type)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if c.scheduler.isCoalesced(t) {
		c.scheduler.enqueueCoalesced(t, native, func(queue map[EventType]*host.NativeEvent, order []EventType) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.closed {
				return
			}
			for _, qt := range order {
				c.doDispatch(qt, queue[qt])
			}
		})
		c.mu.Unlock()
		return
	}

	if !c.scheduler.admit(t) {
		c.mu.Unlock()
		return
	}
	c.doDispatch(t, native)
	c.mu.Unlock()
}

// doDispatch runs the full propagation algorithm (spec §4.1 "Propagation
// algorithm"). Callers hold c.mu.
func (c *Core) doDispatch(t EventType, native *host.NativeEvent) {
	_, span := c.tracer().Start(context.Background(), "core.dispatch")
	defer span.End()

	path := c.propagationPathFor(native.Target)
	ctx := newDispatchContext(t, native.Target, path)

	// Capture phase: root toward target.
	for i := len(path) - 1; i >= 0 && !ctx.stopped; i-- {
		node := path[i]
		c.dispatchBucket(ctx, node, t, phaseCapture, native)
	}

	// Bubble phase: target toward root. A capture-phase stopPropagation also
	// suppresses this phase entirely (spec §9 ambiguity resolution).
	if !ctx.stopped {
		for i := 0; i < len(path) && !ctx.stopped; i++ {
			node := path[i]
			c.dispatchBucket(ctx, node, t, phaseBubble, native)
		}
	}
}

// dispatchBucket invokes every handler in the (node, type, phase) bucket, in
// priority order, resolving delegate targets as needed.
func (c *Core) dispatchBucket(ctx *dispatchContext, node host.Node, t EventType, ph phase, native *host.NativeEvent) {
	var recs []*handlerRecord
	if node.Kind() == host.KindWindow {
		recs = c.idx.windowHandlersFor(t, ph)
	} else {
		recs = c.idx.handlersAt(node.ID(), t, ph)
	}

	for _, rec := range recs {
		if ctx.immediateStopped || ctx.stopped {
			return
		}
		if ctx.markProcessed(rec.id) {
			continue
		}

		var delegateTarget host.Node
		if rec.selector != "" {
			matched, err := c.resolveDelegateCached(ctx.target, rec.target, rec.selector)
			if err != nil {
				c.report(ErrorContext{Context: "delegation.selector", Err: err,
					Data: map[string]any{"selector": rec.selector, "target": ctx.target.ID()}})
				continue
			}
			if matched == nil {
				continue
			}
			delegateTarget = matched
		}

		if rec.throttle > 0 && !c.scheduler.throttle(string(rec.eventType), rec.throttle) {
			continue
		}

		evt := c.buildEvent(rec, native, ctx, node, delegateTarget)

		if rec.debounce > 0 {
			c.scheduler.debounceFire(string(rec.eventType), rec.debounce, func() {
				c.mu.Lock()
				defer c.mu.Unlock()
				if c.closed {
					return
				}
				c.invoke(rec, evt)
				if rec.once {
					c.idx.remove(rec.id)
				}
			})
			continue
		}

		c.invoke(rec, evt)

		if rec.once {
			c.idx.remove(rec.id)
		}
	}
}

// resolveDelegateCached wraps resolveDelegateTarget with the selector match
// cache (spec §4.1 point 4, §3 "Selector Match Cache").
func (c *Core) resolveDelegateCached(target, delegationRoot host.Node, selector string) (host.Node, error) {
	if entry, ok := c.idx.lookupMatch(target.ID(), selector); ok {
		return entry.matched, nil
	}
	matched, err := resolveDelegateTarget(target, delegationRoot, selector)
	if err != nil {
		c.idx.storeMatch(target.ID(), selector, matchEntry{ok: false})
		return nil, err
	}
	c.idx.storeMatch(target.ID(), selector, matchEntry{matched: matched, ok: matched != nil})
	return matched, nil
}

// invoke calls rec's callback, recovering a panic and routing it to the
// error reporter without aborting the remaining dispatch (spec §4.1
// "Failure semantics", §7 "Handler exception").
func (c *Core) invoke(rec *handlerRecord, evt *Event) {
	defer func() {
		if r := recover(); r != nil {
			c.report(ErrorContext{
				Context: "handler.panic",
				Data:    map[string]any{"handler_id": uint64(rec.id), "type": string(rec.eventType), "target": rec.target.ID()},
				Err:     panicToError(r),
			})
		}
	}()
	rec.callback(evt)
}

func (c *Core) propagationPathFor(target host.Node) []host.Node {
	if cached, ok := c.pathCache[target.ID()]; ok {
		return cached
	}
	path := buildPropagationPath(target, c.doc, c.window)
	c.pathCache[target.ID()] = path
	return path
}

func (c *Core) buildEvent(rec *handlerRecord, native *host.NativeEvent, ctx *dispatchContext, currentTarget, delegateTarget host.Node) *Event {
	evt := &Event{
		Type:           rec.eventType,
		Timestamp:      native.Timestamp,
		Target:         native.Target,
		CurrentTarget:  currentTarget,
		DelegateTarget: delegateTarget,
		ctx:            ctx,
		native:         &wrappedNative{preventDefault: func() { native.PreventDefault() }},
	}
	switch data := native.Data.(type) {
	case *MouseData:
		evt.Kind = KindMouse
		evt.Mouse = data
		evt.Modifiers = data.Modifiers
	case *KeyboardData:
		evt.Kind = KindKeyboard
		evt.Keyboard = data
		evt.Modifiers = data.Modifiers
	case *TouchData:
		evt.Kind = KindTouch
		evt.Touch = data
		evt.Modifiers = data.Modifiers
	case *PointerData:
		evt.Kind = KindPointer
		evt.Pointer = data
		evt.Modifiers = data.Modifiers
	default:
		evt.Kind = KindGeneric
	}
	return evt
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicError{value: r}
}

type panicError struct{ value any }

func (p *panicError) Error() string { return "core: recovered panic: " + formatPanic(p.value) }

func formatPanic(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return "non-string panic value"
}
