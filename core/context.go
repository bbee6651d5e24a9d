package core

import "github.com/domkit-go/domkit/host"

// dispatchContext is the per-dispatch Event Context (spec §3). It is
// created fresh for each native event and discarded once dispatch completes;
// nothing here outlives one call to Core.dispatch.
type dispatchContext struct {
	path             []host.Node
	eventType        EventType
	target           host.Node
	stopped          bool
	immediateStopped bool
	processed        map[HandlerID]struct{}
}

func newDispatchContext(t EventType, target host.Node, path []host.Node) *dispatchContext {
	return &dispatchContext{
		path:      path,
		eventType: t,
		target:    target,
		processed: make(map[HandlerID]struct{}),
	}
}

// markProcessed reports whether id has already been invoked during this
// dispatch, recording it if not (spec §3 invariant: "a given handler id is
// invoked at most once").
func (c *dispatchContext) markProcessed(id HandlerID) (alreadyDone bool) {
	if _, ok := c.processed[id]; ok {
		return true
	}
	c.processed[id] = struct{}{}
	return false
}

// buildPropagationPath constructs the ordered ancestor chain from target to
// root, preferring the host's authoritative ComposedPath when available and
// falling back to walking Parent links, then appending the document and the
// window (spec §4.1 point 1).
func buildPropagationPath(target host.Node, doc host.Document, win host.Node) []host.Node {
	// A window-targeted event (native or coerced at Register time) has no
	// ancestors to climb; its path is just itself.
	if target.Kind() == host.KindWindow {
		return []host.Node{target}
	}

	var path []host.Node
	if provider, ok := target.(host.ComposedPathProvider); ok {
		path = append(path, provider.ComposedPath()...)
	} else {
		for n := target; n != nil; n = n.Parent() {
			path = append(path, n)
		}
	}

	// A detached target's parent walk never reaches the document (spec §8
	// scenario 2: a synthetic dispatch on a detached node must not reach
	// document- or window-level handlers). Only a connected target's path
	// is extended with the document/window fallback.
	if !target.IsConnected() {
		return path
	}
	if doc != nil && (len(path) == 0 || path[len(path)-1] != host.Node(doc)) {
		path = append(path, doc)
	}
	if win != nil {
		path = append(path, win)
	}
	return path
}

// resolveDelegateTarget walks from the event target toward the root looking
// for the nearest ancestor matching selector, stopping at (and including)
// delegationRoot. It returns (nil, nil) if none matched, surfacing any
// selector syntax error separately so the caller can report-and-cache it
// (spec §4.1 point 4, §7 "Invalid delegation selector").
func resolveDelegateTarget(eventTarget host.Node, delegationRoot host.Node, selector string) (host.Node, error) {
	for n := eventTarget; n != nil; n = n.Parent() {
		ok, err := n.Matches(selector)
		if err != nil {
			return nil, err
		}
		if ok {
			return n, nil
		}
		if n == delegationRoot {
			break
		}
	}
	return nil, nil
}
