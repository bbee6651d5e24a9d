// Package core implements the Event Dispatcher, Delegation Index, Filter &
// Scheduler, and Memory Governor components: a single-listener-per-type
// event delegation engine layered on the host package's DOM abstraction
// (spec §1, §2, §4.1-§4.4).
//
// A Core value is the explicit context Design Note 9 calls for in place of
// the source's module-level singleton: construct one with New, pass it by
// reference to collaborators, and Close it when the host document is torn
// down.
package core

import (
	"log/slog"
	"sync"

	"github.com/domkit-go/domkit/host"
	"github.com/domkit-go/domkit/owner"
)

// Core owns the global native listeners (conceptually — see HandleNativeEvent),
// the delegation index, the filter/scheduler, and the memory governor for one
// host document. All mutable state is guarded by mu; the lock exists so a
// devtools goroutine can safely read Diagnostics while dispatch runs on the
// host's main thread, not to make dispatch itself concurrent (spec §5
// "Shared resource policy").
type Core struct {
	cfg       Config
	mu        sync.Mutex
	idx       *delegationIndex
	scheduler *scheduler
	gov       *governor
	stats     internalStats
	pathCache map[string][]host.Node
	doc       host.Document
	window    host.Node
	closed    bool
}

// New constructs a Core from cfg. cfg.Document must be non-nil; the four
// scheduling primitives (Clock, FrameScheduler, MicrotaskQueue, Timer) must
// also be supplied — use internal/testhost's fakes in tests, or a real host
// binding in production.
func New(cfg Config) *Core {
	c := &Core{
		cfg:       cfg,
		idx:       newDelegationIndex(),
		pathCache: make(map[string][]host.Node),
		doc:       cfg.Document,
		window:    cfg.Window,
	}
	c.scheduler = newScheduler(cfg)
	c.gov = newGovernor(c)
	c.gov.start()
	return c
}

func (c *Core) logger() *slog.Logger {
	if c.cfg.Logger != nil {
		return c.cfg.Logger
	}
	return slog.Default()
}

func (c *Core) report(ctx ErrorContext) {
	c.logger().Warn("domkit: caught error", slog.String("context", ctx.Context), slog.Any("err", ctx.Err))
	if c.cfg.ErrorReporter != nil {
		c.cfg.ErrorReporter(ctx)
	}
}

func (c *Core) rootElement() host.Node {
	if c.cfg.RootElement != nil {
		return c.cfg.RootElement
	}
	return c.doc
}

// Register installs a handler (spec §4.1 "register"). It validates type
// against the closed enumeration, coerces window-only types onto the
// configured window, and rejects a nil callback or target. Each call
// returns a fresh monotonically increasing id.
func (c *Core) Register(target host.Node, t EventType, cb Callback, opts Options) (HandlerID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrCoreClosed
	}
	if cb == nil {
		return 0, ErrNilCallback
	}
	if !t.isKnown() {
		return 0, ErrUnknownEventType
	}

	windowOwned := t.IsWindowOnly()
	if windowOwned {
		if c.window == nil {
			return 0, ErrInvalidTarget
		}
		target = c.window
	} else {
		if target == nil {
			return 0, ErrInvalidTarget
		}
		if target.Kind() == host.KindWindow {
			windowOwned = true
		}
	}

	passive := resolvePassive(t, opts.Passive)
	if opts.Passive == nil && c.cfg.NonPassiveEvents != nil {
		passive = true
		for _, np := range c.cfg.NonPassiveEvents {
			if np == t {
				passive = false
				break
			}
		}
	}

	rec := &handlerRecord{
		id:          c.idx.reserveID(),
		eventType:   t,
		callback:    cb,
		target:      target,
		windowOwned: windowOwned,
		capture:     opts.Capture,
		once:        opts.Once,
		passive:     passive,
		priority:    opts.Priority,
		selector:    opts.Selector,
		throttle:    opts.Throttle,
		debounce:    opts.Debounce,
		ownerGroup:  opts.OwnerGroup,
		seq:         c.idx.reserveSeq(),
		createdAt:   c.cfg.Clock.Now(),
	}
	c.idx.add(rec)
	return rec.id, nil
}

// Unregister removes handlerID from the global table and every index,
// reporting whether a removal occurred (spec §4.1 "unregister").
func (c *Core) Unregister(id HandlerID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idx.remove(id)
}

// UnregisterByOwner removes every handler tagged with group in
// O(handlers-of-owner) (spec §4.1 "unregisterByOwner").
func (c *Core) UnregisterByOwner(group owner.GroupID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.idx.removeByOwner(group))
}

// UnregisterByElement removes every handler bound directly to target,
// typically called from the detach path (spec §4.1 "unregisterByElement").
func (c *Core) UnregisterByElement(target host.Node) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pathCache, target.ID())
	return len(c.idx.removeByElement(target.ID()))
}

// Close stops the memory governor's periodic sweep and mutation
// subscription. A closed Core rejects further Register calls; dispatch of
// events already in flight is unaffected.
func (c *Core) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gov.stop()
}
