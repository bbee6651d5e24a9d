package reactive

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/domkit-go/domkit/host"
	"github.com/domkit-go/domkit/owner"
)

// Config configures a Runtime.
type Config struct {
	// MicrotaskQueue schedules the effect flush (spec §9 "configurable
	// schedulers"). Required.
	MicrotaskQueue host.MicrotaskQueue
	// Logger receives Debug-level flush tracing and Warn-level effect panic
	// records; nil defaults to slog.Default().
	Logger *slog.Logger
	// ErrorReporter receives every caught effect panic (spec §7).
	ErrorReporter ErrorReporter
	// Tracer wraps each flush in a span; nil uses a no-op tracer.
	Tracer trace.Tracer
}

// Runtime is the explicit context Design Note 9 calls for in place of the
// source's module-level reactive singleton: construct one with New and pass
// it by reference to every Object/Array/Effect/Computed call site that needs
// scheduling (CreateEffect, Watch, Batch, TeardownOwner).
type Runtime struct {
	cfg Config

	mu             sync.Mutex
	pendingOrder   []*Effect
	flushScheduled bool
	batchDepth     int

	nextEffectID uint64
	ownerEffects map[owner.GroupID]map[*Effect]struct{}
}

// New constructs a Runtime. cfg.MicrotaskQueue must be non-nil.
func New(cfg Config) *Runtime {
	return &Runtime{cfg: cfg, ownerEffects: make(map[owner.GroupID]map[*Effect]struct{})}
}

func (rt *Runtime) logger() *slog.Logger {
	if rt.cfg.Logger != nil {
		return rt.cfg.Logger
	}
	return slog.Default()
}

func (rt *Runtime) tracer() trace.Tracer {
	if rt.cfg.Tracer != nil {
		return rt.cfg.Tracer
	}
	return trace.NewNoopTracerProvider().Tracer("github.com/domkit-go/domkit/reactive")
}

func (rt *Runtime) report(ctx ErrorContext) {
	rt.logger().Warn("domkit: reactive caught error", slog.String("context", ctx.Context), slog.Any("err", ctx.Err))
	if rt.cfg.ErrorReporter != nil {
		rt.cfg.ErrorReporter(ctx)
	}
}

func (rt *Runtime) reserveEffectID() uint64 {
	rt.nextEffectID++
	return rt.nextEffectID
}

// schedule adds e to the pending-flush set (deduplicated via e's own pending
// flag) and arms the microtask flush on the first insertion (spec §4.5
// "Batching": "The first insertion schedules a microtask").
func (rt *Runtime) schedule(e *Effect) {
	rt.mu.Lock()
	if !e.pending.CompareAndSwap(false, true) {
		rt.mu.Unlock()
		return
	}
	rt.pendingOrder = append(rt.pendingOrder, e)
	arm := !rt.flushScheduled
	if arm {
		rt.flushScheduled = true
	}
	rt.mu.Unlock()
	if arm {
		rt.cfg.MicrotaskQueue.Enqueue(rt.flush)
	}
}

// flush drains the pending set in insertion order. Effects scheduled from
// within a running effect are appended and processed in the same flush
// (spec §5 "Effects scheduled from within a flushing microtask are appended
// and run in the same flush (FIFO)").
func (rt *Runtime) flush() {
	rt.mu.Lock()
	if len(rt.pendingOrder) == 0 {
		rt.flushScheduled = false
		rt.mu.Unlock()
		return
	}
	rt.mu.Unlock()

	_, span := rt.tracer().Start(context.Background(), "reactive.flush")
	defer span.End()

	rt.mu.Lock()
	ran := 0
	for i := 0; i < len(rt.pendingOrder); i++ {
		e := rt.pendingOrder[i]
		e.pending.Store(false)
		if !e.active.Load() {
			continue
		}
		rt.mu.Unlock()
		e.run()
		ran++
		rt.mu.Lock()
	}
	rt.pendingOrder = nil
	rt.flushScheduled = false
	rt.mu.Unlock()

	rt.logger().Debug("domkit: reactive flush complete", slog.Int("effects_run", ran))
}

// Batch defers the effect flush until fn returns; nested Batch calls only
// flush once, at the outermost exit (spec §4.5 "Batching").
func (rt *Runtime) Batch(fn func()) {
	rt.mu.Lock()
	rt.batchDepth++
	rt.mu.Unlock()

	defer func() {
		rt.mu.Lock()
		rt.batchDepth--
		atZero := rt.batchDepth == 0
		rt.mu.Unlock()
		if atZero {
			rt.flush()
		}
	}()
	fn()
}

func (rt *Runtime) registerOwner(e *Effect) {
	if e.ownerGroup.IsNil() {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	set, ok := rt.ownerEffects[e.ownerGroup]
	if !ok {
		set = make(map[*Effect]struct{})
		rt.ownerEffects[e.ownerGroup] = set
	}
	set[e] = struct{}{}
}

func (rt *Runtime) unregisterOwner(e *Effect) {
	if e.ownerGroup.IsNil() {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if set, ok := rt.ownerEffects[e.ownerGroup]; ok {
		delete(set, e)
		if len(set) == 0 {
			delete(rt.ownerEffects, e.ownerGroup)
		}
	}
}

// TeardownOwner disposes every effect registered under group, returning how
// many were disposed (spec §6 "Lifecycle API": "teardownOwner(ownerGroupId)
// — removes all handlers and effects registered under the group").
func (rt *Runtime) TeardownOwner(group owner.GroupID) int {
	rt.mu.Lock()
	set := rt.ownerEffects[group]
	effects := make([]*Effect, 0, len(set))
	for e := range set {
		effects = append(effects, e)
	}
	delete(rt.ownerEffects, group)
	rt.mu.Unlock()

	for _, e := range effects {
		e.Dispose()
	}
	return len(effects)
}
