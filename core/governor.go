package core

import (
	"log/slog"

	"github.com/domkit-go/domkit/host"
)

// governor implements the Memory Governor (spec §4.4): a periodic sweep for
// detached elements, cache bound enforcement, hot-element warnings, and a
// mutation-observer subscription that reacts to subtree removal instead of
// waiting for the next interval.
type governor struct {
	core     *Core
	cancelMu bool // guards against double-cancel; set once Stop runs
	stopped  bool
	cancel   func()
	unobserve func()
}

func newGovernor(core *Core) *governor {
	return &governor{core: core}
}

// start arms the periodic sweep and, if the Core's document supports it,
// subscribes to mutation notifications.
func (g *governor) start() {
	if g.core.cfg.CleanupInterval > 0 {
		g.arm()
	}
	if g.core.doc != nil {
		g.unobserve = g.core.doc.Observe(g.onMutation)
	}
}

func (g *governor) arm() {
	g.cancel = g.core.cfg.Timer.AfterFunc(g.core.cfg.CleanupInterval, func() {
		g.core.mu.Lock()
		g.sweep()
		stopped := g.stopped
		g.core.mu.Unlock()
		if !stopped {
			g.arm()
		}
	})
}

// stop cancels the periodic sweep and the mutation subscription. Callers
// hold core.mu.
func (g *governor) stop() {
	if g.cancelMu {
		return
	}
	g.cancelMu = true
	g.stopped = true
	if g.cancel != nil {
		g.cancel()
	}
	if g.unobserve != nil {
		g.unobserve()
	}
}

// sweep performs the detach sweep, cache bound enforcement, and hot-element
// warnings. Callers hold core.mu.
func (g *governor) sweep() {
	core := g.core

	var detached []HandlerID
	for id, rec := range core.idx.global {
		if rec.windowOwned {
			continue
		}
		if !rec.target.IsConnected() {
			detached = append(detached, id)
		}
	}
	for _, id := range detached {
		core.idx.remove(id)
	}

	core.stats.lastSweep = core.cfg.Clock.Now()
	if count := core.idx.handlerCount(); count > core.stats.peakHandlerCount {
		core.stats.peakHandlerCount = count
	}

	if core.cfg.MaxCacheSize > 0 && core.estimatedCacheSize() > core.cfg.MaxCacheSize {
		core.idx.invalidateMatchCache()
		core.pathCache = make(map[string][]host.Node)
	}

	if core.cfg.MaxHandlersPerElement > 0 {
		for nodeID, byType := range core.idx.elementIndex {
			count := 0
			for _, set := range byType {
				count += len(set)
			}
			if count > core.cfg.MaxHandlersPerElement {
				core.stats.warnings++
				core.logger().Warn("domkit: element exceeds max handlers",
					slog.String("element_id", nodeID), slog.Int("handler_count", count))
			}
		}
	}

	if len(detached) > 0 {
		core.logger().Debug("domkit: detach sweep removed handlers", slog.Int("count", len(detached)))
	}
}

// onMutation reacts to removed subtrees by deferring cleanup to a microtask,
// so that a same-task detach-then-reattach (a move) does not lose handlers
// (spec §4.4 "The defer is required...").
func (g *governor) onMutation(rec host.MutationRecord) {
	for _, root := range rec.RemovedRoots {
		root := root
		g.core.cfg.MicrotaskQueue.Enqueue(func() {
			g.core.mu.Lock()
			defer g.core.mu.Unlock()
			if root.IsConnected() {
				return // reattached before the microtask ran
			}
			g.sweepSubtree(root)
		})
	}
}

// sweepSubtree removes every handler whose target descends from (or is)
// root. Callers hold core.mu.
func (g *governor) sweepSubtree(root host.Node) {
	core := g.core
	var victims []string
	seen := make(map[string]struct{})
	for _, rec := range core.idx.global {
		if rec.windowOwned {
			continue
		}
		if _, done := seen[rec.target.ID()]; done {
			continue
		}
		if isDescendantOrSelf(rec.target, root) {
			seen[rec.target.ID()] = struct{}{}
			victims = append(victims, rec.target.ID())
		}
	}
	for _, nodeID := range victims {
		core.idx.removeByElement(nodeID)
	}
	// Cached paths of nodes inside the removed subtree still lead to the
	// document and window; drop them so the next dispatch rebuilds them.
	for id, path := range core.pathCache {
		if len(path) > 0 && isDescendantOrSelf(path[0], root) {
			delete(core.pathCache, id)
		}
	}
}

func isDescendantOrSelf(n, root host.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.ID() == root.ID() {
			return true
		}
	}
	return false
}
