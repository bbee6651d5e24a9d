package core

import "time"

// internalStats is the mutable bookkeeping backing Diagnostics. It lives on
// Core and is only ever touched under core.mu.
type internalStats struct {
	peakHandlerCount int
	warnings         int
	lastSweep        time.Time
}

// Diagnostics is the read-only statistics snapshot mandated by spec §6: a
// point-in-time copy, safe to read from any goroutine (e.g. the devtools
// websocket broadcaster) without further synchronization.
type Diagnostics struct {
	HandlerCount     int
	PeakHandlerCount int
	MatchCacheSize   int
	PathCacheSize    int
	LastSweep        time.Time
	Warnings         int
	ThrottleDropped  map[EventType]uint64
}

// Diagnostics returns a snapshot of the current statistics (spec §6).
func (c *Core) Diagnostics() Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()

	matchCacheSize := 0
	for _, bySelector := range c.idx.matchCache {
		matchCacheSize += len(bySelector)
	}

	return Diagnostics{
		HandlerCount:     c.idx.handlerCount(),
		PeakHandlerCount: c.stats.peakHandlerCount,
		MatchCacheSize:   matchCacheSize,
		PathCacheSize:    len(c.pathCache),
		LastSweep:        c.stats.lastSweep,
		Warnings:         c.stats.warnings,
		ThrottleDropped:  c.scheduler.droppedSnapshot(),
	}
}

// estimatedCacheSize is the cheap proxy used by the governor's cache-bound
// enforcement: total cached selector-match entries plus cached propagation
// paths (spec §4.4 "known-large").
func (c *Core) estimatedCacheSize() int {
	size := len(c.pathCache)
	for _, bySelector := range c.idx.matchCache {
		size += len(bySelector)
	}
	return size
}

// ErrorContext accompanies a caught exception reported to an ErrorReporter
// (spec §6 "An error-reporter hook is invoked for caught exceptions with
// {context, data}").
type ErrorContext struct {
	Context string
	Data    map[string]any
	Err     error
}

// ErrorReporter receives every caught-and-recovered failure the core
// produces: handler panics, effect panics, and invalid delegation selectors
// (spec §7). It is the only user-visible surface for these failures; the
// core never propagates them and never tears itself down.
type ErrorReporter func(ErrorContext)
