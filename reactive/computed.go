package reactive

import "sync"

// Computed is a lazily evaluated, cached derivation over observables (spec
// §3 "Computed Record", §4.5 "Computed"). It is both a tracker (it depends
// on whatever getter reads) and a dependency (outer effects that read its
// Value register against it), so invalidation propagates transitively: a
// write to one of getter's sources marks this Computed dirty and also wakes
// any outer effect subscribed to it, without eagerly recomputing.
type Computed[T any] struct {
	mu     sync.Mutex
	getter func() T
	deps   []depEdge
	subs   *subscriberSet

	value   T
	err     error
	dirty   bool
	hasRun  bool
}

// NewComputed creates a Computed wrapping getter. getter is not invoked
// until the first read of Value (spec §4.5 "Reading .value runs getter ...
// the first time and caches the result").
func NewComputed[T any](getter func() T) *Computed[T] {
	return &Computed[T]{getter: getter, subs: newSubscriberSet(), dirty: true}
}

// notify implements tracker: one of this Computed's dependencies changed.
// The value is marked dirty but not recomputed here — recomputation is
// lazy, deferred to the next Value() call — and the dirty transition is
// propagated to this Computed's own subscribers so an outer effect reading
// it reruns too.
func (c *Computed[T]) notify() {
	c.mu.Lock()
	if c.dirty {
		c.mu.Unlock()
		return
	}
	c.dirty = true
	c.mu.Unlock()
	c.subs.notify("value")
}

func (c *Computed[T]) subscribe(key string, t tracker)   { c.subs.subscribe(key, t) }
func (c *Computed[T]) unsubscribe(key string, t tracker) { c.subs.unsubscribe(key, t) }

func (c *Computed[T]) isObservable() {}

// Value returns the cached value, recomputing under fresh dependency
// tracking if dirty, and records a dependency edge against the active
// outer tracker (if any) so it reruns on future invalidation.
func (c *Computed[T]) Value() (T, error) {
	c.mu.Lock()
	if c.dirty || !c.hasRun {
		c.recomputeLocked()
	}
	value, err := c.value, c.err
	c.mu.Unlock()
	trackRead(c, "value")
	return value, err
}

// recomputeLocked reruns getter under tracking. Callers hold c.mu.
//
// On panic, err is set and propagates to the reader, but dirty is left true
// so the next read retries (spec §7 "Computed exception: propagates to the
// reader; cached as 'dirty' so the next read will retry") — unlike a
// successful run, which clears dirty.
func (c *Computed[T]) recomputeLocked() {
	panicked := false
	c.deps = withTracking(c, c.deps, func() {
		defer func() {
			if r := recover(); r != nil {
				c.err = panicToError(r)
				panicked = true
			}
		}()
		c.err = nil
		c.value = c.getter()
	})
	c.hasRun = true
	if !panicked {
		c.dirty = false
	}
}
