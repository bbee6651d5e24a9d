package reactive

import (
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"
)

var nextObservableID uint64

func reserveObservableID() uint64 {
	return atomic.AddUint64(&nextObservableID, 1)
}

// subscriberSet is the per-key subscriber bookkeeping shared by Object and
// Array, grounded on the teacher's signalBase (pkg/vango/signal.go) —
// generalized from one subscriber set per signal to one set per key.
type subscriberSet struct {
	mu   sync.Mutex
	subs map[string]map[tracker]struct{}
}

func newSubscriberSet() *subscriberSet {
	return &subscriberSet{subs: make(map[string]map[tracker]struct{})}
}

func (s *subscriberSet) subscribe(key string, t tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.subs[key]
	if !ok {
		set = make(map[tracker]struct{})
		s.subs[key] = set
	}
	set[t] = struct{}{}
}

func (s *subscriberSet) unsubscribe(key string, t tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.subs[key]; ok {
		delete(set, t)
		if len(set) == 0 {
			delete(s.subs, key)
		}
	}
}

// notify wakes every tracker subscribed to any of keys, each at most once
// even if it subscribed to more than one of them.
func (s *subscriberSet) notify(keys ...string) {
	s.mu.Lock()
	woken := make(map[tracker]struct{})
	for _, key := range keys {
		for t := range s.subs[key] {
			woken[t] = struct{}{}
		}
	}
	s.mu.Unlock()
	for t := range woken {
		t.notify()
	}
}

func equalValues(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// observableValue is implemented by every reactive value IsObservable
// recognizes: Object, Array[T], and Computed[T] (spec §6 "isObservable").
type observableValue interface {
	isObservable()
}

// IsObservable reports whether v is an Object, Array[T], or Computed[T]
// (spec.md:153, SPEC_FULL.md §6 "Reactive API": observable, effect, computed,
// watch, batch, isObservable).
func IsObservable(v any) bool {
	_, ok := v.(observableValue)
	return ok
}

// Object is an observable, map-shaped value with per-key dependency
// tracking (spec §3 "Observable": "mapping from property key → set of
// effect records depending on that key"). It is the explicit get/set
// accessor form Design Note 9 calls for in place of host proxy traps.
type Object struct {
	id   uint64
	mu   sync.Mutex
	vals map[string]any
	*subscriberSet
}

// NewObject wraps a shallow copy of initial as an observable object. Passing
// an already-wrapped Object's snapshot back into NewObject produces a
// distinct Object — this package has no implicit "observable of observable"
// collapsing, because, unlike the source's proxy, there is nothing here a
// caller could accidentally wrap twice without calling NewObject explicitly.
func NewObject(initial map[string]any) *Object {
	vals := make(map[string]any, len(initial))
	for k, v := range initial {
		vals[k] = v
	}
	return &Object{id: reserveObservableID(), vals: vals, subscriberSet: newSubscriberSet()}
}

// ID returns a stable identity for this Object (spec §3 "stable identity").
func (o *Object) ID() uint64 { return o.id }

func (o *Object) isObservable() {}

// Get reads key, recording a dependency edge against the active tracker.
func (o *Object) Get(key string) any {
	o.mu.Lock()
	v := o.vals[key]
	o.mu.Unlock()
	trackRead(o, key)
	return v
}

// Keys returns a snapshot of the object's current keys.
func (o *Object) Keys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	keys := make([]string, 0, len(o.vals))
	for k := range o.vals {
		keys = append(keys, k)
	}
	return keys
}

// Set writes key, triggering every tracker dependent on it if the value
// actually changed (spec §4.5 "A write to (x, key) that changes the value
// triggers all effects on that edge").
func (o *Object) Set(key string, value any) {
	o.mu.Lock()
	old, existed := o.vals[key]
	changed := !existed || !equalValues(old, value)
	if changed {
		o.vals[key] = value
	}
	o.mu.Unlock()
	if changed {
		o.notify(key)
	}
}

// Array is an observable slice with per-index and "length" dependency
// tracking. Mutating methods trigger on "length" and on every index that
// changed (spec §4.5), matching Design Note 9's "array mutations are wrapped
// methods rather than proxy traps".
type Array[T any] struct {
	id    uint64
	mu    sync.Mutex
	items []T
	*subscriberSet
}

// NewArray wraps a copy of initial as an observable array.
func NewArray[T any](initial []T) *Array[T] {
	items := make([]T, len(initial))
	copy(items, initial)
	return &Array[T]{id: reserveObservableID(), items: items, subscriberSet: newSubscriberSet()}
}

// ID returns a stable identity for this Array.
func (a *Array[T]) ID() uint64 { return a.id }

func (a *Array[T]) isObservable() {}

const lengthKey = "length"

func indexKey(i int) string { return strconv.Itoa(i) }

// Len returns the current length, tracked via the "length" key.
func (a *Array[T]) Len() int {
	a.mu.Lock()
	n := len(a.items)
	a.mu.Unlock()
	trackRead(a, lengthKey)
	return n
}

// At returns the element at i, tracked via that index's key.
func (a *Array[T]) At(i int) T {
	a.mu.Lock()
	v := a.items[i]
	a.mu.Unlock()
	trackRead(a, indexKey(i))
	return v
}

// SetAt writes the element at i, triggering trackers of that index.
func (a *Array[T]) SetAt(i int, v T) {
	a.mu.Lock()
	a.items[i] = v
	a.mu.Unlock()
	a.notify(indexKey(i))
}

// Push appends v, triggering "length" and the new last index.
func (a *Array[T]) Push(v T) {
	a.mu.Lock()
	a.items = append(a.items, v)
	idx := len(a.items) - 1
	a.mu.Unlock()
	a.notify(lengthKey, indexKey(idx))
}

// Pop removes and returns the last element, if any, triggering "length" and
// the removed index.
func (a *Array[T]) Pop() (value T, ok bool) {
	a.mu.Lock()
	if len(a.items) == 0 {
		a.mu.Unlock()
		return value, false
	}
	idx := len(a.items) - 1
	value = a.items[idx]
	a.items = a.items[:idx]
	a.mu.Unlock()
	a.notify(lengthKey, indexKey(idx))
	return value, true
}

// Shift removes and returns the first element, if any, triggering "length"
// and every index (all of them shift).
func (a *Array[T]) Shift() (value T, ok bool) {
	a.mu.Lock()
	if len(a.items) == 0 {
		a.mu.Unlock()
		return value, false
	}
	value = a.items[0]
	n := len(a.items) - 1
	a.items = a.items[1:]
	a.mu.Unlock()
	keys := allIndexKeys(n + 1)
	a.notify(keys...)
	return value, true
}

// Unshift prepends v, triggering "length" and every index.
func (a *Array[T]) Unshift(v T) {
	a.mu.Lock()
	a.items = append([]T{v}, a.items...)
	n := len(a.items)
	a.mu.Unlock()
	a.notify(allIndexKeys(n)...)
}

// Splice removes deleteCount elements starting at start and inserts insert
// in their place, returning the removed elements. Triggers "length" and
// every index from start onward.
func (a *Array[T]) Splice(start, deleteCount int, insert ...T) []T {
	a.mu.Lock()
	if start < 0 {
		start = 0
	}
	if start > len(a.items) {
		start = len(a.items)
	}
	end := start + deleteCount
	if end > len(a.items) {
		end = len(a.items)
	}
	removed := make([]T, end-start)
	copy(removed, a.items[start:end])

	tail := make([]T, len(a.items)-end)
	copy(tail, a.items[end:])

	rebuilt := make([]T, 0, start+len(insert)+len(tail))
	rebuilt = append(rebuilt, a.items[:start]...)
	rebuilt = append(rebuilt, insert...)
	rebuilt = append(rebuilt, tail...)
	a.items = rebuilt
	n := len(a.items)
	a.mu.Unlock()

	keys := []string{lengthKey}
	for i := start; i < n; i++ {
		keys = append(keys, indexKey(i))
	}
	a.notify(keys...)
	return removed
}

// Snapshot returns an untracked copy of the array's current contents.
func (a *Array[T]) Snapshot() []T {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]T, len(a.items))
	copy(out, a.items)
	return out
}

func allIndexKeys(n int) []string {
	keys := make([]string, 0, n+1)
	keys = append(keys, lengthKey)
	for i := 0; i < n; i++ {
		keys = append(keys, indexKey(i))
	}
	return keys
}
