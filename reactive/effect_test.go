package reactive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domkit-go/domkit/internal/testhost"
	"github.com/domkit-go/domkit/owner"
	"github.com/domkit-go/domkit/reactive"
)

func newTestRuntime() (*reactive.Runtime, *testhost.MicrotaskQueue) {
	mtq := testhost.NewMicrotaskQueue()
	return reactive.New(reactive.Config{MicrotaskQueue: mtq}), mtq
}

// A write outside any batch schedules the dependent effect onto the
// microtask queue rather than running it synchronously (spec §4.5 "The
// first insertion schedules a microtask").
func TestEffectRerunsOnMicrotaskFlush(t *testing.T) {
	rt, mtq := newTestRuntime()
	obj := reactive.NewObject(map[string]any{"count": 0})

	var seen int
	var runs int
	reactive.CreateEffect(rt, func() func() {
		seen = obj.Get("count").(int)
		runs++
		return nil
	}, reactive.EffectOptions{})

	require.Equal(t, 1, runs, "effect runs once immediately on creation")

	obj.Set("count", 1)
	assert.Equal(t, 1, runs, "rerun must wait for the microtask flush")
	assert.Equal(t, 1, mtq.Pending())

	mtq.Drain()
	assert.Equal(t, 2, runs)
	assert.Equal(t, 1, seen)
}

// Scenario 4 (spec §8): N writes to one observable within a single batch
// produce exactly one rerun, observing the final post-write values.
func TestBatchCoalescesMultipleWrites(t *testing.T) {
	rt, _ := newTestRuntime()
	s := reactive.NewObject(map[string]any{"a": 0, "b": 0})

	counter := 0
	var lastA, lastB int
	reactive.CreateEffect(rt, func() func() {
		lastA = s.Get("a").(int)
		lastB = s.Get("b").(int)
		counter++
		return nil
	}, reactive.EffectOptions{})

	require.Equal(t, 1, counter)

	rt.Batch(func() {
		s.Set("a", 1)
		s.Set("b", 2)
		s.Set("a", 3)
	})

	assert.Equal(t, 2, counter)
	assert.Equal(t, 3, lastA)
	assert.Equal(t, 2, lastB)
}

// A disposed effect does not rerun even if it was already in the pending
// set when Dispose ran (spec §8: "For any effect e disposed before the
// microtask flush, e does not run even if it was in the pending set").
func TestDisposedEffectDoesNotRerun(t *testing.T) {
	rt, mtq := newTestRuntime()
	obj := reactive.NewObject(map[string]any{"x": 0})

	runs := 0
	eff := reactive.CreateEffect(rt, func() func() {
		_ = obj.Get("x")
		runs++
		return nil
	}, reactive.EffectOptions{})
	require.Equal(t, 1, runs)

	obj.Set("x", 1)
	eff.Dispose()
	mtq.Drain()

	assert.Equal(t, 1, runs, "disposed effect must not rerun")
}

// Owner teardown disposes every effect registered under that group and
// leaves others untouched (mirrors spec §8 scenario 6, applied to effects).
func TestTeardownOwnerDisposesGroupEffects(t *testing.T) {
	rt, mtq := newTestRuntime()
	obj := reactive.NewObject(map[string]any{"v": 0})
	group := owner.New()

	var grouped, ungrouped int
	for i := 0; i < 20; i++ {
		reactive.CreateEffect(rt, func() func() {
			_ = obj.Get("v")
			grouped++
			return nil
		}, reactive.EffectOptions{OwnerGroup: group})
	}
	reactive.CreateEffect(rt, func() func() {
		_ = obj.Get("v")
		ungrouped++
		return nil
	}, reactive.EffectOptions{})

	require.Equal(t, 20, grouped)
	require.Equal(t, 1, ungrouped)

	disposed := rt.TeardownOwner(group)
	assert.Equal(t, 20, disposed)

	obj.Set("v", 1)
	mtq.Drain()

	assert.Equal(t, 20, grouped, "disposed effects must not rerun on subsequent writes")
	assert.Equal(t, 2, ungrouped, "the ungrouped effect still reruns")
}

// An effect's cleanup from the previous run executes before the rerun, and
// again on Dispose (grounded on the teacher's Effect.cleanup semantics).
func TestEffectCleanupRunsBeforeRerunAndOnDispose(t *testing.T) {
	rt, mtq := newTestRuntime()
	obj := reactive.NewObject(map[string]any{"v": 0})

	var cleanups int
	eff := reactive.CreateEffect(rt, func() func() {
		_ = obj.Get("v")
		return func() { cleanups++ }
	}, reactive.EffectOptions{})

	obj.Set("v", 1)
	mtq.Drain()
	assert.Equal(t, 1, cleanups, "cleanup from the first run fires before the rerun")

	eff.Dispose()
	assert.Equal(t, 2, cleanups, "cleanup from the last run fires on dispose")
}

// An effect that panics is isolated and remains active for subsequent
// writes (spec §7 "Effect exception").
func TestEffectPanicIsolatedAndRemainsActive(t *testing.T) {
	rt, mtq := newTestRuntime()
	obj := reactive.NewObject(map[string]any{"v": 0})

	var reports []reactive.ErrorContext
	rt2 := reactive.New(reactive.Config{
		MicrotaskQueue: mtq,
		ErrorReporter:  func(ctx reactive.ErrorContext) { reports = append(reports, ctx) },
	})

	runs := 0
	reactive.CreateEffect(rt2, func() func() {
		v := obj.Get("v").(int)
		runs++
		if v == 1 {
			panic("boom")
		}
		return nil
	}, reactive.EffectOptions{})

	obj.Set("v", 1)
	mtq.Drain()

	require.Len(t, reports, 1)
	assert.Equal(t, "effect.panic", reports[0].Context)
	assert.Equal(t, 2, runs)

	obj.Set("v", 2)
	mtq.Drain()
	assert.Equal(t, 3, runs, "a panicking effect remains active and reruns on the next write")
	_ = rt
}
