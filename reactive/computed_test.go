package reactive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domkit-go/domkit/reactive"
)

// A Computed's getter does not run until the first Value() read, and is
// cached thereafter (spec §4.5 "Reading .value runs getter ... the first
// time and caches the result").
func TestComputedLazyAndCached(t *testing.T) {
	s := reactive.NewObject(map[string]any{"n": 2})

	calls := 0
	c := reactive.NewComputed(func() int {
		calls++
		return s.Get("n").(int) * 10
	})
	assert.Equal(t, 0, calls, "getter must not run before the first read")

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, 20, v)
	assert.Equal(t, 1, calls)

	v, err = c.Value()
	require.NoError(t, err)
	assert.Equal(t, 20, v)
	assert.Equal(t, 1, calls, "a second read with no write in between must not recompute")
}

// A write to one of the Computed's sources invalidates the cache; the next
// read recomputes exactly once.
func TestComputedInvalidatesOnDependencyWrite(t *testing.T) {
	s := reactive.NewObject(map[string]any{"n": 2})
	calls := 0
	c := reactive.NewComputed(func() int {
		calls++
		return s.Get("n").(int) * 10
	})

	v, _ := c.Value()
	assert.Equal(t, 20, v)

	s.Set("n", 5)
	assert.Equal(t, 1, calls, "notify must not eagerly recompute")

	v, _ = c.Value()
	assert.Equal(t, 50, v)
	assert.Equal(t, 2, calls)
}

// An outer effect that reads a Computed's Value reruns when the Computed's
// upstream source changes, transitively through the Computed.
func TestEffectRerunsThroughComputed(t *testing.T) {
	rt, mtq := newTestRuntime()
	s := reactive.NewObject(map[string]any{"n": 1})
	c := reactive.NewComputed(func() int { return s.Get("n").(int) * 2 })

	var seen int
	runs := 0
	reactive.CreateEffect(rt, func() func() {
		v, _ := c.Value()
		seen = v
		runs++
		return nil
	}, reactive.EffectOptions{})

	require.Equal(t, 1, runs)
	assert.Equal(t, 2, seen)

	s.Set("n", 4)
	mtq.Drain()

	assert.Equal(t, 2, runs)
	assert.Equal(t, 8, seen)
}

// A panicking getter surfaces the error to the reader and leaves the
// Computed dirty, so the very next read retries the getter rather than
// replaying the cached failure (spec §7 "Computed exception").
func TestComputedPanicRetriesOnNextRead(t *testing.T) {
	s := reactive.NewObject(map[string]any{"ok": false})
	c := reactive.NewComputed(func() int {
		if !s.Get("ok").(bool) {
			panic("not ready")
		}
		return 42
	})

	_, err := c.Value()
	require.Error(t, err)

	s.Set("ok", true)
	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
