package reactive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domkit-go/domkit/reactive"
)

// Watch does not call cb for the initial read, leaves cb uncalled while the
// watched value stays the same (a write to a key the read never touches),
// and calls cb with the new and old values once the watched key changes
// (spec §4.5 "Watches").
func TestWatchSkipsInitialReadAndUnchangedValues(t *testing.T) {
	rt, mtq := newTestRuntime()
	s := reactive.NewObject(map[string]any{"a": 1, "b": 1})

	var calls int
	var gotNew, gotOld int
	reactive.Watch(rt, func() int {
		return s.Get("a").(int)
	}, func(newValue, oldValue int) {
		calls++
		gotNew, gotOld = newValue, oldValue
	}, reactive.EffectOptions{})

	assert.Equal(t, 0, calls, "the initial read must not invoke cb")

	// "b" is never read by this watch, so per-key tracking means the write
	// doesn't even schedule a rerun.
	s.Set("b", 2)
	mtq.Drain()
	assert.Equal(t, 0, calls)

	s.Set("a", 9)
	mtq.Drain()
	require.Equal(t, 1, calls)
	assert.Equal(t, 9, gotNew)
	assert.Equal(t, 1, gotOld)
}
