package reactive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domkit-go/domkit/reactive"
)

func TestArrayPushPopShiftUnshift(t *testing.T) {
	a := reactive.NewArray([]int{1, 2, 3})
	assert.Equal(t, 3, a.Len())

	a.Push(4)
	assert.Equal(t, []int{1, 2, 3, 4}, a.Snapshot())

	v, ok := a.Pop()
	require.True(t, ok)
	assert.Equal(t, 4, v)
	assert.Equal(t, []int{1, 2, 3}, a.Snapshot())

	v, ok = a.Shift()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []int{2, 3}, a.Snapshot())

	a.Unshift(0)
	assert.Equal(t, []int{0, 2, 3}, a.Snapshot())
}

func TestArraySplice(t *testing.T) {
	a := reactive.NewArray([]int{1, 2, 3, 4, 5})
	removed := a.Splice(1, 2, 9, 8, 7)
	assert.Equal(t, []int{2, 3}, removed)
	assert.Equal(t, []int{1, 9, 8, 7, 4, 5}, a.Snapshot())
}

// An effect tracking a.At(i) reruns when that index is mutated, but not
// when an untouched index changes (spec §4.5 per-index tracking).
func TestArrayIndexTrackingIsPerIndex(t *testing.T) {
	rt, mtq := newTestRuntime()
	a := reactive.NewArray([]int{10, 20, 30})

	var seen int
	runs := 0
	reactive.CreateEffect(rt, func() func() {
		seen = a.At(0)
		runs++
		return nil
	}, reactive.EffectOptions{})
	require.Equal(t, 1, runs)

	a.SetAt(2, 99)
	mtq.Drain()
	assert.Equal(t, 1, runs, "a write to an untracked index must not rerun the effect")

	a.SetAt(0, 11)
	mtq.Drain()
	assert.Equal(t, 2, runs)
	assert.Equal(t, 11, seen)
}

func TestArrayPopOnEmptyReportsNotOk(t *testing.T) {
	a := reactive.NewArray[int](nil)
	_, ok := a.Pop()
	assert.False(t, ok)
	_, ok = a.Shift()
	assert.False(t, ok)
}
