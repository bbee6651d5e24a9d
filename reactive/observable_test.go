package reactive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domkit-go/domkit/reactive"
)

func TestIsObservableRecognizesObjectArrayAndComputed(t *testing.T) {
	obj := reactive.NewObject(map[string]any{"a": 1})
	arr := reactive.NewArray([]int{1, 2, 3})
	comp := reactive.NewComputed(func() int { return 1 })

	assert.True(t, reactive.IsObservable(obj))
	assert.True(t, reactive.IsObservable(arr))
	assert.True(t, reactive.IsObservable(comp))
}

func TestIsObservableRejectsPlainValues(t *testing.T) {
	assert.False(t, reactive.IsObservable(42))
	assert.False(t, reactive.IsObservable("plain string"))
	assert.False(t, reactive.IsObservable(nil))
	assert.False(t, reactive.IsObservable(map[string]any{"a": 1}))
}
