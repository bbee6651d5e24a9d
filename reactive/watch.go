package reactive

import "reflect"

// Watch subscribes cb to changes in the value read returns, reporting the
// new and previous value. It reduces to an effect that diffs old/new (spec
// §4.5 "Watches": "Semantics reduce to an effect that diffs old/new").
//
// cb is not called for the initial read — only on subsequent changes — and
// is skipped if the new value deep-equals the previous one (a write to a
// tracked key can fire without the externally visible value changing, e.g.
// an Object.Set that changes one field read doesn't affect).
func Watch[T any](rt *Runtime, read func() T, cb func(newValue, oldValue T), opts EffectOptions) *Effect {
	first := true
	var prev T
	return CreateEffect(rt, func() func() {
		current := read()
		if first {
			first = false
			prev = current
			return nil
		}
		old := prev
		prev = current
		if !reflect.DeepEqual(old, current) {
			cb(current, old)
		}
		return nil
	}, opts)
}
