// Package refval implements the reference-counted value wrapper: an
// opaque payload plus an optional cleanup callback, kept alive by an
// atomic count so the context (chctx) can safely share a value across a
// set/retain/release lifecycle without knowing its concrete type.
package refval

import (
	"sync/atomic"

	"github.com/danshapiro/coretiny/corerr"
)

// Cleanup is invoked on a value's payload when its last reference is
// released. It is never called more than once.
type Cleanup func(data any)

// Value is the ref-counted wrapper. Zero value is not usable; construct
// with New. All methods are safe for concurrent use.
type Value struct {
	data    any
	cleanup Cleanup
	count   atomic.Uint64
}

// New creates a Value with an initial reference count of 1.
func New(data any, cleanup Cleanup) *Value {
	v := &Value{data: data, cleanup: cleanup}
	v.count.Store(1)
	return v
}

// Retain increments the reference count. It reports Overflow if the count
// is already at its maximum representable value, matching the source
// library's overflow-checked fetch_add.
func (v *Value) Retain() error {
	if v == nil {
		return corerr.New(corerr.NullPointer, corerr.DetailFull, "retain on nil value")
	}
	for {
		old := v.count.Load()
		if old == ^uint64(0) {
			return corerr.New(corerr.Overflow, corerr.DetailFull, "reference count overflow")
		}
		if v.count.CompareAndSwap(old, old+1) {
			return nil
		}
	}
}

// Release decrements the reference count and, if it reaches zero, invokes
// the cleanup callback exactly once (only when both the callback and the
// payload are non-nil). Releasing more times than a value was
// retained is a caller error (count would underflow); callers must not do
// this, mirroring the source's unchecked fetch_sub.
func (v *Value) Release() error {
	if v == nil {
		return corerr.New(corerr.NullPointer, corerr.DetailFull, "release on nil value")
	}
	old := v.count.Add(^uint64(0)) + 1 // fetch-then-subtract-one, like ec_atomic_fetch_sub
	if old == 1 {
		if v.cleanup != nil && v.data != nil {
			v.cleanup(v.data)
		}
	}
	return nil
}

// Data returns the wrapped payload without adjusting the reference count.
func (v *Value) Data() any {
	if v == nil {
		return nil
	}
	return v.data
}

// Count returns the current reference count. It is advisory, for tests and
// diagnostics; it may be stale the instant it is read under concurrency.
func (v *Value) Count() uint64 {
	if v == nil {
		return 0
	}
	return v.count.Load()
}
