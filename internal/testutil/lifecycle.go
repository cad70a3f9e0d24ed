// Package testutil provides element types and helpers for container tests.
package testutil

import (
	"errors"
	"testing"

	"github.com/joshuapare/blockvec/mem/alloc"
	"github.com/joshuapare/blockvec/mem/darray"
)

// ErrInjected is returned by hooks configured to fail.
var ErrInjected = errors.New("testutil: injected failure")

// Lifecycle counts element hook invocations and can inject failures.
type Lifecycle struct {
	Inits    int
	Copies   int
	Moves    int
	Destroys int

	// FailCopyAt makes the Nth Copy call (1-based) fail. 0 disables.
	FailCopyAt int
	// FailInitAt makes the Nth Init call (1-based) fail. 0 disables.
	FailInitAt int

	copyCalls int
	initCalls int
}

// Live returns constructions minus destructions.
func (l *Lifecycle) Live() int {
	return l.Inits + l.Copies + l.Moves - l.Destroys
}

// Tracked is an element holding heap references, so arrays keep it in a
// Go-managed slot vector.
type Tracked struct {
	ID    int
	Name  string
	Tags  []string
	Alive bool
}

// TrackedOps returns hooks for Tracked that report into l.
// Copy deep-copies Tags; Move is left nil so relocation goes through Copy.
func TrackedOps(l *Lifecycle) *darray.ElemOps[Tracked] {
	return &darray.ElemOps[Tracked]{
		Init: func(slot *Tracked) error {
			l.initCalls++
			if l.FailInitAt != 0 && l.initCalls == l.FailInitAt {
				return ErrInjected
			}
			l.Inits++
			slot.Alive = true
			return nil
		},
		Copy: func(dst, src *Tracked) error {
			l.copyCalls++
			if l.FailCopyAt != 0 && l.copyCalls == l.FailCopyAt {
				return ErrInjected
			}
			l.Copies++
			*dst = *src
			dst.Tags = append([]string(nil), src.Tags...)
			dst.Alive = true
			return nil
		},
		Destroy: func(slot *Tracked) {
			l.Destroys++
			slot.Alive = false
		},
	}
}

// MovableOps is TrackedOps with an infallible Move hook.
func MovableOps(l *Lifecycle) *darray.ElemOps[Tracked] {
	ops := TrackedOps(l)
	ops.Move = func(dst, src *Tracked) {
		l.Moves++
		*dst = *src
		dst.Alive = true
		src.Tags = nil
	}
	return ops
}

// ResetCalls restarts the failure-injection counters.
func (l *Lifecycle) ResetCalls() {
	l.copyCalls = 0
	l.initCalls = 0
}

// NewBlockList creates a heap-backed BlockList that is closed when t ends.
func NewBlockList(t testing.TB, cfg *alloc.Config) *alloc.BlockList {
	t.Helper()
	bl := alloc.New(cfg)
	t.Cleanup(func() {
		if err := bl.Close(); err != nil {
			t.Errorf("close allocator: %v", err)
		}
	})
	return bl
}
