// Package region supplies raw memory regions to allocators.
//
// A Source is the environment an allocator grows from. Regions returned by
// Acquire must later be handed back to Release unchanged (same slice header),
// exactly once.
package region

import (
	"errors"
	"fmt"
)

// ErrExhausted indicates that a source could not supply the requested bytes.
var ErrExhausted = errors.New("region: exhausted")

// Source acquires and releases raw memory regions.
type Source interface {
	// Acquire returns a zeroed region of exactly n bytes.
	Acquire(n int) ([]byte, error)

	// Release returns a region previously obtained from Acquire.
	Release(b []byte) error
}

// Heap acquires regions from the Go heap. Release is a no-op; the collector
// reclaims regions once nothing references them.
type Heap struct{}

// Acquire allocates n bytes on the Go heap.
func (Heap) Acquire(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("region: bad size %d", n)
	}
	return make([]byte, n), nil
}

// Release drops the region.
func (Heap) Release([]byte) error { return nil }

// Limit caps the number of bytes a wrapped source may have outstanding.
type Limit struct {
	src  Source
	max  int64
	used int64
}

// NewLimit wraps src so that at most max bytes are held at any time.
func NewLimit(src Source, max int64) *Limit {
	return &Limit{src: src, max: max}
}

// Acquire forwards to the wrapped source unless the budget would be exceeded.
func (l *Limit) Acquire(n int) ([]byte, error) {
	if int64(n) > l.max-l.used {
		return nil, fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrExhausted, n, l.used, l.max)
	}
	b, err := l.src.Acquire(n)
	if err != nil {
		return nil, err
	}
	l.used += int64(len(b))
	return b, nil
}

// Release forwards to the wrapped source and returns the bytes to the budget.
func (l *Limit) Release(b []byte) error {
	if err := l.src.Release(b); err != nil {
		return err
	}
	l.used -= int64(len(b))
	return nil
}

// Used reports the bytes currently held through this limit.
func (l *Limit) Used() int64 { return l.used }

var (
	_ Source = Heap{}
	_ Source = (*Limit)(nil)
)
