package alloc

import (
	"errors"

	"github.com/joshuapare/blockvec/internal/region"
)

var (
	// ErrNotAllocated indicates a Deallocate of an address this allocator does not
	// currently hold as allocated: a double free or a foreign pointer.
	ErrNotAllocated = errors.New("alloc: address not allocated by this resource")

	// ErrExhausted indicates that the underlying source could not supply memory.
	ErrExhausted = region.ErrExhausted

	// ErrBadSize indicates a request for zero or negative bytes.
	ErrBadSize = errors.New("alloc: size must be positive")

	// ErrClosed indicates use of an allocator after Close.
	ErrClosed = errors.New("alloc: closed")
)
