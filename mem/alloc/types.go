package alloc

import (
	"unsafe"

	"github.com/joshuapare/blockvec/internal/region"
)

// Addr is the address of the first byte of a block. It identifies the block.
type Addr = uintptr

// Source is the environment an allocator acquires fresh regions from.
type Source = region.Source

// Block describes one block record: where it starts and how many bytes it spans.
type Block struct {
	Addr Addr
	Size int
}

// Resource is the contract every allocator backing a container satisfies.
//
// Implementations:
//   - BlockList: first-fit free-list allocator with recency-ordered reuse
//   - GoResource: process-wide resource over the Go heap
type Resource interface {
	// Allocate returns a region of exactly size bytes.
	// alignment is advisory; see the implementation for what is guaranteed.
	Allocate(size, alignment int) ([]byte, error)

	// Deallocate returns a region obtained from Allocate on the same resource.
	Deallocate(p []byte, size int) error

	// Equal reports whether memory from one resource may be released through the other.
	Equal(other Resource) bool
}

// AddrOf returns the address identifying p. A nil or zero-capacity slice has address 0.
func AddrOf(p []byte) Addr {
	if cap(p) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(p)))
}
