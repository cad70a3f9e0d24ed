// Package alloc provides byte-extent allocators for containers.
//
// # Overview
//
// The core abstraction is the Resource interface:
//
//   - Allocate(size, alignment): obtain a region of exactly size bytes
//   - Deallocate(p, size): hand a region back
//   - Equal(other): identity; memory from one resource never goes to another
//
// # Implementations
//
// BlockList: first-fit free-list allocator
//
//   - Two partitions of block records: allocated and free
//   - First fit over the free partition, most recently freed first
//   - Oversized free blocks are split; the tail goes to the free head
//   - No coalescing of adjacent free blocks
//   - Regions come from a Source (Go heap or anonymous mmap) and are only
//     released on Close
//
// GoResource: process-wide resource over the Go heap, used as DefaultResource.
//
// # Usage Example
//
//	bl := alloc.New(nil)
//	defer bl.Close()
//
//	p, err := bl.Allocate(64, 8)
//	if err != nil {
//	    return err
//	}
//	// use p...
//	if err := bl.Deallocate(p, 64); err != nil {
//	    return err // alloc.ErrNotAllocated on double free
//	}
//
// # Block Records
//
// Records live in an index-addressed arena and are chained into their partition
// by index, so moving a record between partitions is an unlink plus a push at
// the head. A record is created when a region is acquired or split, moved on
// deallocation, and dropped only when the allocator is closed.
//
// # Alignment
//
// The alignment argument is accepted but not enforced. Fresh regions carry the
// source's alignment; split tails start wherever the previous block ended.
//
// # Thread Safety
//
// BlockList instances are not thread-safe. Callers must synchronize access
// externally. GoResource is safe for concurrent use.
//
// # Logging
//
// Allocator events are logged at debug level through the process logger. Set
// BLOCKVEC_LOG_ALLOC=1 to send them to stderr.
package alloc
