package alloc

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshuapare/blockvec/internal/buf"
	"github.com/joshuapare/blockvec/internal/logger"
	"github.com/joshuapare/blockvec/internal/region"
)

// nilIndex terminates a partition chain.
const nilIndex int32 = -1

// partition tags which chain a record is linked into.
type partition uint8

const (
	partNone partition = iota
	partAllocated
	partFree
)

// blockRecord is one entry of the record arena.
// Records are linked into exactly one partition chain by index.
type blockRecord struct {
	addr Addr
	size int
	mem  []byte // view of the block, len == cap == size
	part partition
	prev int32
	next int32
}

// blockChain is a doubly linked, head-first list of record indices.
type blockChain struct {
	head  int32
	count int
	bytes int
}

// Stats holds allocator counters.
type Stats struct {
	Acquisitions  int   // Regions acquired from the source
	AcquiredBytes int64 // Total bytes acquired from the source
	AllocCalls    int   // Successful Allocate calls
	Reuses        int   // Allocations served from the free partition
	Splits        int   // Free blocks split to serve a smaller request
	FreeCalls     int   // Successful Deallocate calls

	AllocatedBlocks int // Records in the allocated partition
	FreeBlocks      int // Records in the free partition
	AllocatedBytes  int // Bytes in the allocated partition
	FreeBytes       int // Bytes in the free partition
}

// BlockList is a first-fit free-list allocator.
//
// It keeps two partitions of block records, allocated and free. Allocation scans
// the free partition head-first and takes the first block that is large enough,
// splitting off any leftover as a new free block at the head. Deallocation moves
// the record to the free head in O(1) once found. Adjacent free blocks are never
// merged, so fragmentation grows with the workload. Nothing is handed back to the
// source until Close.
//
// A BlockList is not safe for concurrent use.
type BlockList struct {
	name string
	src  Source

	// Record arena; chains link records by index.
	records   []blockRecord
	allocated blockChain
	free      blockChain

	// Regions acquired from src, released once each on Close.
	segments [][]byte

	stats  Stats
	closed bool
}

// New creates a BlockList from cfg. A nil cfg means DefaultConfig.
func New(cfg *Config) *BlockList {
	if cfg == nil {
		cfg = &DefaultConfig
	}

	src := cfg.Source
	if src == nil {
		switch cfg.Backing {
		case BackingMmap:
			src = region.Mmap{}
		default:
			src = region.Heap{}
		}
	}
	if cfg.Limit > 0 {
		src = region.NewLimit(src, cfg.Limit)
	}

	name := cfg.Name
	if name == "" {
		name = DefaultConfig.Name
	}

	return &BlockList{
		name:      name,
		src:       src,
		allocated: blockChain{head: nilIndex},
		free:      blockChain{head: nilIndex},
	}
}

// Allocate returns a block of exactly size bytes.
//
// The free partition is searched first-fit, most recently freed first. A larger
// block is split and its tail goes back to the free head. When nothing fits, a
// fresh region of exactly size bytes is acquired from the source; source errors
// are returned as they are.
//
// alignment is not enforced: the block is aligned only as well as the source and
// earlier splits leave it.
func (bl *BlockList) Allocate(size, alignment int) ([]byte, error) {
	if bl.closed {
		return nil, ErrClosed
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}

	for i := bl.free.head; i != nilIndex; i = bl.records[i].next {
		if bl.records[i].size < size {
			continue
		}

		found := bl.records[i]
		bl.unlink(&bl.free, i)

		if rem := found.size - size; rem > 0 {
			view, _ := buf.Slice(found.mem, size, rem)
			tail := bl.newRecord(found.addr+Addr(size), rem, view)
			bl.pushFront(&bl.free, tail, partFree)
			bl.stats.Splits++
			bl.debug("split", "addr", found.addr, "size", found.size, "need", size, "remainder", rem)
		}

		rec := &bl.records[i]
		rec.size = size
		rec.mem = rec.mem[:size:size]
		bl.pushFront(&bl.allocated, i, partAllocated)

		bl.stats.AllocCalls++
		bl.stats.Reuses++
		bl.checkAlignment(rec.addr, alignment)
		return rec.mem, nil
	}

	seg, err := bl.src.Acquire(size)
	if err != nil {
		bl.debug("acquire failed", "need", size, "err", err)
		return nil, err
	}
	bl.segments = append(bl.segments, seg)
	bl.stats.Acquisitions++
	bl.stats.AcquiredBytes += int64(len(seg))

	mem, ok := buf.Slice(seg, 0, size)
	if !ok {
		return nil, fmt.Errorf("alloc: source returned %d bytes, want %d", len(seg), size)
	}
	idx := bl.newRecord(AddrOf(mem), size, mem)
	bl.pushFront(&bl.allocated, idx, partAllocated)

	bl.stats.AllocCalls++
	bl.debug("acquire", "addr", AddrOf(mem), "size", size)
	bl.checkAlignment(AddrOf(mem), alignment)
	return mem, nil
}

// Deallocate moves the block starting at p back to the free partition.
// size is advisory; the block keeps the size it was allocated with.
// It returns ErrNotAllocated when p does not start a currently allocated block.
func (bl *BlockList) Deallocate(p []byte, size int) error {
	if bl.closed {
		return ErrClosed
	}
	addr := AddrOf(p)

	for i := bl.allocated.head; i != nilIndex; i = bl.records[i].next {
		if bl.records[i].addr != addr {
			continue
		}
		if bl.records[i].size != size {
			bl.debug("size mismatch on free", "addr", addr, "recorded", bl.records[i].size, "given", size)
		}
		bl.unlink(&bl.allocated, i)
		bl.pushFront(&bl.free, i, partFree)
		bl.stats.FreeCalls++
		bl.debug("free", "addr", addr, "size", bl.records[i].size)
		return nil
	}

	return fmt.Errorf("%w: %#x", ErrNotAllocated, addr)
}

// Equal reports whether other is this very allocator.
func (bl *BlockList) Equal(other Resource) bool {
	o, ok := other.(*BlockList)
	return ok && o == bl
}

// Close hands every acquired region back to the source exactly once and drops
// all block records. Blocks still allocated become invalid. Close is idempotent.
func (bl *BlockList) Close() error {
	if bl.closed {
		return nil
	}

	var errs []error
	for _, seg := range bl.segments {
		if err := bl.src.Release(seg); err != nil {
			errs = append(errs, err)
		}
	}
	bl.debug("close", "segments", len(bl.segments), "bytes", bl.stats.AcquiredBytes)

	bl.segments = nil
	bl.records = nil
	bl.allocated = blockChain{head: nilIndex}
	bl.free = blockChain{head: nilIndex}
	bl.closed = true

	return errors.Join(errs...)
}

// Stats returns a snapshot of the allocator counters.
func (bl *BlockList) Stats() Stats {
	s := bl.stats
	s.AllocatedBlocks = bl.allocated.count
	s.FreeBlocks = bl.free.count
	s.AllocatedBytes = bl.allocated.bytes
	s.FreeBytes = bl.free.bytes
	return s
}

// AllocatedBlocks lists the allocated partition, head first.
func (bl *BlockList) AllocatedBlocks() []Block {
	return bl.walk(bl.allocated)
}

// FreeBlocks lists the free partition, head first.
func (bl *BlockList) FreeBlocks() []Block {
	return bl.walk(bl.free)
}

// Name returns the name used in log records.
func (bl *BlockList) Name() string { return bl.name }

func (bl *BlockList) walk(c blockChain) []Block {
	out := make([]Block, 0, c.count)
	for i := c.head; i != nilIndex; i = bl.records[i].next {
		out = append(out, Block{Addr: bl.records[i].addr, Size: bl.records[i].size})
	}
	return out
}

func (bl *BlockList) newRecord(addr Addr, size int, mem []byte) int32 {
	bl.records = append(bl.records, blockRecord{
		addr: addr,
		size: size,
		mem:  mem,
		prev: nilIndex,
		next: nilIndex,
	})
	return int32(len(bl.records) - 1)
}

func (bl *BlockList) unlink(c *blockChain, i int32) {
	r := &bl.records[i]
	if r.prev != nilIndex {
		bl.records[r.prev].next = r.next
	} else {
		c.head = r.next
	}
	if r.next != nilIndex {
		bl.records[r.next].prev = r.prev
	}
	r.prev, r.next = nilIndex, nilIndex
	r.part = partNone
	c.count--
	c.bytes -= r.size
}

func (bl *BlockList) pushFront(c *blockChain, i int32, p partition) {
	r := &bl.records[i]
	r.prev = nilIndex
	r.next = c.head
	if c.head != nilIndex {
		bl.records[c.head].prev = i
	}
	c.head = i
	r.part = p
	c.count++
	c.bytes += r.size
}

func (bl *BlockList) checkAlignment(addr Addr, alignment int) {
	if alignment > 1 && addr%Addr(alignment) != 0 {
		bl.debug("alignment not honored", "addr", addr, "alignment", alignment)
	}
}

func (bl *BlockList) debug(msg string, args ...any) {
	if !logger.Enabled(slog.LevelDebug) {
		return
	}
	logger.Debug(msg, append([]any{"allocator", bl.name}, args...)...)
}

// Compile-time interface check
var _ Resource = (*BlockList)(nil)
