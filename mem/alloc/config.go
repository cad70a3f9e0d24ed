package alloc

import (
	"fmt"
	"strings"
)

// Backing selects the source a BlockList acquires regions from.
type Backing uint8

const (
	// BackingHeap acquires regions from the Go heap.
	BackingHeap Backing = iota
	// BackingMmap acquires regions as anonymous memory mappings where supported,
	// falling back to the Go heap elsewhere.
	BackingMmap
)

// String returns the flag spelling of b.
func (b Backing) String() string {
	switch b {
	case BackingHeap:
		return "heap"
	case BackingMmap:
		return "mmap"
	default:
		return fmt.Sprintf("Backing(%d)", uint8(b))
	}
}

// ParseBacking parses "heap" or "mmap".
func ParseBacking(s string) (Backing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "heap":
		return BackingHeap, nil
	case "mmap":
		return BackingMmap, nil
	default:
		return 0, fmt.Errorf("alloc: unknown backing %q (want heap or mmap)", s)
	}
}

// Config configures a BlockList.
type Config struct {
	// Name for this allocator (for log records)
	Name string

	// Backing selects the built-in source. Ignored when Source is set.
	Backing Backing

	// Limit caps the bytes held from the source. 0 means unlimited.
	Limit int64

	// Source overrides Backing with a caller-provided source.
	Source Source
}

// DefaultConfig is used when New is given a nil config.
var DefaultConfig = Config{
	Name:    "blocklist",
	Backing: BackingHeap,
}
