//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package region

// Mmap falls back to the Go heap where anonymous mappings are not wired up.
type Mmap struct{ Heap }

// Mapped reports whether regions really come from mmap on this platform.
func (Mmap) Mapped() bool { return false }

var _ Source = Mmap{}
