//go:build linux || darwin || freebsd || netbsd || openbsd

package region

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Mmap acquires regions as private anonymous mappings. Mapped memory lives
// outside the Go heap; the collector neither scans nor reclaims it.
type Mmap struct{}

// Mapped reports whether regions really come from mmap on this platform.
func (Mmap) Mapped() bool { return true }

// Acquire maps n zeroed bytes.
func (Mmap) Acquire(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("region: bad size %d", n)
	}
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		if errors.Is(err, unix.ENOMEM) {
			return nil, fmt.Errorf("%w: mmap %d bytes: %w", ErrExhausted, n, err)
		}
		return nil, fmt.Errorf("region: mmap %d bytes: %w", n, err)
	}
	return b, nil
}

// Release unmaps a region returned by Acquire.
func (Mmap) Release(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("region: munmap %d bytes: %w", len(b), err)
	}
	return nil
}

var _ Source = Mmap{}
