// Package buf contains overflow-checked arithmetic for sizing byte extents.
package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies a and b, returning ok = false when the result would overflow int.
func MulOverflowSafe(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > 0 && b > 0 && a > math.MaxInt/b {
		return 0, false
	}
	if a < 0 && b < 0 && a < math.MaxInt/b {
		return 0, false
	}
	if a > 0 && b < 0 && b < math.MinInt/a {
		return 0, false
	}
	if a < 0 && b > 0 && a < math.MinInt/b {
		return 0, false
	}
	return a * b, true
}

// ExtentBytes returns the byte size of count slots of elemSize bytes each.
// Zero-sized elements still occupy one byte per slot so that every non-empty
// extent has a distinct address.
//
//	n, err := buf.ExtentBytes(capacity, int(unsafe.Sizeof(v)))
//	if err != nil {
//	    return fmt.Errorf("grow: %w", err)
//	}
func ExtentBytes(count, elemSize int) (int, error) {
	if count < 0 {
		return 0, fmt.Errorf("negative count: %d", count)
	}
	if elemSize < 0 {
		return 0, fmt.Errorf("negative element size: %d", elemSize)
	}
	if elemSize == 0 {
		elemSize = 1
	}
	total, ok := MulOverflowSafe(count, elemSize)
	if !ok {
		return 0, fmt.Errorf("overflow: count=%d * elemSize=%d", count, elemSize)
	}
	return total, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
// The result has its capacity clipped to n so appends cannot reach past it.
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}
