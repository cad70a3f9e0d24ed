package alloc

import "fmt"

// GoResource allocates straight from the Go heap and leaves reclamation to the
// collector. It keeps no records, so Deallocate cannot detect foreign pointers.
// A GoResource is safe for concurrent use.
type GoResource struct {
	_ byte // distinct instances must have distinct addresses
}

// NewGoResource creates a GoResource.
func NewGoResource() *GoResource { return &GoResource{} }

// DefaultResource is the process-wide resource used when a container is given none.
var DefaultResource Resource = NewGoResource()

// Allocate returns a zeroed region of size bytes.
func (g *GoResource) Allocate(size, _ int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	return make([]byte, size), nil
}

// Deallocate drops the region.
func (g *GoResource) Deallocate([]byte, int) error { return nil }

// Equal reports whether other is this very resource.
func (g *GoResource) Equal(other Resource) bool {
	o, ok := other.(*GoResource)
	return ok && o == g
}

var _ Resource = (*GoResource)(nil)
