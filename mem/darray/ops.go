package darray

// ElemOps are the per-slot lifecycle hooks of an Array.
//
// Every hook is optional:
//   - Init nil: a constructed slot holds the zero value
//   - Copy nil: copy construction is plain assignment and cannot fail
//   - Move nil: move construction transfers the value and zeroes the source
//     without destroying it
//   - Destroy nil: destruction only zeroes the slot
//
// A non-nil Move must not fail and must leave src in a state Destroy accepts.
// Relocation during growth prefers Move, then Copy, then plain assignment.
type ElemOps[T any] struct {
	Init    func(slot *T) error
	Copy    func(dst, src *T) error
	Move    func(dst, src *T)
	Destroy func(slot *T)
}

// construct default-constructs slot. On failure the slot is left zeroed.
func (o *ElemOps[T]) construct(slot *T) error {
	var zero T
	*slot = zero
	if o.Init == nil {
		return nil
	}
	if err := o.Init(slot); err != nil {
		*slot = zero
		return err
	}
	return nil
}

// copyInto copy-constructs dst from src. On failure dst is left zeroed.
func (o *ElemOps[T]) copyInto(dst, src *T) error {
	if o.Copy == nil {
		*dst = *src
		return nil
	}
	var zero T
	*dst = zero
	if err := o.Copy(dst, src); err != nil {
		*dst = zero
		return err
	}
	return nil
}

// moveInto move-constructs dst from src.
func (o *ElemOps[T]) moveInto(dst, src *T) {
	var zero T
	if o.Move == nil {
		*dst = *src
		*src = zero
		return
	}
	*dst = zero
	o.Move(dst, src)
}

// destroy ends the lifetime of the value in slot.
func (o *ElemOps[T]) destroy(slot *T) {
	if o.Destroy != nil {
		o.Destroy(slot)
	}
	var zero T
	*slot = zero
}

// destroyAll destroys every slot in s.
func (o *ElemOps[T]) destroyAll(s []T) {
	if o.Destroy == nil {
		clear(s)
		return
	}
	for i := range s {
		o.destroy(&s[i])
	}
}

// constructAll default-constructs every slot in s. On failure the slots
// constructed so far are destroyed again and the error is returned.
func (o *ElemOps[T]) constructAll(s []T) error {
	for i := range s {
		if err := o.construct(&s[i]); err != nil {
			o.destroyAll(s[:i])
			return err
		}
	}
	return nil
}
