package darray

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"reflect"

	"github.com/joshuapare/blockvec/internal/logger"
	"github.com/joshuapare/blockvec/mem/alloc"
)

// initialCapacity is the capacity of the first buffer an append allocates.
const initialCapacity = 4

// Array is a growable sequence whose buffer comes from an alloc.Resource.
//
// Slots [0, Len()) hold live elements; slots [Len(), Cap()) are dead. The array
// borrows its resource: the resource must outlive the array, and Close must be
// called to hand the buffer back.
//
// Any call that reallocates, clears, closes or moves from the array invalidates
// pointers, iterators and slices obtained from it earlier.
type Array[T any] struct {
	res    alloc.Resource
	ops    ElemOps[T]
	inline bool // elements may be placed directly in allocator memory

	// raw is nil iff len(slots) == 0
	raw   []byte
	slots []T
	size  int
}

// New creates an empty array. A nil res means alloc.DefaultResource; a nil ops
// means zero-value construction and plain assignment.
func New[T any](res alloc.Resource, ops *ElemOps[T]) *Array[T] {
	if res == nil {
		res = alloc.DefaultResource
	}
	a := &Array[T]{
		res:    res,
		inline: placeable(reflect.TypeFor[T]()),
	}
	if ops != nil {
		a.ops = *ops
	}
	return a
}

// NewSized creates an array holding n default-constructed elements with a
// buffer of exactly n slots. On failure nothing is left allocated.
func NewSized[T any](res alloc.Resource, n int, ops *ElemOps[T]) (*Array[T], error) {
	a := New(res, ops)
	if err := a.Resize(n); err != nil {
		return nil, err
	}
	return a, nil
}

// Len returns the number of live elements.
func (a *Array[T]) Len() int { return a.size }

// Cap returns the number of slots in the buffer.
func (a *Array[T]) Cap() int { return len(a.slots) }

// Empty reports whether the array has no live elements.
func (a *Array[T]) Empty() bool { return a.size == 0 }

// Resource returns the resource the array allocates from.
func (a *Array[T]) Resource() alloc.Resource { return a.res }

// Index returns a pointer to slot i without checking it against Len.
func (a *Array[T]) Index(i int) *T { return &a.slots[i] }

// At returns a pointer to element i, or ErrOutOfRange when i is not below Len.
func (a *Array[T]) At(i int) (*T, error) {
	if i < 0 || i >= a.size {
		return nil, fmt.Errorf("%w: index %d, size %d", ErrOutOfRange, i, a.size)
	}
	return &a.slots[i], nil
}

// Front returns the first element. The array must not be empty.
func (a *Array[T]) Front() *T { return &a.slots[0] }

// Back returns the last element. The array must not be empty.
func (a *Array[T]) Back() *T { return &a.slots[a.size-1] }

// Slice returns the live elements as a slice sharing the array's storage.
func (a *Array[T]) Slice() []T { return a.slots[:a.size:a.size] }

// All yields the index and a pointer to every live element.
func (a *Array[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := range a.size {
			if !yield(i, &a.slots[i]) {
				return
			}
		}
	}
}

// Append copy-constructs v at the end.
func (a *Array[T]) Append(v T) error {
	if err := a.ensureCapacity(); err != nil {
		return err
	}
	if err := a.ops.copyInto(&a.slots[a.size], &v); err != nil {
		return err
	}
	a.size++
	return nil
}

// AppendMove move-constructs *v at the end. v must not point into a.
func (a *Array[T]) AppendMove(v *T) error {
	if err := a.ensureCapacity(); err != nil {
		return err
	}
	a.ops.moveInto(&a.slots[a.size], v)
	a.size++
	return nil
}

// Emplace constructs a new element in place at the end by calling init on the
// dead slot. If init fails the slot stays dead and the error is returned.
func (a *Array[T]) Emplace(init func(slot *T) error) error {
	if err := a.ensureCapacity(); err != nil {
		return err
	}
	slot := &a.slots[a.size]
	var zero T
	*slot = zero
	if err := init(slot); err != nil {
		*slot = zero
		return err
	}
	a.size++
	return nil
}

// PopBack destroys the last element. It does nothing on an empty array.
func (a *Array[T]) PopBack() {
	if a.size == 0 {
		return
	}
	a.size--
	a.ops.destroy(&a.slots[a.size])
}

// Clear destroys every element. The buffer is kept.
func (a *Array[T]) Clear() {
	a.ops.destroyAll(a.slots[:a.size])
	a.size = 0
}

// Resize sets the number of live elements to n.
//
// Growing past Cap moves the elements to a buffer of max(2*Cap, n) slots.
// New elements are default-constructed; trimmed ones are destroyed. If any
// construction or relocation fails the array is left exactly as it was.
func (a *Array[T]) Resize(n int) error {
	switch {
	case n < 0:
		return fmt.Errorf("%w: %d", ErrBadSize, n)
	case n > a.Cap():
		return a.grow(max(a.Cap()*2, n), n)
	case n > a.size:
		if err := a.ops.constructAll(a.slots[a.size:n]); err != nil {
			return err
		}
	case n < a.size:
		a.ops.destroyAll(a.slots[n:a.size])
	}
	a.size = n
	return nil
}

// Clone returns a deep copy of a using the same resource and hooks.
// The copy's buffer has the same capacity as a's.
func (a *Array[T]) Clone() (*Array[T], error) {
	c := &Array[T]{res: a.res, ops: a.ops, inline: a.inline}
	if a.Cap() == 0 {
		return c, nil
	}
	nb, err := c.allocBuffer(a.Cap())
	if err != nil {
		return nil, err
	}
	if err := c.copyElements(nb.slots, a.Slice()); err != nil {
		return nil, c.abandon(nb, err)
	}
	c.raw, c.slots, c.size = nb.raw, nb.slots, a.size
	return c, nil
}

// CopyFrom replaces the contents of a with copies of src's elements.
// The current buffer is reused when it has room for src.Len() elements;
// otherwise it is released and one of src.Cap() slots is allocated. If a copy
// fails, the elements copied so far are destroyed and a is left empty.
func (a *Array[T]) CopyFrom(src *Array[T]) error {
	if src == a {
		return nil
	}
	a.Clear()
	if a.Cap() < src.size {
		if err := a.release(); err != nil {
			return err
		}
		nb, err := a.allocBuffer(src.Cap())
		if err != nil {
			return err
		}
		a.raw, a.slots = nb.raw, nb.slots
	}
	if err := a.copyElements(a.slots, src.Slice()); err != nil {
		return err
	}
	a.size = src.size
	return nil
}

// Move returns a new array that takes over a's buffer, elements, resource and
// hooks. a is left empty with no buffer.
func (a *Array[T]) Move() *Array[T] {
	m := *a
	a.raw, a.slots, a.size = nil, nil, 0
	return &m
}

// MoveFrom closes a and then takes over src's buffer, elements, resource and
// hooks. src is left empty with no buffer. The error, if any, is the one from
// releasing a's previous buffer; the transfer happens regardless.
func (a *Array[T]) MoveFrom(src *Array[T]) error {
	if src == a {
		return nil
	}
	err := a.Close()
	*a = *src
	src.raw, src.slots, src.size = nil, nil, 0
	return err
}

// Close destroys every element and hands the buffer back to the resource.
// The array is empty afterwards and may be reused.
func (a *Array[T]) Close() error {
	a.Clear()
	return a.release()
}

// ensureCapacity makes room for one more element, doubling from initialCapacity.
func (a *Array[T]) ensureCapacity() error {
	if a.size < a.Cap() {
		return nil
	}
	newCap := initialCapacity
	if a.Cap() > 0 {
		newCap = a.Cap() * 2
	}
	return a.grow(newCap, a.size)
}

// grow moves the array into a buffer of newCap slots holding n live elements,
// the ones past a.size default-constructed.
//
// The new tail is constructed and every live element relocated before any old
// element is destroyed or the old buffer released. On failure everything built
// in the new buffer is destroyed, the new buffer is released and the array is
// unchanged.
func (a *Array[T]) grow(newCap, n int) error {
	nb, err := a.allocBuffer(newCap)
	if err != nil {
		return err
	}
	if err := a.ops.constructAll(nb.slots[a.size:n]); err != nil {
		return a.abandon(nb, err)
	}
	if err := a.relocate(nb.slots); err != nil {
		a.ops.destroyAll(nb.slots[a.size:n])
		return a.abandon(nb, err)
	}

	if logger.Enabled(slog.LevelDebug) {
		logger.Debug("darray grow", "from", a.Cap(), "to", newCap, "len", n)
	}

	a.retire(a.slots[:a.size])
	old := buffer[T]{raw: a.raw, slots: a.slots}
	a.raw, a.slots, a.size = nb.raw, nb.slots, n
	return a.freeBuffer(old)
}

// copyElements copy-constructs src into dst. On failure the copies made so far
// are destroyed and dst holds no live elements.
func (a *Array[T]) copyElements(dst, src []T) error {
	for i := range src {
		if err := a.ops.copyInto(&dst[i], &src[i]); err != nil {
			a.ops.destroyAll(dst[:i])
			return err
		}
	}
	return nil
}

// abandon releases a buffer that never became the array's and returns cause.
func (a *Array[T]) abandon(nb buffer[T], cause error) error {
	if err := a.freeBuffer(nb); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// release hands the buffer back; the array keeps no buffer afterwards.
func (a *Array[T]) release() error {
	old := buffer[T]{raw: a.raw, slots: a.slots}
	a.raw, a.slots = nil, nil
	return a.freeBuffer(old)
}
