package darray

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/joshuapare/blockvec/internal/buf"
)

// buffer pairs an allocator region with the slots living in it.
//
// When the element type holds no Go pointers and the region start satisfies its
// alignment, slots is a typed view of raw itself. Otherwise slots is a separate
// Go-managed vector: the collector cannot trace pointers kept in untyped bytes,
// and mapped regions are invisible to it entirely. raw is requested, sized and
// released the same way in both cases.
type buffer[T any] struct {
	raw   []byte
	slots []T
}

// placeable reports whether values of t may be stored in untyped memory.
func placeable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || placeable(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !placeable(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// slotsFor returns n dead (zeroed) slots backed by raw when possible.
func slotsFor[T any](raw []byte, n int, inline bool) []T {
	if n == 0 {
		return nil
	}
	var zero T
	p := unsafe.Pointer(unsafe.SliceData(raw))
	if inline && unsafe.Sizeof(zero) > 0 && uintptr(p)%unsafe.Alignof(zero) == 0 {
		s := unsafe.Slice((*T)(p), n)
		clear(s)
		return s
	}
	return make([]T, n)
}

// allocBuffer obtains a buffer of n slots from the resource.
// Resource errors are returned as they are.
func (a *Array[T]) allocBuffer(n int) (buffer[T], error) {
	var zero T
	size, err := buf.ExtentBytes(n, int(unsafe.Sizeof(zero)))
	if err != nil {
		return buffer[T]{}, fmt.Errorf("%w: %w", ErrTooLarge, err)
	}
	raw, err := a.res.Allocate(size, int(unsafe.Alignof(zero)))
	if err != nil {
		return buffer[T]{}, err
	}
	return buffer[T]{raw: raw, slots: slotsFor[T](raw, n, a.inline)}, nil
}

// freeBuffer hands b's region back to the resource.
func (a *Array[T]) freeBuffer(b buffer[T]) error {
	if b.raw == nil {
		return nil
	}
	return a.res.Deallocate(b.raw, len(b.raw))
}

// relocate transfers the live elements into dst[:a.size] without touching the
// current slots' liveness. On failure dst holds no live elements.
func (a *Array[T]) relocate(dst []T) error {
	src := a.slots[:a.size]
	switch {
	case a.ops.Move != nil:
		for i := range src {
			a.ops.moveInto(&dst[i], &src[i])
		}
	case a.ops.Copy != nil:
		for i := range src {
			if err := a.ops.copyInto(&dst[i], &src[i]); err != nil {
				a.ops.destroyAll(dst[:i])
				return err
			}
		}
	default:
		copy(dst, src)
	}
	return nil
}

// retire ends the lifetime of the relocated-from slots.
// Moved-from and copied-from elements are destroyed; values transferred by
// plain assignment now belong to the new buffer and are only zeroed.
func (a *Array[T]) retire(src []T) {
	if a.ops.Move != nil || a.ops.Copy != nil {
		a.ops.destroyAll(src)
		return
	}
	clear(src)
}
