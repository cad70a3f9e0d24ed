package darray

import "unsafe"

// Iterator is an unchecked forward cursor over an array's slots.
type Iterator[T any] struct {
	slots []T
	pos   int
}

// Begin returns an iterator at the first element.
func (a *Array[T]) Begin() Iterator[T] { return Iterator[T]{slots: a.slots, pos: 0} }

// End returns an iterator one past the last element.
func (a *Array[T]) End() Iterator[T] { return Iterator[T]{slots: a.slots, pos: a.size} }

// Value returns the element under the cursor.
func (it Iterator[T]) Value() *T { return &it.slots[it.pos] }

// Next advances the cursor and returns it (pre-increment).
func (it *Iterator[T]) Next() *Iterator[T] {
	it.pos++
	return it
}

// PostNext advances the cursor and returns its previous position (post-increment).
func (it *Iterator[T]) PostNext() Iterator[T] {
	prev := *it
	it.pos++
	return prev
}

// Equal reports whether both iterators point at the same slot of the same buffer.
func (it Iterator[T]) Equal(other Iterator[T]) bool {
	return unsafe.SliceData(it.slots) == unsafe.SliceData(other.slots) && it.pos == other.pos
}
