// Package darray provides Array, a growable sequence container whose storage
// comes from an alloc.Resource.
//
// # Memory discipline
//
// An Array tracks its logical length separately from its buffer capacity.
// Appending to a full array allocates a new buffer (4 slots first, then double
// the previous capacity), relocates every element into it, and only then
// destroys the old elements and releases the old buffer. If relocation fails
// part way, the new buffer is torn down and the array is left exactly as it was.
//
// Element lifetimes are explicit: ElemOps supplies default construction, copy,
// move and destruction hooks that the array runs slot by slot.
//
//	bl := alloc.New(nil)
//	defer bl.Close()
//
//	arr := darray.New[int](bl, nil)
//	defer arr.Close()
//	for i := range 10 {
//	    if err := arr.Append(i * i); err != nil {
//	        return err
//	    }
//	}
//	for it := arr.Begin(); !it.Equal(arr.End()); it.Next() {
//	    fmt.Println(*it.Value())
//	}
//
// # Placement
//
// Element types without Go pointers are stored directly in the allocator's
// region when its address is suitably aligned. Other types live in a Go-managed
// slot vector paired with the region, since the collector cannot see pointers
// stored in raw bytes.
//
// # Thread Safety
//
// Arrays are not safe for concurrent use.
package darray
