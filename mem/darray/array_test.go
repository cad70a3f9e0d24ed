package darray_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/blockvec/internal/testutil"
	"github.com/joshuapare/blockvec/mem/alloc"
	"github.com/joshuapare/blockvec/mem/darray"
)

func Test_Array_NewEmpty(t *testing.T) {
	bl := testutil.NewBlockList(t, nil)
	a := darray.New[int](bl, nil)

	require.Zero(t, a.Len())
	require.Zero(t, a.Cap())
	require.True(t, a.Empty())
	require.True(t, a.Resource().Equal(bl))
	require.Zero(t, bl.Stats().AllocCalls, "an empty array allocates nothing")
	require.NoError(t, a.Close())
}

func Test_Array_NilResourceUsesDefault(t *testing.T) {
	a := darray.New[string](nil, nil)
	require.True(t, a.Resource().Equal(alloc.DefaultResource))

	require.NoError(t, a.Append("x"))
	require.Equal(t, "x", *a.Front())
	require.NoError(t, a.Close())
}

func Test_Array_GrowthDoublesFromFour(t *testing.T) {
	for _, n := range []int{1, 4, 5, 9, 33, 100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			bl := testutil.NewBlockList(t, nil)
			a := darray.New[int64](bl, nil)
			defer a.Close()

			var caps []int
			last := -1
			for i := range n {
				require.NoError(t, a.Append(int64(i)))
				if a.Cap() != last {
					caps = append(caps, a.Cap())
					last = a.Cap()
				}
			}

			require.Equal(t, n, a.Len())
			require.GreaterOrEqual(t, a.Cap(), n)
			want := 4
			for _, c := range caps {
				require.Equal(t, want, c)
				want *= 2
			}
			for i := range n {
				v, err := a.At(i)
				require.NoError(t, err)
				require.EqualValues(t, i, *v)
			}
		})
	}
}

func Test_Array_ResizeGrowthJump(t *testing.T) {
	bl := testutil.NewBlockList(t, nil)
	a := darray.New[int](bl, nil)
	defer a.Close()

	require.NoError(t, a.Append(1))
	require.Equal(t, 4, a.Cap())

	// Larger than double: exact jump.
	require.NoError(t, a.Resize(20))
	require.Equal(t, 20, a.Cap())
	require.Equal(t, 20, a.Len())
	require.Equal(t, 1, *a.Front())
	require.Equal(t, 0, *a.Back(), "new slots are default-constructed")

	// Smaller than double: doubling wins.
	require.NoError(t, a.Resize(21))
	require.Equal(t, 40, a.Cap())

	// Appends continue doubling from the jumped capacity.
	require.NoError(t, a.Resize(40))
	require.NoError(t, a.Append(7))
	require.Equal(t, 80, a.Cap())
	require.Equal(t, 7, *a.Back())
}

func Test_Array_AtOutOfRange(t *testing.T) {
	bl := testutil.NewBlockList(t, nil)
	a := darray.New[int](bl, nil)
	defer a.Close()

	for n := range 10 {
		_, err := a.At(a.Len())
		require.ErrorIs(t, err, darray.ErrOutOfRange, "len %d", n)
		_, err = a.At(-1)
		require.ErrorIs(t, err, darray.ErrOutOfRange)
		require.NoError(t, a.Append(n))
	}

	// Dead slots past Len are out of range even though they exist in the buffer.
	a.PopBack()
	require.Greater(t, a.Cap(), a.Len())
	_, err := a.At(a.Len())
	require.ErrorIs(t, err, darray.ErrOutOfRange)
}

func Test_Array_AccessorsAndIndex(t *testing.T) {
	a := darray.New[string](testutil.NewBlockList(t, nil), nil)
	defer a.Close()

	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, a.Append(s))
	}
	require.Equal(t, "a", *a.Front())
	require.Equal(t, "c", *a.Back())
	require.Equal(t, "b", *a.Index(1))

	*a.Index(1) = "B"
	v, err := a.At(1)
	require.NoError(t, err)
	require.Equal(t, "B", *v)
	require.Equal(t, []string{"a", "B", "c"}, a.Slice())
}

func Test_Array_PopBackAndClear(t *testing.T) {
	l := &testutil.Lifecycle{}
	a := darray.New(testutil.NewBlockList(t, nil), testutil.TrackedOps(l))
	defer a.Close()

	a.PopBack() // no-op when empty
	require.Zero(t, l.Destroys)

	for i := range 6 {
		require.NoError(t, a.Append(testutil.Tracked{ID: i}))
	}
	capBefore := a.Cap()

	a.PopBack()
	require.Equal(t, 5, a.Len())
	require.Equal(t, 4, a.Back().ID)
	require.False(t, a.Index(5).Alive, "popped slot is dead")

	destroysBefore := l.Destroys
	a.Clear()
	require.Zero(t, a.Len())
	require.Equal(t, capBefore, a.Cap(), "clear keeps the buffer")
	require.Equal(t, destroysBefore+5, l.Destroys)
	require.Zero(t, l.Live())
}

func Test_Array_ResizeShrinkDestroysTrimmed(t *testing.T) {
	for _, tc := range []struct{ from, to int }{{10, 3}, {10, 0}, {5, 4}, {7, 7}} {
		t.Run(fmt.Sprintf("%d_to_%d", tc.from, tc.to), func(t *testing.T) {
			l := &testutil.Lifecycle{}
			a, err := darray.NewSized(testutil.NewBlockList(t, nil), tc.from, testutil.TrackedOps(l))
			require.NoError(t, err)
			defer a.Close()

			require.Equal(t, tc.from, l.Inits)
			capBefore := a.Cap()

			require.NoError(t, a.Resize(tc.to))
			require.Equal(t, tc.from-tc.to, l.Destroys)
			require.Equal(t, tc.to, a.Len())
			require.Equal(t, capBefore, a.Cap())
		})
	}
}

func Test_Array_ResizeWithinCapacity(t *testing.T) {
	l := &testutil.Lifecycle{}
	a := darray.New(testutil.NewBlockList(t, nil), testutil.TrackedOps(l))
	defer a.Close()

	require.NoError(t, a.Append(testutil.Tracked{ID: 1}))
	require.Equal(t, 4, a.Cap())

	require.NoError(t, a.Resize(3))
	require.Equal(t, 3, a.Len())
	require.Equal(t, 4, a.Cap())
	require.Equal(t, 2, l.Inits)
	require.True(t, a.Index(2).Alive)

	require.ErrorIs(t, a.Resize(-1), darray.ErrBadSize)
	require.Equal(t, 3, a.Len())
}

func Test_Array_ResizeInitFailureRollsBack(t *testing.T) {
	l := &testutil.Lifecycle{}
	bl := testutil.NewBlockList(t, nil)
	a := darray.New(bl, testutil.TrackedOps(l))
	defer a.Close()

	require.NoError(t, a.Append(testutil.Tracked{ID: 1}))

	// Within capacity: third new slot fails.
	l.ResetCalls()
	l.FailInitAt = 3
	err := a.Resize(4)
	require.ErrorIs(t, err, testutil.ErrInjected)
	require.Equal(t, 1, a.Len())
	require.Equal(t, 1, l.Live())

	// Past capacity: new buffer is torn down and released.
	l.ResetCalls()
	l.FailInitAt = 5
	statsBefore := bl.Stats()
	err = a.Resize(10)
	require.ErrorIs(t, err, testutil.ErrInjected)
	require.Equal(t, 1, a.Len())
	require.Equal(t, 4, a.Cap())
	require.Equal(t, 1, l.Live())
	require.Equal(t, statsBefore.AllocatedBlocks, bl.Stats().AllocatedBlocks)
	require.Equal(t, statsBefore.FreeCalls+1, bl.Stats().FreeCalls)
}

func Test_Array_NewSized(t *testing.T) {
	l := &testutil.Lifecycle{}
	bl := testutil.NewBlockList(t, nil)

	a, err := darray.NewSized(bl, 5, testutil.TrackedOps(l))
	require.NoError(t, err)
	require.Equal(t, 5, a.Len())
	require.Equal(t, 5, a.Cap())
	require.Equal(t, 5, l.Inits)
	for it := a.Begin(); !it.Equal(a.End()); it.Next() {
		require.True(t, it.Value().Alive)
	}

	empty, err := darray.NewSized[int](bl, 0, nil)
	require.NoError(t, err)
	require.Zero(t, empty.Cap())

	_, err = darray.NewSized[int](bl, -2, nil)
	require.ErrorIs(t, err, darray.ErrBadSize)

	require.NoError(t, a.Close())
	require.Zero(t, l.Live())
}

func Test_Array_NewSizedFailureLeavesNothing(t *testing.T) {
	l := &testutil.Lifecycle{FailInitAt: 4}
	bl := testutil.NewBlockList(t, nil)

	a, err := darray.NewSized(bl, 6, testutil.TrackedOps(l))
	require.ErrorIs(t, err, testutil.ErrInjected)
	require.Nil(t, a)
	require.Zero(t, l.Live())
	require.Zero(t, bl.Stats().AllocatedBlocks, "the buffer must be released")

	exhausted := testutil.NewBlockList(t, &alloc.Config{Limit: 16})
	_, err = darray.NewSized[int64](exhausted, 8, nil)
	require.ErrorIs(t, err, alloc.ErrExhausted)
}

func Test_Array_CopyIndependence(t *testing.T) {
	for _, n := range []int{0, 1, 4, 17} {
		t.Run(fmt.Sprintf("ints_%d", n), func(t *testing.T) {
			a := darray.New[int](testutil.NewBlockList(t, nil), nil)
			defer a.Close()
			for i := range n {
				require.NoError(t, a.Append(i))
			}

			c, err := a.Clone()
			require.NoError(t, err)
			defer c.Close()
			require.Equal(t, a.Len(), c.Len())
			require.Equal(t, a.Cap(), c.Cap())

			for i := range c.Len() {
				*c.Index(i) = -1
			}
			require.NoError(t, c.Append(99))
			for i := range n {
				require.Equal(t, i, *a.Index(i))
			}
			require.Equal(t, n, a.Len())
		})
	}

	t.Run("tracked", func(t *testing.T) {
		l := &testutil.Lifecycle{}
		a := darray.New(testutil.NewBlockList(t, nil), testutil.TrackedOps(l))
		defer a.Close()
		require.NoError(t, a.Append(testutil.Tracked{ID: 1, Name: "alice", Tags: []string{"x", "y"}}))

		c, err := a.Clone()
		require.NoError(t, err)
		defer c.Close()

		c.Front().Name = "mallory"
		c.Front().Tags[0] = "changed"
		require.Equal(t, "alice", a.Front().Name)
		require.Equal(t, []string{"x", "y"}, a.Front().Tags)
	})
}

func Test_Array_CloneFailure(t *testing.T) {
	l := &testutil.Lifecycle{}
	bl := testutil.NewBlockList(t, nil)
	a := darray.New(bl, testutil.TrackedOps(l))
	defer a.Close()
	for i := range 3 {
		require.NoError(t, a.Append(testutil.Tracked{ID: i}))
	}
	live := l.Live()
	allocated := bl.Stats().AllocatedBlocks

	l.ResetCalls()
	l.FailCopyAt = 2
	c, err := a.Clone()
	require.ErrorIs(t, err, testutil.ErrInjected)
	require.Nil(t, c)
	require.Equal(t, live, l.Live())
	require.Equal(t, allocated, bl.Stats().AllocatedBlocks)
}

func Test_Array_CopyFrom(t *testing.T) {
	bl := testutil.NewBlockList(t, nil)

	src := darray.New[int](bl, nil)
	defer src.Close()
	for i := range 5 {
		require.NoError(t, src.Append(i + 10))
	}
	require.Equal(t, 8, src.Cap())

	t.Run("reuses capacity", func(t *testing.T) {
		dst, err := darray.NewSized[int](bl, 16, nil)
		require.NoError(t, err)
		defer dst.Close()

		require.NoError(t, dst.CopyFrom(src))
		require.Equal(t, 16, dst.Cap())
		require.Equal(t, src.Slice(), dst.Slice())
	})

	t.Run("reallocates to source capacity", func(t *testing.T) {
		dst, err := darray.NewSized[int](bl, 2, nil)
		require.NoError(t, err)
		defer dst.Close()

		require.NoError(t, dst.CopyFrom(src))
		require.Equal(t, 8, dst.Cap())
		require.Equal(t, []int{10, 11, 12, 13, 14}, dst.Slice())

		*dst.Front() = 0
		require.Equal(t, 10, *src.Front())
	})

	t.Run("self assignment", func(t *testing.T) {
		require.NoError(t, src.CopyFrom(src))
		require.Equal(t, 5, src.Len())
	})
}

func Test_Array_MoveEmptiesSource(t *testing.T) {
	bl := testutil.NewBlockList(t, nil)
	a := darray.New[int](bl, nil)
	for i := range 6 {
		require.NoError(t, a.Append(i))
	}
	front := a.Front()

	m := a.Move()
	require.Zero(t, a.Len())
	require.Zero(t, a.Cap())
	require.True(t, a.Empty())
	require.NoError(t, a.Close(), "a moved-from array is safe to close")

	require.Equal(t, 6, m.Len())
	require.Same(t, front, m.Front(), "the buffer is transferred, not copied")
	require.True(t, m.Resource().Equal(bl))
	require.NoError(t, m.Close())
	require.Zero(t, bl.Stats().AllocatedBlocks)
}

func Test_Array_MoveFrom(t *testing.T) {
	bl := testutil.NewBlockList(t, nil)
	dst := darray.New[int](bl, nil)
	src := darray.New[int](bl, nil)
	require.NoError(t, dst.Append(1))
	for i := range 3 {
		require.NoError(t, src.Append(i + 100))
	}
	require.Equal(t, 2, bl.Stats().AllocatedBlocks)

	require.NoError(t, dst.MoveFrom(src))
	require.Equal(t, []int{100, 101, 102}, dst.Slice())
	require.Zero(t, src.Len())
	require.Zero(t, src.Cap())
	require.Equal(t, 1, bl.Stats().AllocatedBlocks, "dst's old buffer is released")

	require.NoError(t, dst.MoveFrom(dst))
	require.Equal(t, 3, dst.Len())
	require.NoError(t, dst.Close())
	require.NoError(t, src.Close())
}

func Test_Array_StrongSafetyOnRelocationFailure(t *testing.T) {
	for k := 1; k <= 4; k++ {
		t.Run(fmt.Sprintf("fail_at_%d", k), func(t *testing.T) {
			l := &testutil.Lifecycle{}
			bl := testutil.NewBlockList(t, nil)
			a := darray.New(bl, testutil.TrackedOps(l))
			defer a.Close()

			for i := range 4 {
				require.NoError(t, a.Append(testutil.Tracked{ID: i, Name: fmt.Sprint("e", i), Tags: []string{"t"}}))
			}
			require.Equal(t, 4, a.Cap())

			before := append([]testutil.Tracked(nil), a.Slice()...)
			front := a.Front()
			live := l.Live()
			stats := bl.Stats()

			l.ResetCalls()
			l.FailCopyAt = k
			err := a.Append(testutil.Tracked{ID: 4})
			require.ErrorIs(t, err, testutil.ErrInjected)
			require.Same(t, testutil.ErrInjected, err, "the failure propagates unchanged")

			require.Equal(t, 4, a.Len())
			require.Equal(t, 4, a.Cap())
			require.Same(t, front, a.Front(), "the original buffer is kept")
			require.Equal(t, before, a.Slice())
			require.Equal(t, live, l.Live(), "partial copies are destroyed")

			after := bl.Stats()
			require.Equal(t, stats.AllocatedBlocks, after.AllocatedBlocks)
			require.Equal(t, stats.AllocCalls+1, after.AllocCalls)
			require.Equal(t, stats.FreeCalls+1, after.FreeCalls)

			// The array still works once copies stop failing.
			l.FailCopyAt = 0
			require.NoError(t, a.Append(testutil.Tracked{ID: 4}))
			require.Equal(t, 8, a.Cap())
			require.Equal(t, 4, a.Back().ID)
		})
	}
}

func Test_Array_ExhaustionDuringGrowth(t *testing.T) {
	bl := testutil.NewBlockList(t, &alloc.Config{Limit: 64})
	a := darray.New[int64](bl, nil)
	defer a.Close()

	for i := range 4 {
		require.NoError(t, a.Append(int64(i)))
	}
	err := a.Append(4)
	require.ErrorIs(t, err, alloc.ErrExhausted)
	require.Equal(t, 4, a.Len())
	require.Equal(t, 4, a.Cap())
	require.Equal(t, []int64{0, 1, 2, 3}, a.Slice())
}

func Test_Array_GrowthReleasesOldBufferForReuse(t *testing.T) {
	bl := testutil.NewBlockList(t, nil)
	a := darray.New[int64](bl, nil)
	defer a.Close()
	for i := range 5 {
		require.NoError(t, a.Append(int64(i)))
	}
	require.Equal(t, 2, bl.Stats().Acquisitions)
	require.Equal(t, []alloc.Block{{Addr: bl.FreeBlocks()[0].Addr, Size: 32}}, bl.FreeBlocks())

	b := darray.New[int64](bl, nil)
	defer b.Close()
	require.NoError(t, b.Append(1))
	require.Equal(t, 2, bl.Stats().Acquisitions, "b's first buffer reuses a's old one")
	require.Empty(t, bl.FreeBlocks())
}

func Test_Array_RelocationPrefersMove(t *testing.T) {
	l := &testutil.Lifecycle{}
	a := darray.New(testutil.NewBlockList(t, nil), testutil.MovableOps(l))
	defer a.Close()

	for i := range 4 {
		require.NoError(t, a.Append(testutil.Tracked{ID: i, Tags: []string{"keep"}}))
	}
	copies := l.Copies

	require.NoError(t, a.Append(testutil.Tracked{ID: 4}))
	require.Equal(t, 4, l.Moves)
	require.Equal(t, copies+1, l.Copies, "only the appended element is copied")
	require.Equal(t, 4, l.Destroys, "moved-from elements are destroyed")
	require.Equal(t, []string{"keep"}, a.Front().Tags)
	require.Equal(t, 5, l.Live())
}

func Test_Array_AppendMove(t *testing.T) {
	t.Run("plain transfer zeroes the source", func(t *testing.T) {
		a := darray.New[[]int](testutil.NewBlockList(t, nil), nil)
		defer a.Close()

		v := []int{1, 2, 3}
		require.NoError(t, a.AppendMove(&v))
		require.Nil(t, v)
		require.Equal(t, []int{1, 2, 3}, *a.Front())
	})

	t.Run("move hook", func(t *testing.T) {
		l := &testutil.Lifecycle{}
		a := darray.New(testutil.NewBlockList(t, nil), testutil.MovableOps(l))
		defer a.Close()

		v := testutil.Tracked{ID: 9, Tags: []string{"a"}}
		require.NoError(t, a.AppendMove(&v))
		require.Equal(t, 1, l.Moves)
		require.Nil(t, v.Tags)
		require.Equal(t, 9, a.Front().ID)
	})
}

func Test_Array_Emplace(t *testing.T) {
	a := darray.New[testutil.Tracked](testutil.NewBlockList(t, nil), nil)
	defer a.Close()

	require.NoError(t, a.Emplace(func(slot *testutil.Tracked) error {
		slot.ID = 7
		slot.Name = "seven"
		return nil
	}))
	require.Equal(t, 1, a.Len())
	require.Equal(t, "seven", a.Front().Name)

	boom := errors.New("boom")
	err := a.Emplace(func(slot *testutil.Tracked) error {
		slot.Name = "partial"
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, a.Len())
	require.Empty(t, a.Index(1).Name, "failed slot stays dead")
}

func Test_Array_AppendCopyFailure(t *testing.T) {
	l := &testutil.Lifecycle{FailCopyAt: 1}
	a := darray.New(testutil.NewBlockList(t, nil), testutil.TrackedOps(l))
	defer a.Close()

	err := a.Append(testutil.Tracked{ID: 1})
	require.ErrorIs(t, err, testutil.ErrInjected)
	require.Zero(t, a.Len())
	require.Zero(t, l.Live())
}

func Test_Array_CloseReleasesBuffer(t *testing.T) {
	l := &testutil.Lifecycle{}
	bl := testutil.NewBlockList(t, nil)
	a := darray.New(bl, testutil.TrackedOps(l))
	for i := range 10 {
		require.NoError(t, a.Append(testutil.Tracked{ID: i}))
	}

	require.NoError(t, a.Close())
	require.Zero(t, a.Len())
	require.Zero(t, a.Cap())
	require.Zero(t, l.Live())
	require.Zero(t, bl.Stats().AllocatedBlocks)

	// Reusable after Close.
	require.NoError(t, a.Append(testutil.Tracked{ID: 1}))
	require.NoError(t, a.Close())
}

func Test_Array_CloseAfterAllocatorClosed(t *testing.T) {
	bl := testutil.NewBlockList(t, nil)
	a := darray.New[int](bl, nil)
	require.NoError(t, a.Append(1))

	// Closing the allocator first is a contract violation; the array reports it.
	require.NoError(t, bl.Close())
	require.ErrorIs(t, a.Close(), alloc.ErrClosed)
}
