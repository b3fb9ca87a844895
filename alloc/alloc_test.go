package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func newTestArena(t *testing.T, size int) (*Arena, HeapHandle) {
	t.Helper()
	buf := make([]byte, size)
	arena := Init(buf, 4)
	base := Addr(uintptr(unsafe.Pointer(&buf[0])))
	h := arena.CreateHeap(base, base+Addr(size))
	require.NotEqual(t, NoHeap, h)
	return arena, h
}

func TestHeapSplitAndCoalesce(t *testing.T) {
	arena, h := newTestArena(t, 64*1024)

	p1 := arena.Alloc(h, 100)
	p2 := arena.Alloc(h, 200)
	p3 := arena.Alloc(h, 100)
	require.NotZero(t, p1)
	require.NotZero(t, p2)
	require.NotZero(t, p3)

	arena.Free(h, p1)
	arena.Free(h, p3)
	require.GreaterOrEqual(t, arena.CheckHeap(h), int64(0))

	arena.Free(h, p2)
	require.GreaterOrEqual(t, arena.CheckHeap(h), int64(0))

	d := &arena.heaps[h]
	require.Equal(t, 1, d.free.count())
	require.Equal(t, int64(64*1024), headerAt(d.free.head).size)
}

func TestAllocAlignment(t *testing.T) {
	arena, h := newTestArena(t, 64*1024)
	for _, n := range []int{1, 7, 31, 32, 33, 255} {
		p := arena.Alloc(h, n)
		require.NotZero(t, p)
		require.Zero(t, uintptr(p)%Align)
	}
	require.GreaterOrEqual(t, arena.CheckHeap(h), int64(0))
}

func TestAllocExhaustionReturnsNull(t *testing.T) {
	arena, h := newTestArena(t, 256)
	p1 := arena.Alloc(h, 1000000)
	require.Zero(t, p1)
}

func TestFreeInvalidPointerPanics(t *testing.T) {
	arena, h := newTestArena(t, 1024)
	require.Panics(t, func() {
		arena.Free(h, Addr(1))
	})
}

func TestCheckHeapDetectsCorruption(t *testing.T) {
	arena, h := newTestArena(t, 4096)
	p := arena.Alloc(h, 64)
	require.NotZero(t, p)
	// Corrupt the cell's declared size directly.
	headerAt(cellOf(p)).size = -5
	require.Equal(t, int64(-1), arena.CheckHeap(h))
}

func TestDestroyHeapWithOutstandingAllocationsDoesNotPanic(t *testing.T) {
	arena, h := newTestArena(t, 4096)
	_ = arena.Alloc(h, 64)
	require.NotPanics(t, func() { arena.DestroyHeap(h) })
	require.Equal(t, NoHeap, arena.CurrentHeap())
}

func TestCurrentHeap(t *testing.T) {
	arena, h := newTestArena(t, 4096)
	require.Equal(t, NoHeap, arena.CurrentHeap())
	arena.SetCurrentHeap(h)
	require.Equal(t, h, arena.CurrentHeap())
	arena.DestroyHeap(h)
	require.Equal(t, NoHeap, arena.CurrentHeap())
}

func TestAllocFixedExcludesRange(t *testing.T) {
	arena, h := newTestArena(t, 64*1024)
	d := &arena.heaps[h]
	lo := d.free.head

	reserveStart := lo + 1024
	reserveEnd := reserveStart + 256
	arena.AllocFixed(reserveStart, reserveEnd)

	require.GreaterOrEqual(t, arena.CheckHeap(h), int64(0))

	for i := 0; i < 100; i++ {
		p := arena.Alloc(h, 16)
		if p == 0 {
			break
		}
		cell := cellOf(p)
		cellEnd := end2(cell)
		require.False(t, overlaps(cell, cellEnd, reserveStart, reserveEnd))
	}
}
