// Package alloc implements the priority-ordered heap allocator: an Arena
// carved into independent Heaps, each with 32-byte alignment, first-fit
// search, splitting, coalescing, and consistency-checkable free/allocated
// lists.
//
// An Arena wraps one contiguous backing buffer (callers size one Arena per
// simulated memory region, e.g. one for MEM1 and one for MEM2); heap
// bookkeeping (the descriptor table spec.md carves from the low end of the
// arena on real hardware) is kept as ordinary Go slice state here, since a
// Go-native re-host has no need to place its own metadata in-band — see
// DESIGN.md for the full rationale.
package alloc

import (
	"fmt"
	"unsafe"

	"github.com/wowjinxy/porpoise/debug"
	"github.com/wowjinxy/porpoise/internal/mask"
)

// HeapHandle identifies a Heap within an Arena. Handles are dense,
// non-negative integers in [0, maxHeaps). NoHeap is the "no current heap"
// sentinel.
type HeapHandle int32

// NoHeap is returned by CurrentHeap when no heap has been selected and by
// CreateHeap on failure; Alloc, Free and the other handle-taking methods
// reject it with a panic when used as an operand.
const NoHeap HeapHandle = -1

// inactiveSize marks a heap descriptor as not-currently-backing-a-heap, per
// the data model's "a heap is inactive iff its declared size is negative".
const inactiveSize = int64(-1)

type heapDescriptor struct {
	size  int64 // declared size; inactiveSize when unused
	free  list
	alloc list
}

func (d *heapDescriptor) active() bool { return d.size != inactiveSize }

// Arena is a process-wide region of simulated memory from which Heaps are
// carved.
type Arena struct {
	mu mask.Guard

	buf []byte
	lo  Addr
	hi  Addr

	heaps   []heapDescriptor
	current HeapHandle
}

// Init reserves maxHeaps heap-descriptor slots and 32-byte-aligns the
// buffer's usable range inward, returning the ready-to-use Arena.
//
// It panics if the aligned range is empty, if maxHeaps is not positive, or
// if the remaining span is smaller than one minimum object — all three are
// caller bugs (a mis-sized arena at bootstrap), matching the core's
// programmer-error taxonomy.
func Init(buf []byte, maxHeaps int) *Arena {
	if maxHeaps <= 0 {
		debug.Panic("alloc/arena.go", 0, "alloc: Init: maxHeaps must be positive, got %d", maxHeaps)
	}
	if len(buf) == 0 {
		debug.Panic("alloc/arena.go", 0, "alloc: Init: empty backing buffer")
	}

	base := Addr(uintptr(unsafe.Pointer(&buf[0])))
	lo := Addr(alignUp(uintptr(base), Align))
	hi := Addr(alignDown(uintptr(base)+uintptr(len(buf)), Align))
	if lo >= hi {
		debug.Panic("alloc/arena.go", 0, "alloc: Init: range is empty after alignment")
	}
	if int64(hi-lo) < int64(MinObject) {
		debug.Panic("alloc/arena.go", 0, "alloc: Init: range smaller than one minimum object")
	}

	heaps := make([]heapDescriptor, maxHeaps)
	for i := range heaps {
		heaps[i].size = inactiveSize
	}

	return &Arena{
		buf:     buf,
		lo:      lo,
		hi:      hi,
		heaps:   heaps,
		current: NoHeap,
	}
}

// Extent returns the arena's full 32-byte-aligned address range, suitable
// for passing straight to CreateHeap when a caller wants one heap spanning
// the entire arena.
func (a *Arena) Extent() (lo, hi Addr) {
	return a.lo, a.hi
}

// contains reports whether [start,end) lies entirely within the arena's
// aligned range.
func (a *Arena) contains(start, endAddr Addr) bool {
	return start >= a.lo && endAddr <= a.hi && start <= endAddr
}

// CreateHeap carves a new Heap from [start,end), aligning start up and end
// down, and installs a single free Cell covering the whole range. It
// returns NoHeap if the range (after alignment) is not a subset of the
// arena, is smaller than one minimum object, or no descriptor slot is free.
func (a *Arena) CreateHeap(start, end Addr) HeapHandle {
	g := a.mu.Disable()
	defer a.mu.Restore(g)

	start = Addr(alignUp(uintptr(start), Align))
	end = Addr(alignDown(uintptr(end), Align))
	if !a.contains(start, end) || int64(end-start) < int64(MinObject) {
		return NoHeap
	}

	idx := -1
	for i := range a.heaps {
		if !a.heaps[i].active() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return NoHeap
	}

	d := &a.heaps[idx]
	d.size = int64(end - start)
	d.free = list{}
	d.alloc = list{}

	h := headerAt(start)
	h.prev = 0
	h.next = 0
	h.size = int64(end - start)
	d.free.head = start

	return HeapHandle(idx)
}

// DestroyHeap marks handle inactive. If any Cells remain on the allocated
// list it reports (does not panic) that the heap was destroyed with
// outstanding allocations — per the source's documented behaviour, it does
// not free the backing memory or invalidate outstanding pointers, which is
// caller-hazardous and preserved intentionally (see DESIGN.md, Open
// Question c).
func (a *Arena) DestroyHeap(handle HeapHandle) {
	g := a.mu.Disable()
	defer a.mu.Restore(g)

	d := a.mustActive(handle)
	if !d.alloc.isEmpty() {
		debug.Report("alloc: DestroyHeap: heap %d destroyed with %d cell(s) still allocated", handle, d.alloc.count())
	}
	d.size = inactiveSize
	d.free = list{}
	d.alloc = list{}
	if a.current == handle {
		a.current = NoHeap
	}
}

// CurrentHeap returns the process-wide "current heap" id, or NoHeap.
func (a *Arena) CurrentHeap() HeapHandle {
	g := a.mu.Disable()
	defer a.mu.Restore(g)
	return a.current
}

// SetCurrentHeap sets the process-wide "current heap" id.
func (a *Arena) SetCurrentHeap(handle HeapHandle) {
	g := a.mu.Disable()
	defer a.mu.Restore(g)
	a.current = handle
}

// mustActive fetches the descriptor for handle, panicking on an invalid
// handle or an inactive heap — both programmer errors.
func (a *Arena) mustActive(handle HeapHandle) *heapDescriptor {
	if handle < 0 || int(handle) >= len(a.heaps) {
		debug.Panic("alloc/arena.go", 0, "alloc: invalid heap handle %d", handle)
	}
	d := &a.heaps[handle]
	if !d.active() {
		debug.Panic("alloc/arena.go", 0, "alloc: heap %d is not active", handle)
	}
	return d
}

func (a *Arena) String() string {
	return fmt.Sprintf("Arena{lo=%#x hi=%#x heaps=%d current=%d}", a.lo, a.hi, len(a.heaps), a.current)
}
