package alloc

import "github.com/wowjinxy/porpoise/debug"

// AddToHeap grows handle by inserting [start,end) — aligned up/down and
// verified to lie within the arena — as a new free Cell via the same
// coalescing insert Free uses.
func (a *Arena) AddToHeap(handle HeapHandle, start, end Addr) {
	g := a.mu.Disable()
	defer a.mu.Restore(g)

	d := a.mustActive(handle)

	start = Addr(alignUp(uintptr(start), Align))
	end = Addr(alignDown(uintptr(end), Align))
	if !a.contains(start, end) || int64(end-start) < int64(MinObject) {
		debug.Panic("alloc/fixed.go", 0, "alloc: AddToHeap: range is not a valid addition to heap %d", handle)
	}

	h := headerAt(start)
	h.size = int64(end - start)
	coalescingInsert(&d.free, start)
	d.size += int64(end - start)
}

// AllocFixed reserves [start,end) (aligned outward to 32 bytes) across
// every active heap, so that no future Alloc call will ever return an
// address inside it. It panics if the range overlaps any heap's allocated
// list. For each active heap it removes or trims intersecting free Cells —
// fully contained ones are extracted, partially overlapping ones are split
// — and reduces the heap's declared size by the amount excised.
//
// It returns the adjusted (aligned-down) start address.
func (a *Arena) AllocFixed(start, end Addr) Addr {
	g := a.mu.Disable()
	defer a.mu.Restore(g)

	start = Addr(alignDown(uintptr(start), Align))
	end = Addr(alignUp(uintptr(end), Align))

	for i := range a.heaps {
		d := &a.heaps[i]
		if !d.active() {
			continue
		}
		for c := d.alloc.head; c != 0; c = headerAt(c).next {
			if overlaps(c, end2(c), start, end) {
				debug.Panic("alloc/fixed.go", 0, "alloc: AllocFixed: range overlaps an allocated cell in heap %d", i)
			}
		}
	}

	for i := range a.heaps {
		d := &a.heaps[i]
		if !d.active() {
			continue
		}
		excised := exciseFree(d, start, end)
		d.size -= excised
	}

	return start
}

func end2(addr Addr) Addr { return addr + Addr(headerAt(addr).size) }

func overlaps(aStart, aEnd, bStart, bEnd Addr) bool {
	return aStart < bEnd && bStart < aEnd
}

// exciseFree removes the portion of [start,end) that intersects d's free
// list, returning the total number of bytes removed from the list. Cells
// fully contained in [start,end) are unlinked entirely; cells that only
// partially overlap are shrunk in place (and, if the reserved range falls
// strictly inside a cell, split into a before- and after- remainder).
func exciseFree(d *heapDescriptor, start, end Addr) int64 {
	var removed int64
	c := d.free.head
	for c != 0 {
		h := headerAt(c)
		cEnd := c + Addr(h.size)
		next := h.next
		if !overlaps(c, cEnd, start, end) {
			c = next
			continue
		}

		switch {
		case start <= c && end >= cEnd:
			// Fully contained: extract.
			removed += h.size
			d.free.unlink(c)

		case start > c && end < cEnd:
			// Reserved range falls strictly inside: shrink to the
			// before-remainder and insert a new after-remainder cell.
			before := start - c
			afterAddr := end
			afterSize := cEnd - end
			removed += h.size - int64(before) - int64(afterSize)
			h.size = int64(before)
			ah := headerAt(afterAddr)
			ah.size = int64(afterSize)
			ah.prev = c
			ah.next = h.next
			if h.next != 0 {
				headerAt(h.next).prev = afterAddr
			}
			h.next = afterAddr

		case start <= c:
			// Overlap at the low end of the cell: shrink forward.
			newStart := end
			newSize := cEnd - newStart
			removed += h.size - int64(newSize)
			nh := headerAt(newStart)
			nh.size = int64(newSize)
			nh.prev = h.prev
			nh.next = h.next
			if h.prev != 0 {
				headerAt(h.prev).next = newStart
			} else {
				d.free.head = newStart
			}
			if h.next != 0 {
				headerAt(h.next).prev = newStart
			}

		default:
			// Overlap at the high end of the cell: shrink backward.
			newSize := start - c
			removed += h.size - int64(newSize)
			h.size = int64(newSize)
		}

		c = next
	}
	return removed
}
