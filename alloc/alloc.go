package alloc

import "github.com/wowjinxy/porpoise/debug"

// Alloc requests n bytes from the given heap. The request is rounded up to
// a 32-byte-aligned Cell size (including the header), found by first-fit
// scan of the free list, split if the surplus is at least one minimum
// object, and prepended to the allocated list.
//
// It returns 0 (the null Addr) on exhaustion — exhaustion is resource
// exhaustion, not a bug, and is never reported via panic. It panics on an
// uninitialised/invalid handle, an inactive heap, or a non-positive size.
func (a *Arena) Alloc(handle HeapHandle, n int) Addr {
	if n <= 0 {
		debug.Panic("alloc/alloc.go", 0, "alloc: Alloc: size must be positive, got %d", n)
	}

	g := a.mu.Disable()
	defer a.mu.Restore(g)

	d := a.mustActive(handle)

	want := int64(alignUp(uintptr(n)+uintptr(HeaderSize), Align))

	cur := d.free.head
	for cur != 0 {
		h := headerAt(cur)
		if h.size >= want {
			break
		}
		cur = h.next
	}
	if cur == 0 {
		return 0
	}

	h := headerAt(cur)
	surplus := h.size - want
	if surplus >= int64(MinObject) {
		// Split: shrink the chosen cell in place, carve a new free cell at
		// the higher address from the surplus, and patch neighbors.
		newFreeAddr := cur + Addr(want)
		nh := headerAt(newFreeAddr)
		nh.size = surplus
		nh.prev = h.prev
		nh.next = h.next
		if h.prev != 0 {
			headerAt(h.prev).next = newFreeAddr
		} else {
			d.free.head = newFreeAddr
		}
		if h.next != 0 {
			headerAt(h.next).prev = newFreeAddr
		}
		h.size = want
	} else {
		d.free.unlink(cur)
	}

	d.alloc.pushFront(cur)
	return payload(cur)
}

// Free returns a previously allocated pointer to its heap. ptr must be the
// address Alloc returned; it is verified to lie inside the arena, be
// 32-byte aligned, and currently reside on the allocated list — violations
// of any of these are programmer error and panic.
func (a *Arena) Free(handle HeapHandle, ptr Addr) {
	g := a.mu.Disable()
	defer a.mu.Restore(g)

	d := a.mustActive(handle)

	if ptr == 0 {
		debug.Panic("alloc/alloc.go", 0, "alloc: Free: nil pointer")
	}
	if !a.contains(ptr, ptr) || uintptr(ptr)%Align != 0 {
		debug.Panic("alloc/alloc.go", 0, "alloc: Free: pointer %#x is not a valid arena address", ptr)
	}

	addr := cellOf(ptr)
	if !cellOnList(&d.alloc, addr) {
		debug.Panic("alloc/alloc.go", 0, "alloc: Free: pointer %#x is not currently allocated", ptr)
	}

	d.alloc.unlink(addr)
	coalescingInsert(&d.free, addr)
}

func cellOnList(l *list, addr Addr) bool {
	for c := l.head; c != 0; c = headerAt(c).next {
		if c == addr {
			return true
		}
	}
	return false
}

// coalescingInsert walks the sorted free list to find the first cell whose
// address exceeds addr's, then merges addr forward into its successor and
// backward into its predecessor wherever the ranges abut, patching the list
// head if needed.
func coalescingInsert(l *list, addr Addr) {
	h := headerAt(addr)

	if l.head == 0 {
		h.prev, h.next = 0, 0
		l.head = addr
		return
	}

	var prevAddr Addr
	cur := l.head
	for cur != 0 && cur < addr {
		prevAddr = cur
		cur = headerAt(cur).next
	}

	// Merge forward: addr abuts its successor.
	if cur != 0 && addr+Addr(h.size) == cur {
		ch := headerAt(cur)
		h.size += ch.size
		// splice addr in cur's place, taking over its links.
		h.next = ch.next
		if ch.next != 0 {
			headerAt(ch.next).prev = addr
		}
	} else {
		h.next = cur
		if cur != 0 {
			headerAt(cur).prev = addr
		}
	}

	// Merge backward: predecessor abuts addr (possibly already grown by the
	// forward merge above).
	if prevAddr != 0 && prevAddr+Addr(headerAt(prevAddr).size) == addr {
		ph := headerAt(prevAddr)
		ph.size += h.size
		ph.next = h.next
		if h.next != 0 {
			headerAt(h.next).prev = prevAddr
		}
		return
	}

	h.prev = prevAddr
	if prevAddr != 0 {
		headerAt(prevAddr).next = addr
	} else {
		l.head = addr
	}
}
