package alloc

import "unsafe"

// cellHeader is the 32-byte-aligned header written in-band at the start of
// every Cell. addresses (prev, next, and every Addr elsewhere in this
// package) are absolute process addresses obtained via unsafe.Pointer into
// an Arena's backing buffer, matching the original hardware's flat address
// space closely enough that alignment and in-arena-range checks behave
// identically to the source.
type cellHeader struct {
	prev Addr
	next Addr
	size int64
	_    int64 // pad; keeps HeaderSize a round 32 bytes
}

// Addr is a Cell or payload address: an absolute, 32-byte-aligned pointer
// value into some Arena's backing storage. The zero value denotes "no
// address" (a null prev/next/pointer), mirroring a NULL pointer.
type Addr uintptr

// HeaderSize is the fixed header size every Cell reserves before its
// payload.
const HeaderSize = unsafe.Sizeof(cellHeader{})

// Align is the alignment every Cell, and every pointer returned to callers,
// must satisfy.
const Align = 32

// MinObject is the smallest a Cell may be: enough for its own header plus
// one aligned unit of payload, per the Cell invariant in the data model.
const MinObject = HeaderSize + Align

func alignUp(x uintptr, a uintptr) uintptr {
	return (x + a - 1) &^ (a - 1)
}

func alignDown(x uintptr, a uintptr) uintptr {
	return x &^ (a - 1)
}

func headerAt(a Addr) *cellHeader {
	return (*cellHeader)(unsafe.Pointer(uintptr(a)))
}

// payload returns the address handed to callers for a Cell at addr.
func payload(addr Addr) Addr {
	return addr + Addr(HeaderSize)
}

// cellOf recovers a Cell's header address from a payload pointer.
func cellOf(ptr Addr) Addr {
	return ptr - Addr(HeaderSize)
}

// end returns the address one past a Cell's last byte.
func end(addr Addr) Addr {
	return addr + Addr(headerAt(addr).size)
}

// list is a doubly linked list of Cells, identified by its head address (0
// if empty). It does not track a tail; callers that need predecessor access
// walk from head, exactly as the link layout (cell.prev/cell.next) demands.
type list struct {
	head Addr
}

func (l *list) isEmpty() bool { return l.head == 0 }

// unlink removes addr from whichever list currently threads through it,
// patching its neighbors. It does not clear addr's own prev/next; callers
// overwrite those before reuse.
func (l *list) unlink(addr Addr) {
	h := headerAt(addr)
	if h.prev != 0 {
		headerAt(h.prev).next = h.next
	} else {
		l.head = h.next
	}
	if h.next != 0 {
		headerAt(h.next).prev = h.prev
	}
}

// pushFront links addr in as the new head.
func (l *list) pushFront(addr Addr) {
	h := headerAt(addr)
	h.prev = 0
	h.next = l.head
	if l.head != 0 {
		headerAt(l.head).prev = addr
	}
	l.head = addr
}

// insertSorted inserts addr (not currently linked) into a list kept in
// ascending-address order, before the first entry whose address exceeds
// addr. It performs no coalescing; see coalescingInsert for that.
func (l *list) insertSorted(addr Addr) {
	if l.head == 0 || addr < l.head {
		h := headerAt(addr)
		h.prev = 0
		h.next = l.head
		if l.head != 0 {
			headerAt(l.head).prev = addr
		}
		l.head = addr
		return
	}
	cur := l.head
	for headerAt(cur).next != 0 && headerAt(cur).next < addr {
		cur = headerAt(cur).next
	}
	curH := headerAt(cur)
	h := headerAt(addr)
	h.prev = cur
	h.next = curH.next
	if curH.next != 0 {
		headerAt(curH.next).prev = addr
	}
	curH.next = addr
}

// sum totals every Cell's size across the list.
func (l *list) sum() int64 {
	var total int64
	for c := l.head; c != 0; c = headerAt(c).next {
		total += headerAt(c).size
	}
	return total
}

// count returns the number of Cells in the list.
func (l *list) count() int {
	var n int
	for c := l.head; c != 0; c = headerAt(c).next {
		n++
	}
	return n
}
