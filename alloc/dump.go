package alloc

import "github.com/wowjinxy/porpoise/debug"

// DumpHeap reports handle's header counts, then every Cell's
// address/size/end/prev/next, via debug.Report.
func (a *Arena) DumpHeap(handle HeapHandle) {
	g := a.mu.Disable()
	defer a.mu.Restore(g)

	if handle < 0 || int(handle) >= len(a.heaps) {
		debug.Report("alloc: DumpHeap: invalid heap handle %d", handle)
		return
	}
	d := &a.heaps[handle]
	if !d.active() {
		debug.Report("alloc: DumpHeap: heap %d is inactive", handle)
		return
	}

	debug.Report("alloc: heap %d: size=%d free=%d alloc=%d", handle, d.size, d.free.count(), d.alloc.count())
	dumpList(handle, "free", &d.free)
	dumpList(handle, "alloc", &d.alloc)
}

func dumpList(handle HeapHandle, name string, l *list) {
	for c := l.head; c != 0; c = headerAt(c).next {
		h := headerAt(c)
		debug.Report("alloc: heap %d %s cell addr=%#x size=%d end=%#x prev=%#x next=%#x",
			handle, name, c, h.size, c+Addr(h.size), h.prev, h.next)
	}
}
