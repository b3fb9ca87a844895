package thread

import "github.com/wowjinxy/porpoise/debug"

// SlotCount is the number of thread-specific-data slots each Thread
// carries.
const SlotCount = 2

// GetSpecific reads t's thread-specific-data slot.
func GetSpecific(t *Thread, slot int) any {
	if slot < 0 || slot >= SlotCount {
		debug.Panic("thread/tls.go", 0, "thread: GetSpecific: invalid slot %d", slot)
	}
	g := rtMask.Disable()
	defer rtMask.Restore(g)
	return t.tls[slot]
}

// SetSpecific writes t's thread-specific-data slot.
func SetSpecific(t *Thread, slot int, val any) {
	if slot < 0 || slot >= SlotCount {
		debug.Panic("thread/tls.go", 0, "thread: SetSpecific: invalid slot %d", slot)
	}
	g := rtMask.Disable()
	defer rtMask.Restore(g)
	t.tls[slot] = val
}
