//go:build !linux

package thread

import (
	"sync"

	"github.com/wowjinxy/porpoise/debug"
)

var priorityWarnOnce sync.Once

// captureHostTID is a no-op outside Linux: golang.org/x/sys/unix has no
// portable per-thread id accessor for the BSDs/Darwin/Windows, so there
// is nothing to record.
func captureHostTID(t *Thread) {}

// applyHostPriority is a no-op on non-Linux hosts: there is no portable
// per-thread niceness knob there (PRIO_PROCESS's "who" always means the
// calling process/thread on the other BSD-derived platforms, with no way
// to name a different thread by id), so the logical priority record is
// the whole of the surrogate on this GOOS.
func applyHostPriority(t *Thread, priority int) {
	priorityWarnOnce.Do(func() {
		debug.Report("thread: SetPriority: host priority bands are unsupported on this platform; continuing with logical priority only")
	})
}
