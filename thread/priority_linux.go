//go:build linux

package thread

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/wowjinxy/porpoise/debug"
)

var priorityWarnOnce sync.Once

// captureHostTID records the calling OS thread's tid once Thread.run has
// locked its goroutine to it. Linux schedules each thread as its own
// task with its own id, so Setpriority(PRIO_PROCESS, tid, ...) retargets
// exactly that thread rather than the whole process — unlike the generic
// POSIX who=0 form, which always means "the calling thread" and so can
// only ever adjust the caller's own niceness, never another thread's.
func captureHostTID(t *Thread) {
	t.hostTID.Store(int32(unix.Gettid()))
}

// applyHostPriority reassigns t's host OS thread's niceness to the band
// matching priority. It is a no-op until t's own goroutine has recorded
// its tid via captureHostTID — a thread that has not started running yet
// has no host thread to retarget. Safe to call from a different thread's
// goroutine (priority inheritance boosts the mutex owner from the
// waiter's call stack), since it touches no Thread field besides the
// atomic hostTID.
func applyHostPriority(t *Thread, priority int) {
	tid := t.hostTID.Load()
	if tid == 0 {
		return
	}
	nice := niceFor(priority)
	if err := unix.Setpriority(unix.PRIO_PROCESS, int(tid), nice); err != nil {
		priorityWarnOnce.Do(func() {
			debug.Report("thread: SetPriority: host priority bands are unsupported here (%v); continuing with logical priority only", err)
		})
	}
}
