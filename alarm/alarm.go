// Package alarm implements the core's alarm scheduler: a single sorted,
// time-ordered list of one-shot and periodic timers serviced by one
// dedicated worker goroutine that sleeps exactly until the next fire time.
//
// The list is a plain sorted doubly-linked list, not a container/heap: the
// scheduler's tie-break rule (equal fire ticks fire in insertion order) is
// not something a binary heap preserves, since heap.Push/Pop make no
// ordering promise among equal keys.
package alarm

import (
	"sync"
	"time"

	"github.com/wowjinxy/porpoise/debug"
	"github.com/wowjinxy/porpoise/internal/mask"
	"github.com/wowjinxy/porpoise/tick"
)

// Handler is invoked when an alarm fires. It runs on the scheduler's worker
// goroutine, not in any interrupt-like context, and may call any
// non-blocking runtime primitive — including arming or cancelling other
// alarms. A handler that blocks stalls every later alarm until it returns;
// that is documented behavior, not a bug.
type Handler func(a *Alarm)

// Alarm is a single scheduled timer. The zero value is not usable; create
// one with New.
type Alarm struct {
	tag     uint64
	handler Handler
	period  int64 // ticks; 0 means one-shot
	start   int64

	fireTick  int64
	scheduled bool
	prev, next *Alarm
}

// New returns an unscheduled Alarm.
func New() *Alarm { return &Alarm{} }

// Tag returns the batch-cancellation tag the alarm was last armed with.
func (a *Alarm) Tag() uint64 {
	g := sched.mu.Disable()
	defer sched.mu.Restore(g)
	return a.tag
}

// Scheduled reports whether a is currently armed.
func (a *Alarm) Scheduled() bool {
	g := sched.mu.Disable()
	defer sched.mu.Restore(g)
	return a.scheduled
}

var sched struct {
	mu        mask.Guard
	head      *Alarm
	wake      chan struct{}
	startOnce sync.Once
}

func ensureStarted() {
	sched.startOnce.Do(func() {
		sched.wake = make(chan struct{}, 1)
		go worker()
	})
}

func signalWorker() {
	select {
	case sched.wake <- struct{}{}:
	default:
	}
}

// SetRelative arms a one-shot alarm firing delta ticks from now.
func SetRelative(a *Alarm, delta int64, tag uint64, h Handler) {
	SetAbsolute(a, tick.Now()+delta, tag, h)
}

// SetAbsolute arms a one-shot alarm firing at the tick when.
func SetAbsolute(a *Alarm, when int64, tag uint64, h Handler) {
	ensureStarted()
	g := sched.mu.Disable()
	if a.scheduled {
		unlink(a)
	}
	a.tag = tag
	a.handler = h
	a.period = 0
	a.start = when
	a.fireTick = when
	headChanged := insertSorted(a)
	sched.mu.Restore(g)
	if headChanged {
		signalWorker()
	}
}

// SetPeriodic arms a periodic alarm: its first fire is computed from start
// and period exactly as the scheduler recomputes every subsequent
// occurrence, so the first call behaves identically to one already running.
func SetPeriodic(a *Alarm, start, period int64, tag uint64, h Handler) {
	if period <= 0 {
		debug.Panic("alarm/alarm.go", 0, "alarm: SetPeriodic: period must be > 0")
	}
	ensureStarted()
	g := sched.mu.Disable()
	if a.scheduled {
		unlink(a)
	}
	a.tag = tag
	a.handler = h
	a.period = period
	a.start = start
	a.fireTick = nextFireTick(start, period, tick.Now())
	headChanged := insertSorted(a)
	sched.mu.Restore(g)
	if headChanged {
		signalWorker()
	}
}

// nextFireTick computes the periodic alarm's next occurrence at or after
// now, per spec.md §4.F: fire = start if start >= now, else
// start + ceil((now-start)/period)*period.
func nextFireTick(start, period, now int64) int64 {
	if start >= now {
		return start
	}
	elapsed := now - start
	periods := (elapsed + period - 1) / period
	return start + periods*period
}

// Cancel unlinks a, idempotently. It has no effect on an already-cancelled
// or already-fired alarm.
func Cancel(a *Alarm) {
	g := sched.mu.Disable()
	if !a.scheduled {
		sched.mu.Restore(g)
		return
	}
	wasHead := sched.head == a
	unlink(a)
	a.handler = nil
	sched.mu.Restore(g)
	if wasHead {
		signalWorker()
	}
}

// CancelByTag cancels every currently-armed alarm whose tag equals t. Tag 0
// is reserved and this call is then a no-op.
func CancelByTag(t uint64) {
	if t == 0 {
		return
	}
	g := sched.mu.Disable()
	var wasHead bool
	for cur := sched.head; cur != nil; {
		next := cur.next
		if cur.tag == t {
			if sched.head == cur {
				wasHead = true
			}
			unlink(cur)
			cur.handler = nil
		}
		cur = next
	}
	sched.mu.Restore(g)
	if wasHead {
		signalWorker()
	}
}

// insertSorted inserts a into the sorted list by fireTick, after any
// existing entries with an equal fireTick (so ties fire in insertion
// order). It reports whether a became the new head.
func insertSorted(a *Alarm) bool {
	var prev *Alarm
	cur := sched.head
	for cur != nil && cur.fireTick <= a.fireTick {
		prev = cur
		cur = cur.next
	}
	a.prev = prev
	a.next = cur
	if prev != nil {
		prev.next = a
	} else {
		sched.head = a
	}
	if cur != nil {
		cur.prev = a
	}
	a.scheduled = true
	return prev == nil
}

func unlink(a *Alarm) {
	if a.prev != nil {
		a.prev.next = a.next
	} else if sched.head == a {
		sched.head = a.next
	}
	if a.next != nil {
		a.next.prev = a.prev
	}
	a.prev, a.next = nil, nil
	a.scheduled = false
}

func worker() {
	for {
		g := sched.mu.Disable()
		if sched.head == nil {
			sched.mu.Restore(g)
			<-sched.wake
			continue
		}

		head := sched.head
		now := tick.Now()
		if head.fireTick > now {
			sched.mu.Restore(g)
			select {
			case <-sched.wake:
			case <-time.After(tick.Duration(head.fireTick - now)):
			}
			continue
		}

		unlink(head)
		handler := head.handler
		if handler == nil {
			sched.mu.Restore(g)
			continue
		}
		if head.period > 0 {
			head.fireTick = nextFireTick(head.start, head.period, now)
			insertSorted(head)
		}
		sched.mu.Restore(g)

		handler(head)
	}
}
