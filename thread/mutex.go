package thread

import "github.com/wowjinxy/porpoise/debug"

// Mutex is a recursive mutex with a priority-inheritance surrogate: a
// thread that finds it held parks on the mutex's own wait queue and
// boosts the owner's effective priority to its own while it waits, the
// stand-in for the console's BPI (boosted-priority inheritance). Base
// priority is restored to the prior owner once it releases.
type Mutex struct {
	owner *Thread
	count int32
	waitq waitQueue
}

// NewMutex returns a ready-to-use, unowned Mutex.
func NewMutex() *Mutex { return &Mutex{} }

// Lock acquires m, blocking if another thread holds it. Re-locking by the
// current owner increments the recursion count instead of blocking.
func (m *Mutex) Lock() {
	g := rtMask.Disable()
	self := Current()

	if m.owner == self {
		m.count++
		rtMask.Restore(g)
		return
	}
	if m.owner == nil {
		m.owner = self
		m.count = 1
		self.heldMutexes = append(self.heldMutexes, m)
		rtMask.Restore(g)
		return
	}

	// Contended: park until Unlock hands ownership directly to us — see
	// Unlock, which performs the full handoff (count, held-list) under the
	// mask before waking the dequeued waiter, so there is nothing left for
	// the resumed waiter here to do but confirm and return.
	for {
		if self.currPriority < m.owner.currPriority {
			m.owner.currPriority = self.currPriority
			applyHostPriority(m.owner, self.currPriority)
		}
		self.blockingMutex = m
		self.state = StateWaiting
		m.waitq.pushBack(self)
		g = park(self, g)
		self.blockingMutex = nil

		if m.owner == self {
			rtMask.Restore(g)
			return
		}
	}
}

// TryLock attempts to acquire m without blocking, returning false if it is
// held by another thread.
func (m *Mutex) TryLock() bool {
	g := rtMask.Disable()
	defer rtMask.Restore(g)

	self := Current()
	if m.owner != nil && m.owner != self {
		return false
	}
	if m.owner == self {
		m.count++
		return true
	}
	m.owner = self
	m.count = 1
	self.heldMutexes = append(self.heldMutexes, m)
	return true
}

// Unlock decrements the recursion count; the call that drops it to zero
// releases m and wakes one waiter (which becomes the new owner).
func (m *Mutex) Unlock() {
	g := rtMask.Disable()

	self := Current()
	if m.owner != self {
		rtMask.Restore(g)
		debug.Panic("thread/mutex.go", 0, "thread: Unlock: calling thread does not own this mutex")
	}

	m.count--
	if m.count > 0 {
		rtMask.Restore(g)
		return
	}

	m.removeHeld(self)
	recomputeEffectivePriority(self)

	next := m.waitq.popFront()
	m.owner = next
	if next == nil {
		rtMask.Restore(g)
		return
	}

	m.count = 1
	next.heldMutexes = append(next.heldMutexes, m)
	markReady(next)
	rtMask.Restore(g)

	wakeThread(next)
}

func (m *Mutex) removeHeld(t *Thread) {
	for i, h := range t.heldMutexes {
		if h == m {
			t.heldMutexes = append(t.heldMutexes[:i], t.heldMutexes[i+1:]...)
			return
		}
	}
}

// recomputeEffectivePriority resets t's current priority to its base, then
// reapplies the highest inheritance boost still owed from any mutex it
// still holds (i.e. the highest-priority thread still waiting on one of
// t's held mutexes).
func recomputeEffectivePriority(t *Thread) {
	p := t.basePriority
	for _, m := range t.heldMutexes {
		for _, w := range m.waitq.items {
			if w.currPriority < p {
				p = w.currPriority
			}
		}
	}
	if p != t.currPriority {
		t.currPriority = p
		applyHostPriority(t, p)
	}
}

// unlockForWait releases m entirely (regardless of recursion count),
// recording nothing to restore it — Cond.Wait uses this, then re-acquires
// m from scratch via Lock once woken, as spec.md §4.D requires.
func (m *Mutex) unlockForWait(self *Thread) *Thread {
	m.removeHeld(self)
	recomputeEffectivePriority(self)
	next := m.waitq.popFront()
	m.owner = next
	if next != nil {
		m.count = 1
		next.heldMutexes = append(next.heldMutexes, m)
	} else {
		m.count = 0
	}
	return next
}
