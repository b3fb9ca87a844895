package thread

import "github.com/wowjinxy/porpoise/debug"

// Cond is a condition variable: a bare wait queue used together with a
// Mutex.
type Cond struct {
	waitq waitQueue
}

// NewCond returns a ready-to-use Cond.
func NewCond() *Cond { return &Cond{} }

// Wait atomically releases m, parks the caller on c's queue, and
// re-acquires m before returning. The caller must hold m exactly once.
func (c *Cond) Wait(m *Mutex) {
	g := rtMask.Disable()
	self := Current()
	if m.owner != self {
		rtMask.Restore(g)
		debug.Panic("thread/cond.go", 0, "thread: Cond.Wait: calling thread does not own the associated mutex")
	}

	// Release m, handing it directly to whichever waiter (if any) was next
	// in line — the same handoff Mutex.Unlock performs — before parking
	// ourselves on c's queue, so the two state changes appear atomic to
	// any observer holding the mask.
	next := m.unlockForWait(self)

	ch := make(chan struct{})
	self.parkCh = ch
	self.state = StateWaiting
	c.waitq.pushBack(self)
	if next != nil {
		markReady(next)
	}
	rtMask.Restore(g)
	fireSwitch(self, nil)

	if next != nil {
		wakeThread(next)
	}

	<-ch

	g2 := rtMask.Disable()
	self.state = StateRunning
	rtMask.Restore(g2)
	fireSwitch(nil, self)

	m.Lock()
}

// Signal wakes one waiter, if any.
func (c *Cond) Signal() {
	g := rtMask.Disable()
	next := c.waitq.popFront()
	if next != nil {
		markReady(next)
	}
	rtMask.Restore(g)
	if next != nil {
		wakeThread(next)
	}
}

// Broadcast wakes every waiter.
func (c *Cond) Broadcast() {
	g := rtMask.Disable()
	woken := c.waitq.drain()
	for _, w := range woken {
		markReady(w)
	}
	rtMask.Restore(g)
	for _, w := range woken {
		wakeThread(w)
	}
}
