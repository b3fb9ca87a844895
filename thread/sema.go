package thread

import "github.com/wowjinxy/porpoise/debug"

// Sema is a counting semaphore. Wait decrements the count, blocking while
// it is zero; Signal hands one unit to the longest-parked waiter, or
// increments the count when no thread is waiting.
type Sema struct {
	count int32
	waitq waitQueue
}

// NewSema returns a Sema initialized to count, which must be >= 0.
func NewSema(count int32) *Sema {
	if count < 0 {
		debug.Panic("thread/sema.go", 0, "thread: NewSema: negative initial count %d", count)
	}
	return &Sema{count: count}
}

// Wait decrements the count, blocking the caller while it is zero.
func (s *Sema) Wait() {
	g := rtMask.Disable()
	self := Current()

	if s.count > 0 {
		s.count--
		rtMask.Restore(g)
		return
	}

	// Signal wakes a parked waiter only by handing it the unit directly
	// (the count is not incremented), so a woken waiter simply returns.
	self.state = StateWaiting
	s.waitq.pushBack(self)
	g = park(self, g)
	rtMask.Restore(g)
}

// TryWait decrements the count and returns true if it was positive,
// otherwise it returns false without blocking.
func (s *Sema) TryWait() bool {
	g := rtMask.Disable()
	defer rtMask.Restore(g)

	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// Signal wakes one waiter, handing it the unit directly without touching
// the count; with no waiter it increments the count instead.
func (s *Sema) Signal() {
	g := rtMask.Disable()
	next := s.waitq.popFront()
	if next == nil {
		s.count++
	} else {
		markReady(next)
	}
	rtMask.Restore(g)
	if next != nil {
		wakeThread(next)
	}
}

// Count returns the instantaneous count.
func (s *Sema) Count() int32 {
	g := rtMask.Disable()
	defer rtMask.Restore(g)
	return s.count
}
