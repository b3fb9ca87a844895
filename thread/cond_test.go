package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCondSignalWakesOneWaiter(t *testing.T) {
	m := NewMutex()
	c := NewCond()
	ready := false
	woken := make(chan int, 2)

	waiter := func(id int) {
		m.Lock()
		for !ready {
			c.Wait(m)
		}
		m.Unlock()
		woken <- id
	}

	for _, id := range []int{1, 2} {
		id := id
		th := Create("waiter", PriorityDefault, func(any) { waiter(id) }, nil)
		Resume(th)
	}
	time.Sleep(30 * time.Millisecond)

	m.Lock()
	ready = true
	c.Signal()
	m.Unlock()

	select {
	case <-woken:
	case <-time.After(time.Second):
		t.Fatal("Signal never woke a waiter")
	}

	select {
	case <-woken:
		t.Fatal("Signal woke more than one waiter")
	case <-time.After(50 * time.Millisecond):
	}

	m.Lock()
	c.Signal()
	m.Unlock()
	select {
	case <-woken:
	case <-time.After(time.Second):
		t.Fatal("second Signal never woke the remaining waiter")
	}
}

func TestCondBroadcastWakesAll(t *testing.T) {
	m := NewMutex()
	c := NewCond()
	ready := false
	const n = 4
	woken := make(chan struct{}, n)

	for i := 0; i < n; i++ {
		th := Create("waiter", PriorityDefault, func(any) {
			m.Lock()
			for !ready {
				c.Wait(m)
			}
			m.Unlock()
			woken <- struct{}{}
		}, nil)
		Resume(th)
	}
	time.Sleep(30 * time.Millisecond)

	m.Lock()
	ready = true
	c.Broadcast()
	m.Unlock()

	for i := 0; i < n; i++ {
		select {
		case <-woken:
		case <-time.After(time.Second):
			t.Fatalf("only %d/%d waiters woke from Broadcast", i, n)
		}
	}
}

func TestCondWaitReacquiresMutex(t *testing.T) {
	m := NewMutex()
	c := NewCond()
	proceed := false
	recursed := make(chan bool, 1)

	th := Create("waiter", PriorityDefault, func(any) {
		m.Lock()
		for !proceed {
			c.Wait(m)
		}
		// Wait must return with m held exactly once more: a recursive
		// TryLock here should succeed rather than report contention.
		recursed <- m.TryLock()
		m.Unlock()
		m.Unlock()
	}, nil)
	Resume(th)
	time.Sleep(20 * time.Millisecond)

	m.Lock()
	proceed = true
	c.Signal()
	m.Unlock()

	select {
	case ok := <-recursed:
		require.True(t, ok, "Cond.Wait must return with the mutex re-acquired")
	case <-time.After(time.Second):
		t.Fatal("waiter never resumed after Wait")
	}
}
