package alarm

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wowjinxy/porpoise/tick"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOneShotFiresAfterDelay(t *testing.T) {
	a := New()
	fired := make(chan struct{})
	armedAt := time.Now()
	SetRelative(a, tick.FromDuration(20*time.Millisecond), 0, func(*Alarm) {
		close(fired)
	})

	select {
	case <-fired:
		require.GreaterOrEqual(t, time.Since(armedAt), 15*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("one-shot alarm never fired")
	}
	require.False(t, a.Scheduled())
}

func TestPeriodicAlarmReArms(t *testing.T) {
	a := New()
	var mu sync.Mutex
	count := 0
	now := tick.Now()
	SetPeriodic(a, now, tick.FromDuration(10*time.Millisecond), 0, func(*Alarm) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 3
	})

	Cancel(a)
	require.False(t, a.Scheduled())
}

func TestCancelIsIdempotent(t *testing.T) {
	a := New()
	SetRelative(a, tick.FromDuration(time.Hour), 0, func(*Alarm) {})
	Cancel(a)
	require.False(t, a.Scheduled())
	require.NotPanics(t, func() { Cancel(a) })
}

func TestCancelByTagRemovesMatchingAlarms(t *testing.T) {
	const tag = 7
	a1, a2, a3 := New(), New(), New()
	SetRelative(a1, tick.FromDuration(time.Hour), tag, func(*Alarm) {})
	SetRelative(a2, tick.FromDuration(time.Hour), tag, func(*Alarm) {})
	SetRelative(a3, tick.FromDuration(time.Hour), tag+1, func(*Alarm) {})

	CancelByTag(tag)
	require.False(t, a1.Scheduled())
	require.False(t, a2.Scheduled())
	require.True(t, a3.Scheduled())
	Cancel(a3)
}

func TestCancelByTagZeroIsNoOp(t *testing.T) {
	a := New()
	SetRelative(a, tick.FromDuration(time.Hour), 0, func(*Alarm) {})
	CancelByTag(0)
	require.True(t, a.Scheduled())
	Cancel(a)
}

func TestEqualFireTicksFireInInsertionOrder(t *testing.T) {
	when := tick.Now() + tick.FromDuration(30*time.Millisecond)
	var mu sync.Mutex
	var order []int

	a1, a2, a3 := New(), New(), New()
	record := func(id int) Handler {
		return func(*Alarm) {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
		}
	}
	SetAbsolute(a1, when, 0, record(1))
	SetAbsolute(a2, when, 0, record(2))
	SetAbsolute(a3, when, 0, record(3))

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	})
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestAlarmChain(t *testing.T) {
	a0, a1 := New(), New()
	start := time.Now()
	a1Fired := make(chan time.Time, 1)

	SetRelative(a0, tick.FromDuration(10*time.Millisecond), 0, func(*Alarm) {
		SetRelative(a1, tick.FromDuration(10*time.Millisecond), 0, func(*Alarm) {
			a1Fired <- time.Now()
		})
	})

	select {
	case when := <-a1Fired:
		require.GreaterOrEqual(t, when.Sub(start), 18*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("chained alarm never fired")
	}
}
