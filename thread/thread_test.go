package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCreateStartsSuspended(t *testing.T) {
	th := Create("t1", PriorityDefault, func(any) {}, nil)
	require.Equal(t, StateReady, th.State())
	require.Equal(t, int32(1), th.SuspendCount())
}

func TestResumeRunsEntry(t *testing.T) {
	done := make(chan struct{})
	th := Create("t2", PriorityDefault, func(any) {
		close(done)
	}, nil)
	Resume(th)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("entry never ran")
	}
	waitUntil(t, time.Second, func() bool { return th.State() == StateMoribund })
}

func TestJoinReturnsExitValue(t *testing.T) {
	th := Create("t3", PriorityDefault, func(any) {
		Exit(Current(), 42)
	}, nil)
	Resume(th)
	v := Join(th)
	require.Equal(t, 42, v)
}

func TestJoinOnAlreadyExitedThread(t *testing.T) {
	th := Create("t4", PriorityDefault, func(any) {}, nil)
	Resume(th)
	waitUntil(t, time.Second, func() bool { return th.State() == StateMoribund })
	require.Nil(t, Join(th))
}

func TestCancelMarksMoribundAndWakesJoiners(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})
	th := Create("t5", PriorityDefault, func(any) {
		close(started)
		<-block
	}, nil)
	Resume(th)
	<-started

	Cancel(th)
	require.Equal(t, StateMoribund, th.State())

	v := Join(th)
	require.Nil(t, v)
	close(block)
}

func TestMultipleResumesRequiredBeforeLaunch(t *testing.T) {
	done := make(chan struct{})
	th := Create("t6", PriorityDefault, func(any) { close(done) }, nil)
	Suspend(th)

	Resume(th)
	select {
	case <-done:
		t.Fatal("entry ran before suspend count reached zero")
	case <-time.After(50 * time.Millisecond):
	}

	Resume(th)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("entry never ran after final resume")
	}
}
