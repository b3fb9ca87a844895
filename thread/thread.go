// Package thread implements the core's thread runtime and the
// synchronization primitives built directly on top of it (mutex, condition
// variable, counting semaphore). The two are kept in one package because
// mutex priority inheritance needs direct access to Thread's priority and
// held-mutex bookkeeping — splitting them would just require an import
// cycle broken by hand, which is what the original source's own OSThread.c
// and OSMutex.c pairing amounts to anyway.
//
// Threads are created in a pre-started Ready state with suspend count 1;
// Resume decrements it, and only once it reaches zero does a host OS thread
// (a goroutine, locked to its own OS thread via runtime.LockOSThread) get
// created and the entry routine run. The console's cooperative scheduler is
// not reproduced: the host scheduler drives every logical thread in
// parallel, and Suspend is a counter that gates future (re-)launch, not a
// forcible halt — see spec.md §9, Open Question (a).
package thread

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/wowjinxy/porpoise/debug"
	"github.com/wowjinxy/porpoise/internal/mask"
)

// State is a Thread's lifecycle state.
type State int32

const (
	StateReady State = iota
	StateRunning
	StateWaiting
	StateMoribund
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateWaiting:
		return "Waiting"
	case StateMoribund:
		return "Moribund"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Priority bounds, per the external interface: 0 is highest, 31 is lowest.
const (
	PriorityHighest = 0
	PriorityLowest  = 31
	PriorityDefault = 16
)

// ContextSize is the size of a Thread's opaque architectural context: big
// enough to model the PowerPC register set the original hardware saved on a
// context switch. The core stores it but never interprets it.
const ContextSize = 768

// StackMagic is the original ABI's stack-overflow marker value. A Thread
// has no stack memory of its own here; Create writes this value's
// big-endian bytes into the first four bytes of the Thread's opaque
// context, and nothing checks it afterwards.
const StackMagic uint32 = 0xDEADBABE

// SwitchFunc is invoked, best-effort, immediately before the runtime
// transitions one logical thread off-CPU in favor of another. The host
// goroutine scheduler gives no hook for real preemption, so this fires only
// at the points this package itself controls a transition (park and
// resume); it is not a substitute for profiling actual OS-thread
// scheduling. See spec.md §4.C and §9.
type SwitchFunc func(from, to *Thread)

var switchCallback atomic.Pointer[SwitchFunc]

// SetSwitchCallback installs the single switch-observer hook. Passing nil
// disables it.
func SetSwitchCallback(f SwitchFunc) {
	if f == nil {
		switchCallback.Store(nil)
		return
	}
	switchCallback.Store(&f)
}

func fireSwitch(from, to *Thread) {
	if p := switchCallback.Load(); p != nil {
		(*p)(from, to)
	}
}

// Thread is a logical thread record. Instances must be created with
// Create; the zero value is not usable.
type Thread struct {
	name string

	context [ContextSize]byte

	state        State
	suspendCount int32
	basePriority int
	currPriority int

	joinQueue waitQueue

	waitingOn     *waitQueue
	blockingMutex *Mutex
	heldMutexes   []*Mutex

	tls [2]any

	exitValue any
	exited    bool

	stackBase, stackEnd uintptr

	parkCh chan struct{}

	entry func(arg any)
	arg   any

	// hostTID is the OS thread id t's own goroutine recorded for itself
	// once running (see run and captureHostTID); 0 until then. It is an
	// atomic, not mask-guarded field, since applyHostPriority must be
	// callable from a waiter's goroutine (priority inheritance) while that
	// waiter already holds rtMask — reading another thread's tid cannot go
	// through a second Disable without self-deadlocking.
	hostTID atomic.Int32

	launched bool
}

// rtMask is the single coarse lock guarding every Thread's state, every
// wait queue, and every Mutex/Cond/Sema in this package — the interrupt-
// mask surrogate from spec.md §4.A/§5, sized to "the allocator" granularity
// this package owns.
var rtMask mask.Guard

// Create allocates a Thread in the pre-started Ready state with suspend
// count 1 (not yet runnable): entry does not run until enough Resume calls
// bring the suspend count to zero.
func Create(name string, priority int, entry func(arg any), arg any) *Thread {
	if priority < PriorityHighest || priority > PriorityLowest {
		debug.Panic("thread/thread.go", 0, "thread: Create: invalid priority %d", priority)
	}
	t := &Thread{
		name:         name,
		state:        StateReady,
		suspendCount: 1,
		basePriority: priority,
		currPriority: priority,
		parkCh:       make(chan struct{}),
		entry:        entry,
		arg:          arg,
	}
	binary := t.context[:4]
	binary[0], binary[1], binary[2], binary[3] = 0xDE, 0xAD, 0xBA, 0xBE
	return t
}

// Name returns the Thread's diagnostic name.
func (t *Thread) Name() string { return t.name }

// State returns the Thread's current lifecycle state.
func (t *Thread) State() State {
	g := rtMask.Disable()
	defer rtMask.Restore(g)
	return t.state
}

// SuspendCount returns the Thread's current suspend count.
func (t *Thread) SuspendCount() int32 {
	g := rtMask.Disable()
	defer rtMask.Restore(g)
	return t.suspendCount
}

// Resume decrements t's suspend count. If it reaches zero while t is still
// Ready, a host goroutine is launched to run t's entry routine. It returns
// the suspend count observed before the decrement.
func Resume(t *Thread) int32 {
	g := rtMask.Disable()
	prev := t.suspendCount
	if t.suspendCount > 0 {
		t.suspendCount--
	}
	launch := t.suspendCount == 0 && t.state == StateReady && !t.launched
	if launch {
		t.launched = true
	}
	rtMask.Restore(g)

	if launch {
		go t.run()
	}
	return prev
}

// Suspend increments t's suspend count. Per spec.md §9 Open Question (a),
// this never forcibly halts an already-running host thread — a thread that
// relies on synchronous suspension of a peer that is actively running is
// relying on behaviour this core does not provide, faithfully matching the
// original OSSuspendThread.
func Suspend(t *Thread) int32 {
	g := rtMask.Disable()
	defer rtMask.Restore(g)
	prev := t.suspendCount
	t.suspendCount++
	return prev
}

func (t *Thread) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	bindCurrent(t)
	defer unbindCurrent()

	captureHostTID(t)
	applyHostPriority(t, GetPriority(t))

	g := rtMask.Disable()
	t.state = StateRunning
	rtMask.Restore(g)
	fireSwitch(nil, t)

	t.entry(t.arg)

	Exit(t, nil)
}

// Exit stores val, transitions t to Moribund, and wakes every joiner. It is
// normally called by a thread on itself at the end of its entry routine;
// Create's host goroutine wrapper calls it automatically if entry returns
// without calling Exit explicitly.
func Exit(t *Thread, val any) {
	g := rtMask.Disable()
	if t.exited {
		rtMask.Restore(g)
		return
	}
	t.exited = true
	t.exitValue = val
	t.state = StateMoribund
	woken := t.joinQueue.drain()
	for _, w := range woken {
		markReady(w)
	}
	rtMask.Restore(g)

	for _, w := range woken {
		wakeThread(w)
	}
}

// Cancel marks t Moribund immediately and releases every joiner, without
// waiting for t's entry routine to return. It does not stop t's host
// goroutine: Go gives no safe way to abort another goroutine mid-
// execution, so the entry routine keeps running in the background and is
// simply abandoned — callers must not assume any resource it holds has
// been released, or that it has stopped touching shared state, once
// Cancel returns. This is a weaker contract than "forcibly terminates the
// host thread" (spec.md §5); it is the one safe thing Go allows, and is
// documented as unsafe for programs holding resources for that reason —
// see DESIGN.md's Open Questions for the full rationale.
func Cancel(t *Thread) {
	g := rtMask.Disable()
	if t.exited {
		rtMask.Restore(g)
		return
	}
	t.exited = true
	t.state = StateMoribund
	woken := t.joinQueue.drain()
	for _, w := range woken {
		markReady(w)
	}
	rtMask.Restore(g)

	for _, w := range woken {
		wakeThread(w)
	}
}

// Join parks the caller until t is Moribund, then returns its exit value.
func Join(t *Thread) any {
	g := rtMask.Disable()
	if t.state == StateMoribund {
		v := t.exitValue
		rtMask.Restore(g)
		return v
	}
	self := Current()
	t.joinQueue.pushBack(self)
	g = park(self, g)

	v := t.exitValue
	rtMask.Restore(g)
	return v
}

// Yield asks the host scheduler to run another goroutine. It does not
// suspend the caller.
func Yield() {
	runtime.Gosched()
}

// Sleep parks the caller on queue. It must be called with the mask already
// held (g is the token from that Disable call); the mask is released while
// parked and re-acquired before Sleep returns.
func Sleep(queue *waitQueue, g mask.Token) mask.Token {
	self := Current()
	self.state = StateWaiting
	self.waitingOn = queue
	queue.pushBack(self)
	return park(self, g)
}

// Wake releases every thread currently on queue to Ready.
func Wake(queue *waitQueue) {
	g := rtMask.Disable()
	woken := queue.drain()
	for _, w := range woken {
		markReady(w)
	}
	rtMask.Restore(g)

	for _, w := range woken {
		wakeThread(w)
	}
}

// park is the common blocking primitive for every suspension point in this
// package: release the mask, block on the thread's own park channel, then
// re-acquire the mask and return the fresh token.
func park(self *Thread, g mask.Token) mask.Token {
	ch := make(chan struct{})
	self.parkCh = ch
	rtMask.Restore(g)
	fireSwitch(self, nil)

	<-ch

	fireSwitch(nil, self)
	g2 := rtMask.Disable()
	self.state = StateRunning
	self.waitingOn = nil
	return g2
}

// markReady transitions t to Ready. The caller must already hold rtMask —
// every state mutation belongs inside the same critical section that
// removed t from whatever queue it was waiting on, so that a concurrent,
// properly-masked reader (State, Join's Moribund check, ...) never
// observes t mid-transition.
func markReady(t *Thread) {
	t.state = StateReady
}

// wakeThread releases t from park by closing its channel. t must already
// be Ready (via markReady, called earlier in the same critical section
// this wake originated from); this step itself touches no Thread state,
// so it is safe to perform after rtMask has been released — which every
// call site does, to avoid invoking arbitrary downstream code (a
// goroutine launch, in effect) while still holding the single coarse
// lock. Safe to call whether or not t is currently parked (e.g. Exit/
// Cancel call it for already-runnable joiners too — closing an unparked
// thread's channel is harmless since nothing reads it until the thread
// itself parks again, at which point a fresh channel is installed by
// park).
func wakeThread(t *Thread) {
	close(t.parkCh)
}
