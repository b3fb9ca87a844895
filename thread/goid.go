package thread

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// goroutineID extracts the calling goroutine's runtime-assigned id by
// parsing the "goroutine N [running]:" header off a runtime.Stack dump.
//
// This is the same technique the community goroutineid-style packages use
// to give Go, which has no public goroutine-local storage, a stand-in for
// one; it is not on any hot path here — only Current() calls it, and only
// when the calling goroutine isn't already cached (see registry below).
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// registry maps host goroutine ids to the logical Thread running on them.
// Every goroutine the runtime launches (via Resume) registers itself before
// running user code; any other goroutine that calls into the runtime
// (Current, Lock, etc.) gets an implicit per-goroutine idle record, lazily
// created and cached here — see spec.md's note on primordial/host-created
// threads having an implicit idle record.
var registry struct {
	mu sync.RWMutex
	m  map[uint64]*Thread
}

func init() {
	registry.m = make(map[uint64]*Thread)
}

func bindCurrent(t *Thread) {
	id := goroutineID()
	registry.mu.Lock()
	registry.m[id] = t
	registry.mu.Unlock()
}

func unbindCurrent() {
	id := goroutineID()
	registry.mu.Lock()
	delete(registry.m, id)
	registry.mu.Unlock()
}

// Current returns the logical Thread running on the calling goroutine,
// creating an implicit idle Thread the first time an unrecognized goroutine
// calls in.
func Current() *Thread {
	id := goroutineID()

	registry.mu.RLock()
	t, ok := registry.m[id]
	registry.mu.RUnlock()
	if ok {
		return t
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	if t, ok = registry.m[id]; ok {
		return t
	}
	t = newIdleThread()
	registry.m[id] = t
	return t
}

func newIdleThread() *Thread {
	return &Thread{
		name:         "idle",
		state:        StateRunning,
		basePriority: PriorityDefault,
		currPriority: PriorityDefault,
		parkCh:       make(chan struct{}),
	}
}
