// Package mqueue implements the core's bounded message queue: FIFO send and
// receive plus a head-jam insertion used by callers that need their message
// serviced next, regardless of what is already queued.
//
// Built directly on thread.Mutex and thread.Cond rather than a new parking
// primitive: a queue's used_count is exactly the shared state a
// mutex+condvar pair already protects, and send_waiters/receive_waiters are
// exactly what Cond's own wait queue already is.
package mqueue

import (
	"github.com/wowjinxy/porpoise/debug"
	"github.com/wowjinxy/porpoise/thread"
)

// Flags controls whether Send/Jam/Receive block when the queue is full or
// empty, per spec.md §6.
type Flags int

const (
	NoBlock Flags = 0
	Block   Flags = 1
)

// Queue is a bounded ring of opaque message slots.
type Queue struct {
	mu       *thread.Mutex
	notFull  *thread.Cond
	notEmpty *thread.Cond

	storage []any
	head    int
	used    int
}

// Init binds storage as the queue's backing slot array; its length is the
// queue's fixed capacity. storage must be non-empty.
func Init(storage []any) *Queue {
	if len(storage) == 0 {
		debug.Panic("mqueue/queue.go", 0, "mqueue: Init: capacity must be > 0")
	}
	q := &Queue{
		mu:      thread.NewMutex(),
		storage: storage,
	}
	q.notFull = thread.NewCond()
	q.notEmpty = thread.NewCond()
	return q
}

// NewQueue allocates a fresh queue with the given capacity.
func NewQueue(capacity int) *Queue {
	return Init(make([]any, capacity))
}

// Capacity returns the queue's fixed slot count.
func (q *Queue) Capacity() int { return len(q.storage) }

// Len returns the instantaneous number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.used
}

// Send appends msg to the tail. With flags == NoBlock it returns false
// immediately if the queue is full; with Block it parks the caller until
// room is available.
func (q *Queue) Send(msg any, flags Flags) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.used == len(q.storage) {
		if flags == NoBlock {
			return false
		}
		q.notFull.Wait(q.mu)
	}

	q.storage[(q.head+q.used)%len(q.storage)] = msg
	q.used++
	q.notEmpty.Signal()
	return true
}

// Jam inserts msg at the head, ahead of everything already queued,
// intentionally bypassing FIFO order. Blocking behavior on a full queue is
// identical to Send.
func (q *Queue) Jam(msg any, flags Flags) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.used == len(q.storage) {
		if flags == NoBlock {
			return false
		}
		q.notFull.Wait(q.mu)
	}

	q.head = (q.head - 1 + len(q.storage)) % len(q.storage)
	q.storage[q.head] = msg
	q.used++
	q.notEmpty.Signal()
	return true
}

// Receive removes and returns the head message. With flags == NoBlock it
// returns (nil, false) immediately if the queue is empty; with Block it
// parks the caller until a message arrives.
func (q *Queue) Receive(flags Flags) (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.used == 0 {
		if flags == NoBlock {
			return nil, false
		}
		q.notEmpty.Wait(q.mu)
	}

	msg := q.storage[q.head]
	q.storage[q.head] = nil
	q.head = (q.head + 1) % len(q.storage)
	q.used--
	q.notFull.Signal()
	return msg, true
}
