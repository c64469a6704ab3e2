// Package eventqueue implements the gateway's internal event transport: a
// mutex-and-condvar blocking FIFO. Pop and PopBatch block until an event
// is available or the queue is closed.
package eventqueue

import (
	"sync"

	"github.com/udisondev/mmogate/internal/model"
)

// Queue is a single blocking FIFO lane.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []model.Event
	closed bool
}

// New constructs an empty, open Queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues a single event and wakes one waiter.
func (q *Queue) Push(e model.Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, e)
	q.mu.Unlock()
	q.cond.Signal()
}

// PushBatch enqueues every event in es as one atomic append and wakes one
// waiter. The woken PopBatch caller takes at most its batchSize events; any
// remainder stays queued for later callers.
func (q *Queue) PushBatch(es []model.Event) {
	if len(es) == 0 {
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, es...)
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop blocks until an event is available, returning (event, true), or until
// the queue is closed, returning (zero, false).
func (q *Queue) Pop() (model.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return model.Event{}, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e, true
}

// PopBatch blocks until at least one event is available, then drains up to
// batchSize events in FIFO order. Returns false only if the queue closed
// with nothing left to drain.
func (q *Queue) PopBatch(batchSize int) ([]model.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	n := batchSize
	if n > len(q.items) {
		n = len(q.items)
	}
	batch := append([]model.Event(nil), q.items[:n]...)
	q.items = q.items[n:]
	return batch, true
}

// Close marks the queue closed and wakes every blocked waiter, which then
// observe an empty, closed queue and return false.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Lanes groups the three event lanes the dispatcher reads from: events bound
// for a client, events bound for the chunk server, and pings (kept separate
// so a flood of pings cannot starve normal traffic — see EventDispatcherConfig).
type Lanes struct {
	ClientBound *Queue
	ChunkBound  *Queue
	Ping        *Queue
}

// NewLanes constructs all three lanes open and empty.
func NewLanes() *Lanes {
	return &Lanes{
		ClientBound: New(),
		ChunkBound:  New(),
		Ping:        New(),
	}
}

// Close closes all three lanes, waking every blocked consumer.
func (l *Lanes) Close() {
	l.ClientBound.Close()
	l.ChunkBound.Close()
	l.Ping.Close()
}
