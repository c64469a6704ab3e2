// Package scheduler runs periodic tasks off a min-heap keyed by next-run
// time, waking only when the earliest task is due or a new task jumps the
// queue. The timed wait is a timer racing a buffered wake channel, since
// sync.Cond has no deadline variant.
package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/udisondev/mmogate/internal/logging"
)

// Task is a unit of recurring work. ID lets callers cancel it later;
// Interval is zero for one-shot tasks (they are not re-armed after running).
type Task struct {
	ID       int64
	Interval time.Duration
	Run      func(ctx context.Context)

	nextRunTime time.Time
	stopped     bool
}

// taskHeap is a container/heap.Interface ordered by nextRunTime, the min-heap
// used to find the next task to run without scanning the full task set.
type taskHeap []*Task

func (h taskHeap) Len() int            { return len(h) }
func (h taskHeap) Less(i, j int) bool  { return h[i].nextRunTime.Before(h[j].nextRunTime) }
func (h taskHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x interface{}) { *h = append(*h, x.(*Task)) }
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Scheduler runs tasks in a single background goroutine. All heap mutation
// happens under mu; the goroutine wakes via wake whenever the heap changes
// in a way that might move up the next deadline.
type Scheduler struct {
	mu      sync.Mutex
	heap    taskHeap
	byID    map[int64]*Task
	wake    chan struct{}
	stopped bool
	done    chan struct{}
	log     *logging.Logger
}

// New constructs a Scheduler. Call Start to begin running tasks.
func New(log *logging.Logger) *Scheduler {
	return &Scheduler{
		byID: make(map[int64]*Task),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  log,
	}
}

// Start launches the scheduler's run loop in a new goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// ScheduleTask inserts a task to first run at firstRun, then (if
// Interval > 0) every Interval thereafter.
func (s *Scheduler) ScheduleTask(t *Task, firstRun time.Time) {
	s.mu.Lock()
	t.nextRunTime = firstRun
	heap.Push(&s.heap, t)
	s.byID[t.ID] = t
	s.mu.Unlock()
	s.signal()
}

// RemoveTask marks a task stopped. It is lazily dropped out of the heap the
// next time it would otherwise run, rather than rebuilding the heap now.
func (s *Scheduler) RemoveTask(id int64) {
	s.mu.Lock()
	if t, ok := s.byID[id]; ok {
		t.stopped = true
		delete(s.byID, id)
	}
	s.mu.Unlock()
	s.signal()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Stop flips the stop flag and blocks until the run loop exits.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.signal()
	<-s.done
}

// runTask executes a task's Run function, recovering any panic so a single
// failing task cannot kill the scheduler's run loop — it is logged and the
// task re-armed on its normal schedule by the caller.
func (s *Scheduler) runTask(ctx context.Context, t *Task) {
	defer func() {
		if r := recover(); r != nil && s.log != nil {
			s.log.Error("scheduled task panic recovered", "taskId", t.ID, "panic", r)
		}
	}()
	t.Run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	for {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		if s.heap.Len() == 0 {
			s.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}

		next := s.heap[0]
		if next.stopped {
			heap.Pop(&s.heap)
			s.mu.Unlock()
			continue
		}

		now := time.Now()
		if !now.Before(next.nextRunTime) {
			heap.Pop(&s.heap)
			s.mu.Unlock()

			s.runTask(ctx, next)

			s.mu.Lock()
			if !next.stopped && next.Interval > 0 {
				next.nextRunTime = now.Add(next.Interval)
				heap.Push(&s.heap, next)
				s.byID[next.ID] = next
			}
			s.mu.Unlock()
			s.signal()
			continue
		}

		wait := time.Until(next.nextRunTime)
		s.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}
