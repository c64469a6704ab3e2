package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/mmogate/internal/logging"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log := logging.New(slog.LevelError)
	t.Cleanup(func() { log.Close(context.Background()) })
	return log
}

func TestScheduler_RunsTaskAtFirstRun(t *testing.T) {
	s := New(testLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	ran := make(chan struct{}, 1)
	s.ScheduleTask(&Task{
		ID: 1,
		Run: func(ctx context.Context) {
			ran <- struct{}{}
		},
	}, time.Now().Add(10*time.Millisecond))

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestScheduler_EarlierTaskPreemptsWait(t *testing.T) {
	s := New(testLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	var order []int
	done := make(chan struct{}, 2)

	s.ScheduleTask(&Task{
		ID: 1,
		Run: func(ctx context.Context) {
			order = append(order, 1)
			done <- struct{}{}
		},
	}, time.Now().Add(500*time.Millisecond))

	// A task due sooner, scheduled after, must run first.
	s.ScheduleTask(&Task{
		ID: 2,
		Run: func(ctx context.Context) {
			order = append(order, 2)
			done <- struct{}{}
		},
	}, time.Now().Add(10*time.Millisecond))

	<-done
	<-done
	require.Len(t, order, 2)
	assert.Equal(t, 2, order[0])
	assert.Equal(t, 1, order[1])
}

func TestScheduler_Reschedules(t *testing.T) {
	s := New(testLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	var count atomic.Int32
	s.ScheduleTask(&Task{
		ID:       1,
		Interval: 15 * time.Millisecond,
		Run: func(ctx context.Context) {
			count.Add(1)
		},
	}, time.Now())

	time.Sleep(100 * time.Millisecond)
	assert.GreaterOrEqual(t, count.Load(), int32(3))
}

func TestScheduler_RemoveTaskStopsFutureRuns(t *testing.T) {
	s := New(testLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	var count atomic.Int32
	s.ScheduleTask(&Task{
		ID:       1,
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) {
			count.Add(1)
		},
	}, time.Now())

	time.Sleep(30 * time.Millisecond)
	s.RemoveTask(1)
	after := count.Load()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, count.Load())
}

func TestScheduler_StopBlocksUntilLoopExits(t *testing.T) {
	s := New(testLogger(t))
	ctx := context.Background()
	s.Start(ctx)
	s.Stop()

	// A second Stop would deadlock if run() hadn't actually exited and closed done.
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Stop did not return")
	}
}

// TestScheduler_FiresNoEarlierThanInterval asserts monotonicity: every
// firing of a recurring task happens no earlier than the previous firing
// plus the interval, and firing times never decrease.
func TestScheduler_FiresNoEarlierThanInterval(t *testing.T) {
	s := New(testLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	const interval = 20 * time.Millisecond
	var mu sync.Mutex
	var fired []time.Time
	scheduled := time.Now()

	s.ScheduleTask(&Task{
		ID:       1,
		Interval: interval,
		Run: func(ctx context.Context) {
			mu.Lock()
			fired = append(fired, time.Now())
			mu.Unlock()
		},
	}, scheduled.Add(interval))

	time.Sleep(150 * time.Millisecond)
	s.RemoveTask(1)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(fired), 2)
	assert.False(t, fired[0].Before(scheduled.Add(interval)),
		"first firing came before scheduleTime+interval")
	// Re-arming is anchored at the pop time, which lands just before the
	// recorded firing time, so per-gap comparisons get a small slop.
	const slop = 5 * time.Millisecond
	for i := 1; i < len(fired); i++ {
		assert.False(t, fired[i].Before(fired[i-1]), "firing times went backwards")
		assert.GreaterOrEqual(t, fired[i].Sub(fired[i-1]), interval-slop,
			"firing %d came earlier than the interval allows", i)
	}
}

// TestScheduler_TaskPanicIsRecoveredAndReArmed asserts that a panicking task
// does not kill the run loop and is still re-armed on its interval.
func TestScheduler_TaskPanicIsRecoveredAndReArmed(t *testing.T) {
	s := New(testLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	var count atomic.Int32
	s.ScheduleTask(&Task{
		ID:       1,
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) {
			count.Add(1)
			panic("boom")
		},
	}, time.Now())

	time.Sleep(60 * time.Millisecond)
	assert.GreaterOrEqual(t, count.Load(), int32(3))

	// The loop must still be alive for other tasks after repeated panics.
	ran := make(chan struct{}, 1)
	s.ScheduleTask(&Task{
		ID: 2,
		Run: func(ctx context.Context) {
			ran <- struct{}{}
		},
	}, time.Now().Add(5*time.Millisecond))

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("scheduler run loop died after a task panic")
	}
}
