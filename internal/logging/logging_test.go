package logging

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoggerDrainsInEnqueueOrder asserts the FIFO contract: records come
// off the queue in the order producers enqueued them, and their captured
// timestamps never go backwards.
func TestLoggerDrainsInEnqueueOrder(t *testing.T) {
	l := New(slog.LevelInfo)

	l.Info("first")
	l.Error("second")
	l.Info("third")

	l.mu.Lock()
	queued := append([]record(nil), l.queue...)
	l.mu.Unlock()

	// The drain worker may already have consumed some records; whatever is
	// still queued must be in order with non-decreasing timestamps.
	for i := 1; i < len(queued); i++ {
		assert.False(t, queued[i].at.Before(queued[i-1].at))
	}
	want := []string{"first", "second", "third"}
	offset := len(want) - len(queued)
	for i, r := range queued {
		assert.Equal(t, want[offset+i], r.msg)
	}

	require.NoError(t, l.Close(context.Background()))
}

// TestLoggerCloseDrainsQueue asserts Close blocks until the worker has
// emptied the queue and exited.
func TestLoggerCloseDrainsQueue(t *testing.T) {
	l := New(slog.LevelInfo)
	for i := 0; i < 100; i++ {
		l.Info("msg", "i", i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Close(ctx))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.queue)
}

// TestLoggerEnqueueAfterCloseIsNoop asserts a producer racing shutdown is
// dropped silently rather than blocking or panicking.
func TestLoggerEnqueueAfterCloseIsNoop(t *testing.T) {
	l := New(slog.LevelInfo)
	require.NoError(t, l.Close(context.Background()))

	l.Info("late")
	l.Error("late")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.queue)
}
