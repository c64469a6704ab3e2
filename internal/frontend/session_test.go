package frontend

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/mmogate/internal/logging"
)

// TestSessionReadFramesExtractsMultipleFrames asserts the accumulator
// correctly splits a single read into several \r\n\r\n-delimited frames and
// holds a trailing partial frame for the next read.
func TestSessionReadFramesExtractsMultipleFrames(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	sess := NewSession(server)

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})

	log := logging.New(slog.LevelError)
	defer log.Close(context.Background())

	go func() {
		sess.ReadFrames(log, func(frame []byte) {
			mu.Lock()
			got = append(got, string(frame))
			mu.Unlock()
		})
		close(done)
	}()

	_, err := client.Write([]byte("frame-one\r\n\r\nframe-"))
	require.NoError(t, err)
	_, err = client.Write([]byte("two\r\n\r\n"))
	require.NoError(t, err)
	client.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ReadFrames did not return after peer close")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "frame-one", got[0])
	assert.Equal(t, "frame-two", got[1])
}

// TestSessionSendAppendsClientDelimiter asserts outbound client frames end
// with \r\n\r\n, the client-side wire terminator.
func TestSessionSendAppendsClientDelimiter(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	sess := NewSession(server)

	readDone := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := client.Read(buf)
		readDone <- buf[:n]
	}()

	require.NoError(t, sess.Send([]byte(`{"ok":true}`)))

	select {
	case got := <-readDone:
		assert.Equal(t, `{"ok":true}`+frameDelimiter, string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("did not observe write")
	}
}

// TestSessionSendAfterCloseIsNoop asserts a write on a closed session is
// skipped rather than erroring: writes are non-blocking, closed sockets
// are skipped.
func TestSessionSendAfterCloseIsNoop(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	sess := NewSession(server)

	require.NoError(t, sess.Close())
	assert.True(t, sess.Closed())
	assert.NoError(t, sess.Send([]byte("anything")))
}

// TestSessionCloseIsIdempotent asserts closing a session twice has the same
// effect as once.
func TestSessionCloseIsIdempotent(t *testing.T) {
	_, server := net.Pipe()
	sess := NewSession(server)

	assert.NoError(t, sess.Close())
	assert.NoError(t, sess.Close())
	assert.True(t, sess.Closed())
}
