package chunkpeer

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/mmogate/internal/codec"
	"github.com/udisondev/mmogate/internal/logging"
)

type frameRecorder struct {
	mu     sync.Mutex
	frames []codec.Envelope
}

func (r *frameRecorder) HandleChunkFrame(env codec.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, env)
}

func (r *frameRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *frameRecorder) first() codec.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames[0]
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log := logging.New(slog.LevelError)
	t.Cleanup(func() { log.Close(context.Background()) })
	return log
}

// reservedAddr grabs a free port and releases it, so tests get an address
// that is known to be closed right now but bindable later.
func reservedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

// TestRunReceivesFramesAndSendTerminator covers the steady-state half of
// S6: with the chunk server already up, the peer connects on the first
// attempt, decoded inbound frames reach the handler, and outbound frames
// carry the chunk link's trailing newline.
func TestRunReceivesFramesAndSendTerminator(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	rec := &frameRecorder{}
	p := New(ln.Addr().String(), rec, testLogger(t))
	p.retryDelay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- p.Run(ctx) }()

	conn, err := ln.Accept()
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"header":{"eventType":"moveCharacter","clientId":7}}` + "\r\n\r\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "moveCharacter", rec.first().Header.EventType)
	assert.Equal(t, int64(7), rec.first().Header.ClientID)

	require.NoError(t, p.Send([]byte(`{"ok":true}`)))
	buf := make([]byte, 64)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`+"\n", string(buf[:n]))

	cancel()
	p.Close()
	conn.Close()
	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// TestRunExhaustsBackoffAndFails covers the fatal half of S6: with the
// chunk server never coming up, the peer retries on its exponential
// schedule and returns a non-nil error after the retry cap, which the
// gateway treats as an exit-1 condition.
func TestRunExhaustsBackoffAndFails(t *testing.T) {
	p := New(reservedAddr(t), &frameRecorder{}, testLogger(t))
	p.retryDelay = 2 * time.Millisecond

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

// TestRunConnectsWhenPeerComesUpMidBackoff covers the recovery half of S6:
// the chunk server starts listening while the peer is still inside its
// backoff schedule, and the link reaches steady state instead of dying.
func TestRunConnectsWhenPeerComesUpMidBackoff(t *testing.T) {
	addr := reservedAddr(t)

	rec := &frameRecorder{}
	p := New(addr, rec, testLogger(t))
	p.retryDelay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- p.Run(ctx) }()

	// Let a couple of attempts fail before the listener appears.
	time.Sleep(75 * time.Millisecond)
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	defer ln.Close()

	conn, err := ln.Accept()
	require.NoError(t, err)
	defer conn.Close()
	assert.False(t, p.Closed())

	cancel()
	p.Close()
	conn.Close()
	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
