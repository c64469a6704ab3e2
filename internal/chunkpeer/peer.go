// Package chunkpeer maintains the gateway's single outbound connection to
// the chunk server: connect with exponential backoff, a serialised sender,
// and a receive loop that decodes frames into dispatcher events.
package chunkpeer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/udisondev/mmogate/internal/codec"
	"github.com/udisondev/mmogate/internal/logging"
)

const (
	maxRetryCount         = 5
	defaultRetryBaseDelay = 5 * time.Second
	readBufSize           = 1024
	frameDelimiter        = "\r\n\r\n"
	// chunk-bound frames terminate with a trailing newline, the legacy
	// framing the chunk server's own parser expects.
	outboundSuffix = "\n"
)

// Handler receives decoded frames off the chunk connection.
type Handler interface {
	HandleChunkFrame(env codec.Envelope)
}

// Peer is the gateway's outbound link to the chunk server. It satisfies
// model.Peer (Key/Send/Closed/Close) so it can be stored in the Chunk
// cache like any other peer.
type Peer struct {
	addr       string
	handler    Handler
	log        *logging.Logger
	retryDelay time.Duration

	writeMu sync.Mutex
	connMu  sync.Mutex
	conn    net.Conn
	closed  bool
}

// New constructs a Peer. Call Run to connect and start the receive loop.
func New(addr string, handler Handler, log *logging.Logger) *Peer {
	return &Peer{addr: addr, handler: handler, log: log, retryDelay: defaultRetryBaseDelay}
}

// Key returns the peer's identity for the dual-index chunk cache.
func (p *Peer) Key() string { return p.addr }

// Closed reports whether the connection has been torn down.
func (p *Peer) Closed() bool {
	p.connMu.Lock()
	defer p.connMu.Unlock()
	return p.closed
}

// Close closes the current connection, if any.
func (p *Peer) Close() error {
	p.connMu.Lock()
	defer p.connMu.Unlock()
	p.closed = true
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Send serialises a write to the chunk socket, appending the chunk link's
// legacy newline terminator.
func (p *Peer) Send(frame []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.connMu.Lock()
	conn := p.conn
	closed := p.closed
	p.connMu.Unlock()
	if closed || conn == nil {
		return nil
	}

	_, err := conn.Write(append(frame, []byte(outboundSuffix)...))
	return err
}

// Run connects with exponential backoff and then serves the receive loop
// until ctx is cancelled or the connection is unrecoverably lost (backoff
// cap exceeded), in which case it returns a non-nil error — the caller
// (cmd/gateway) treats that as fatal and exits 1.
func (p *Peer) Run(ctx context.Context) error {
	for {
		conn, err := p.connectWithBackoff(ctx)
		if err != nil {
			return err
		}
		if conn == nil {
			return nil // ctx cancelled during backoff
		}

		p.connMu.Lock()
		p.conn = conn
		p.closed = false
		p.connMu.Unlock()

		p.log.Info("connected to chunk server", "addr", p.addr)
		p.receiveLoop(conn)

		select {
		case <-ctx.Done():
			return nil
		default:
		}
		p.log.Error("chunk connection lost, reconnecting", "addr", p.addr)
	}
}

func (p *Peer) connectWithBackoff(ctx context.Context) (net.Conn, error) {
	for attempt := 0; attempt <= maxRetryCount; attempt++ {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", p.addr)
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, nil
		}
		p.log.Error("chunk server connect failed", "attempt", attempt, "error", err)
		if attempt == maxRetryCount {
			return nil, fmt.Errorf("chunk server unreachable after %d attempts: %w", maxRetryCount+1, err)
		}
		wait := p.retryDelay * time.Duration(1<<attempt)
		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("chunk server unreachable")
}

func (p *Peer) receiveLoop(conn net.Conn) {
	reader := bufio.NewReaderSize(conn, readBufSize)
	var acc bytes.Buffer
	buf := make([]byte, readBufSize)
	delim := []byte(frameDelimiter)

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			acc.Write(buf[:n])
			for {
				data := acc.Bytes()
				idx := bytes.Index(data, delim)
				if idx < 0 {
					break
				}
				frame := append([]byte(nil), data[:idx]...)
				acc.Next(idx + len(delim))

				env, decErr := codec.Decode(frame)
				if decErr != nil {
					p.log.Error("malformed chunk frame", "error", decErr)
					continue
				}
				p.handler.HandleChunkFrame(env)
			}
		}
		if err != nil {
			conn.Close()
			return
		}
	}
}
