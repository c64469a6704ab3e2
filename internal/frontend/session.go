// Package frontend implements the client-facing TCP acceptor: one Session
// per connection, reading \r\n\r\n-delimited JSON frames and handing them to
// the dispatcher, writing responses back over a serialised socket.
package frontend

import (
	"bufio"
	"bytes"
	"net"
	"sync"

	"github.com/udisondev/mmogate/internal/logging"
)

const (
	readBufSize    = 1024
	frameDelimiter = "\r\n\r\n"
)

// Session wraps one client connection. It satisfies model.Peer so the rest
// of the gateway can hold and reply through it without importing net
// directly.
type Session struct {
	conn net.Conn
	key  string

	writeMu sync.Mutex
	closeMu sync.Once
	closed  bool
}

// NewSession wraps conn. Key is derived from the remote address, which is
// unique per live TCP connection.
func NewSession(conn net.Conn) *Session {
	return &Session{conn: conn, key: conn.RemoteAddr().String()}
}

// Key returns the session's socket identity, used as the cache's secondary
// index key.
func (s *Session) Key() string { return s.key }

// Send writes a frame, appending the client link's \r\n\r\n terminator
// (the client side uses the same delimiter outbound as in, unlike the
// chunk link's legacy trailing newline). Writes are serialised by
// writeMu so concurrent handlers replying to the same session never
// interleave their bytes. A write attempted on a closed session is a no-op,
// not an error, matching the "writes are non-blocking, closed sockets are
// skipped" rule.
func (s *Session) Send(frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return nil
	}
	_, err := s.conn.Write(append(frame, []byte(frameDelimiter)...))
	return err
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.closed
}

// Close closes the underlying connection. Idempotent.
func (s *Session) Close() error {
	var err error
	s.closeMu.Do(func() {
		s.writeMu.Lock()
		s.closed = true
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

// ReadFrames reads from the connection until EOF or error, invoking onFrame
// for every complete \r\n\r\n-delimited frame extracted from the stream. It
// returns when the connection can no longer be read from.
func (s *Session) ReadFrames(log *logging.Logger, onFrame func(frame []byte)) {
	reader := bufio.NewReaderSize(s.conn, readBufSize)
	var acc bytes.Buffer
	buf := make([]byte, readBufSize)

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			acc.Write(buf[:n])
			extractFrames(&acc, onFrame)
		}
		if err != nil {
			return
		}
	}
}

// extractFrames pulls every complete delimiter-terminated frame out of acc,
// leaving any trailing partial frame in place for the next read.
func extractFrames(acc *bytes.Buffer, onFrame func(frame []byte)) {
	delim := []byte(frameDelimiter)
	for {
		data := acc.Bytes()
		idx := bytes.Index(data, delim)
		if idx < 0 {
			return
		}
		frame := append([]byte(nil), data[:idx]...)
		acc.Next(idx + len(delim))
		onFrame(frame)
	}
}
