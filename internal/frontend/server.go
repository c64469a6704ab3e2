package frontend

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/udisondev/mmogate/internal/codec"
	"github.com/udisondev/mmogate/internal/logging"
	"github.com/udisondev/mmogate/internal/model"
)

// Dispatcher is the subset of the event dispatcher the frontend needs. A
// small interface rather than a direct dependency breaks what would
// otherwise be a cyclic import: frontend calls into dispatch, dispatch
// reaches sessions through the Client cache, never through frontend
// directly.
type Dispatcher interface {
	Dispatch(env codec.Envelope, peer model.Peer)
	HandleDisconnect(peer model.Peer)
}

// Server is the client-facing TCP acceptor.
type Server struct {
	addr       string
	maxClients int
	dispatcher Dispatcher
	log        *logging.Logger

	mu       sync.Mutex
	listener net.Listener
	active   atomic.Int64
}

// New constructs a Server bound to addr once Run is called.
func New(addr string, maxClients int, dispatcher Dispatcher, log *logging.Logger) *Server {
	return &Server{addr: addr, maxClients: maxClients, dispatcher: dispatcher, log: log}
}

// Run listens on addr and serves until ctx is cancelled or the listener
// fails: one goroutine per accepted connection, with a ctx.Done() watcher
// closing the listener for graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.log.Info("client frontend listening", "addr", s.addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.log.Error("accept failed", "error", err)
				continue
			}
		}
		if s.maxClients > 0 && int(s.active.Load()) >= s.maxClients {
			conn.Close()
			continue
		}
		s.active.Add(1)
		go s.handle(ctx, conn)
	}
}

// Close closes the listener if running.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer s.active.Add(-1)

	sess := NewSession(conn)
	defer s.disconnect(sess)

	go func() {
		<-ctx.Done()
		sess.Close()
	}()

	sess.ReadFrames(s.log, func(frame []byte) {
		env, err := codec.Decode(frame)
		if err != nil {
			s.log.Error("malformed frame", "remote", sess.Key(), "error", err)
			return
		}
		s.dispatcher.Dispatch(env, sess)
	})
}

// disconnect closes the session (a no-op if it is already closed) and calls
// HandleDisconnect, which enqueues the two disconnect events on every call.
// handle runs it exactly once per session, via defer.
func (s *Server) disconnect(sess *Session) {
	sess.Close()
	s.dispatcher.HandleDisconnect(sess)
}
