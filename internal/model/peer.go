package model

// Peer is the gateway's view of a live network endpoint: a client session or
// the chunk-server link. Events carry a Peer instead of a raw connection so a
// handler that runs after the originating session's stack frame is gone still
// has somewhere to write a reply. Close must be idempotent.
type Peer interface {
	// Key identifies the peer for the socket-keyed secondary index.
	Key() string
	// Send writes a single framed response. Implementations serialise
	// concurrent calls and must not block the caller on a slow client.
	Send(frame []byte) error
	// Closed reports whether the underlying connection has already been
	// torn down, so callers can skip writes without racing the close.
	Closed() bool
	Close() error
}
