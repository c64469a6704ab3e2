package model

// Client is a single live game-client connection: the pairing of a claimed
// identity (ClientID, SessionKey) with the network Peer it arrived on and,
// once joinGame succeeds, the Character it is playing.
//
// A Client is looked up by either ClientID or the Peer's Key — the ClientCache
// keeps both indexes in sync under one write-lock region so that, per the
// dual-index invariant, exactly one of the two indexes resolves to a given
// Client entry for any key present in the cache.
type Client struct {
	ClientID   int64
	SessionKey string
	Peer       Peer
	Character  *Character
}

// IsZero reports whether c is the CacheMiss sentinel.
func (c Client) IsZero() bool {
	return c.ClientID == 0 && c.Peer == nil
}
