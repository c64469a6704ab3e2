// Package cache holds the gateway's in-memory domain caches: one
// read-write-locked map per entity kind. No cache ever holds its lock
// across a handler invocation or a network write — callers snapshot under
// the lock and release before doing anything that can block.
package cache

import (
	"sync"

	"github.com/udisondev/mmogate/internal/model"
)

// ClientCache holds the currently-connected clients, dual-indexed by
// clientId and by the peer's Key() (its socket identity). The invariant
// socketIndex[c.Peer.Key()] == c.ClientID is maintained by mutating both
// indexes atomically inside one write-lock region.
type ClientCache struct {
	mu         sync.RWMutex
	byID       map[int64]model.Client
	idBySocket map[string]int64
}

// NewClientCache returns an empty ClientCache. The Client/Character caches
// start empty at startup and fill in as sessions join.
func NewClientCache() *ClientCache {
	return &ClientCache{
		byID:       make(map[int64]model.Client),
		idBySocket: make(map[string]int64),
	}
}

// Get returns the client for id, or the zero value if absent (CacheMiss).
func (c *ClientCache) Get(id int64) model.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id]
}

// GetBySocket resolves a client by its peer's socket key.
func (c *ClientCache) GetBySocket(socketKey string) model.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.idBySocket[socketKey]
	if !ok {
		return model.Client{}
	}
	return c.byID[id]
}

// GetAll returns a snapshot slice of every connected client.
func (c *ClientCache) GetAll() []model.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Client, 0, len(c.byID))
	for _, cl := range c.byID {
		out = append(out, cl)
	}
	return out
}

// Upsert inserts or replaces a client, keeping both indexes in lockstep. If
// the client previously registered under a different socket key (e.g. a
// reconnect under the same clientId), the stale socket entry is removed.
func (c *ClientCache) Upsert(cl model.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.byID[cl.ClientID]; ok && old.Peer != nil {
		if oldKey := old.Peer.Key(); oldKey != "" {
			delete(c.idBySocket, oldKey)
		}
	}
	c.byID[cl.ClientID] = cl
	if cl.Peer != nil {
		c.idBySocket[cl.Peer.Key()] = cl.ClientID
	}
}

// Remove deletes a client from both indexes.
func (c *ClientCache) Remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.byID[id]; ok {
		if cl.Peer != nil {
			delete(c.idBySocket, cl.Peer.Key())
		}
		delete(c.byID, id)
	}
}

// Count returns the number of connected clients.
func (c *ClientCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
