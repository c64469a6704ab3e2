package cache

import (
	"sync"

	"github.com/udisondev/mmogate/internal/model"
)

// ChunkCache holds registered chunk-server peers, dual-indexed by chunkId
// and by the peer's socket key, with the same invariant as ClientCache.
// Sized for one chunk server today but shaped to hold more without a
// schema change.
type ChunkCache struct {
	mu         sync.RWMutex
	byID       map[int64]model.Chunk
	idBySocket map[string]int64
	nextID     int64
}

func NewChunkCache() *ChunkCache {
	return &ChunkCache{
		byID:       make(map[int64]model.Chunk),
		idBySocket: make(map[string]int64),
	}
}

func (c *ChunkCache) Get(id int64) model.Chunk {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id]
}

func (c *ChunkCache) GetBySocket(socketKey string) model.Chunk {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.idBySocket[socketKey]
	if !ok {
		return model.Chunk{}
	}
	return c.byID[id]
}

func (c *ChunkCache) GetAll() []model.Chunk {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Chunk, 0, len(c.byID))
	for _, ch := range c.byID {
		out = append(out, ch)
	}
	return out
}

// Register assigns the next chunkId and upserts ch, returning the assigned
// id. internal/gateway calls it once at construction to register the
// configured chunk server, which has no id of its own.
func (c *ChunkCache) Register(ch model.Chunk) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	ch.ID = c.nextID
	c.byID[ch.ID] = ch
	if ch.Peer != nil {
		c.idBySocket[ch.Peer.Key()] = ch.ID
	}
	return ch.ID
}

func (c *ChunkCache) Remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.byID[id]; ok {
		if ch.Peer != nil {
			delete(c.idBySocket, ch.Peer.Key())
		}
		delete(c.byID, id)
	}
}
