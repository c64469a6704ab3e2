package cache

import (
	"sync"

	"github.com/udisondev/mmogate/internal/model"
)

// SpawnZoneCache holds every spawn zone. The zone list itself loads once at
// startup; SpawnedMobs/SpawnedMobsUIDs inside each zone mutate continuously
// as internal/spawn spawns, moves and kills mobs, always under this cache's
// write lock so the SpawnedCount == len(SpawnedMobs) invariant can never be
// observed mid-update.
type SpawnZoneCache struct {
	mu   sync.RWMutex
	byID map[int64]model.SpawnZone
}

func NewSpawnZoneCache() *SpawnZoneCache {
	return &SpawnZoneCache{byID: make(map[int64]model.SpawnZone)}
}

func (c *SpawnZoneCache) Get(id int64) model.SpawnZone {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id]
}

func (c *SpawnZoneCache) GetAll() []model.SpawnZone {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.SpawnZone, 0, len(c.byID))
	for _, z := range c.byID {
		out = append(out, z)
	}
	return out
}

// LoadAll replaces the whole cache contents, used once at startup.
func (c *SpawnZoneCache) LoadAll(zones []model.SpawnZone) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[int64]model.SpawnZone, len(zones))
	for _, z := range zones {
		c.byID[z.ZoneID] = z
	}
}

// Mutate applies fn to the zone under the write lock and stores the result.
// Used by internal/spawn for every spawn/move/death transition so the
// mutation and the invariant check happen atomically.
func (c *SpawnZoneCache) Mutate(id int64, fn func(model.SpawnZone) model.SpawnZone) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.byID[id]
	if !ok {
		return false
	}
	// fn works on fresh copies of the mob slices, so zones already handed
	// out by Get/GetAll keep their snapshot instead of sharing storage.
	cur.SpawnedMobs = append([]model.Mob(nil), cur.SpawnedMobs...)
	cur.SpawnedMobsUIDs = append([]string(nil), cur.SpawnedMobsUIDs...)
	c.byID[id] = fn(cur)
	return true
}
