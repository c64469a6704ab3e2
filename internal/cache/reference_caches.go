package cache

import (
	"sync"

	"github.com/udisondev/mmogate/internal/model"
)

// MobTemplateCache holds every mob template, loaded fully at startup and
// never mutated afterwards. Still RWMutex-guarded rather than a bare map,
// so a hot-reload admin path (not required by this gateway today) would
// not need a structural change.
type MobTemplateCache struct {
	mu   sync.RWMutex
	byID map[int64]model.MobTemplate
}

func NewMobTemplateCache() *MobTemplateCache {
	return &MobTemplateCache{byID: make(map[int64]model.MobTemplate)}
}

func (c *MobTemplateCache) Get(id int64) model.MobTemplate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id]
}

func (c *MobTemplateCache) GetAll() []model.MobTemplate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.MobTemplate, 0, len(c.byID))
	for _, t := range c.byID {
		out = append(out, t)
	}
	return out
}

// LoadAll replaces the whole cache contents, used once at startup after the
// templates repository reads every row.
func (c *MobTemplateCache) LoadAll(templates []model.MobTemplate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[int64]model.MobTemplate, len(templates))
	for _, t := range templates {
		c.byID[t.TemplateID] = t
	}
}

// NpcCache holds NPC reference data, loaded once at startup.
type NpcCache struct {
	mu   sync.RWMutex
	byID map[int64]model.Npc
}

func NewNpcCache() *NpcCache {
	return &NpcCache{byID: make(map[int64]model.Npc)}
}

func (c *NpcCache) Get(id int64) model.Npc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id]
}

func (c *NpcCache) GetAll() []model.Npc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Npc, 0, len(c.byID))
	for _, n := range c.byID {
		out = append(out, n)
	}
	return out
}

func (c *NpcCache) LoadAll(npcs []model.Npc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[int64]model.Npc, len(npcs))
	for _, n := range npcs {
		c.byID[n.ID] = n
	}
}

// ItemCache holds item-template reference data, loaded once at startup.
type ItemCache struct {
	mu   sync.RWMutex
	byID map[int64]model.Item
}

func NewItemCache() *ItemCache {
	return &ItemCache{byID: make(map[int64]model.Item)}
}

func (c *ItemCache) Get(id int64) model.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id]
}

func (c *ItemCache) GetAll() []model.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Item, 0, len(c.byID))
	for _, i := range c.byID {
		out = append(out, i)
	}
	return out
}

func (c *ItemCache) LoadAll(items []model.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[int64]model.Item, len(items))
	for _, i := range items {
		c.byID[i.ID] = i
	}
}
