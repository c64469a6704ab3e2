package cache

// Caches bundles every domain cache the gateway holds, so the composition
// root and the dispatcher's handler set can be wired from one value instead
// of seven separate constructor parameters.
type Caches struct {
	Clients      *ClientCache
	Characters   *CharacterCache
	Chunks       *ChunkCache
	MobTemplates *MobTemplateCache
	Npcs         *NpcCache
	Items        *ItemCache
	SpawnZones   *SpawnZoneCache
}

// New constructs every cache empty. Callers load reference data
// (MobTemplates, Npcs, Items, SpawnZones) from the database immediately
// after construction; Client and Character caches fill in as sessions
// join.
func New() *Caches {
	return &Caches{
		Clients:      NewClientCache(),
		Characters:   NewCharacterCache(),
		Chunks:       NewChunkCache(),
		MobTemplates: NewMobTemplateCache(),
		Npcs:         NewNpcCache(),
		Items:        NewItemCache(),
		SpawnZones:   NewSpawnZoneCache(),
	}
}
