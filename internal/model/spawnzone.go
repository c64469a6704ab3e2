package model

import "time"

// SpawnZone is an axis-aligned box within which mobs are periodically
// materialised. Center and Size describe the box: a point P is inside the
// zone iff |P.X-Center.X| <= Size.X/2 and |P.Y-Center.Y| <= Size.Y/2.
//
// Invariant: 0 <= SpawnedCount <= SpawnCount and SpawnedCount == len(SpawnedMobs).
// Maintained exclusively by internal/spawn under the owning cache's write lock.
type SpawnZone struct {
	ZoneID        int64
	Name          string
	Center        Position
	Size          Position
	MobTemplateID int64
	SpawnCount    int
	RespawnTime   time.Duration

	SpawnedMobs     []Mob
	SpawnedMobsUIDs []string
}

// SpawnedCount is derived from SpawnedMobs rather than tracked separately so
// the invariant SpawnedCount == len(SpawnedMobs) cannot drift.
func (z SpawnZone) SpawnedCount() int {
	return len(z.SpawnedMobs)
}

// IsZero reports whether z is the CacheMiss sentinel.
func (z SpawnZone) IsZero() bool {
	return z.ZoneID == 0
}

// MinCorner and MaxCorner return the box's extremes on X/Y.
func (z SpawnZone) MinCorner() (minX, minY float32) {
	return z.Center.X - z.Size.X/2, z.Center.Y - z.Size.Y/2
}

func (z SpawnZone) MaxCorner() (maxX, maxY float32) {
	return z.Center.X + z.Size.X/2, z.Center.Y + z.Size.Y/2
}

// Contains reports whether (x,y) lies within the zone's box.
func (z SpawnZone) Contains(x, y float32) bool {
	minX, minY := z.MinCorner()
	maxX, maxY := z.MaxCorner()
	return x >= minX && x <= maxX && y >= minY && y <= maxY
}
