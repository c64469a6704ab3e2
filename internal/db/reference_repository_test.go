package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/mmogate/internal/db"
	"github.com/udisondev/mmogate/internal/testutil"
)

// TestLoadSpawnZonesAndTemplates seeds the reference tables the way a
// deploy would and asserts the startup load yields fully-shaped zones and
// templates, including the respawn cadence conversion.
func TestLoadSpawnZonesAndTemplates(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO mob_templates (template_id, name, race, level, hp, mp, aggressive)
		VALUES (1001, 'Gray Wolf', 'animal', 5, 120, 0, true)`)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO spawn_zones (zone_id, zone_name, center_x, center_y, center_z,
		                         size_x, size_y, size_z, mob_template_id, spawn_count, respawn_seconds)
		VALUES (1, 'Meadow', 0, 0, 200, 1000, 1000, 0, 1001, 3, 45)`)
	require.NoError(t, err)

	repo := db.NewReferenceRepository(pool)

	templates, err := repo.LoadMobTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "Gray Wolf", templates[0].Name)
	assert.True(t, templates[0].Aggressive)
	assert.Equal(t, int32(120), templates[0].HP)

	zones, err := repo.LoadSpawnZones(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	z := zones[0]
	assert.Equal(t, int64(1), z.ZoneID)
	assert.Equal(t, "Meadow", z.Name)
	assert.Equal(t, float32(1000), z.Size.X)
	assert.Equal(t, int64(1001), z.MobTemplateID)
	assert.Equal(t, 3, z.SpawnCount)
	assert.Equal(t, 45*time.Second, z.RespawnTime)
}

// TestGetOrCreateUserKeepsStoredHash asserts the session-key lookup never
// overwrites an existing user's hash: a second contact with a different
// claimed hash gets the stored one back for comparison.
func TestGetOrCreateUserKeepsStoredHash(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := db.NewReferenceRepository(pool)

	first, err := repo.GetOrCreateUser(ctx, 42, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", first)

	second, err := repo.GetOrCreateUser(ctx, 42, "attacker-guess")
	require.NoError(t, err)
	assert.Equal(t, "abc", second, "stored hash must survive a mismatched claim")
}
