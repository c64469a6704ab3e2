package db_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/mmogate/internal/cache"
	"github.com/udisondev/mmogate/internal/db"
	"github.com/udisondev/mmogate/internal/logging"
	"github.com/udisondev/mmogate/internal/model"
	"github.com/udisondev/mmogate/internal/testutil"
)

// TestFlushDirtyPersistsAndClears covers the write-back path end to end:
// a mutated cached character is persisted on flush, the stored row carries
// the new position, and the dirty flag clears.
func TestFlushDirtyPersistsAndClears(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `INSERT INTO users (client_id, session_hash) VALUES (7, 'abc')`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
		INSERT INTO characters (character_id, owner_client_id, name, class, race, level)
		VALUES (42, 7, 'Testolas', 'warrior', 'human', 10)`)
	require.NoError(t, err)

	log := logging.New(slog.LevelError)
	t.Cleanup(func() { log.Close(context.Background()) })

	chars := cache.NewCharacterCache()
	charRepo := db.NewCharacterRepository(pool)
	persist := db.NewPersistenceService(pool, charRepo, chars, log)

	loaded, err := charRepo.GetCharacter(ctx, 7)
	require.NoError(t, err)
	require.False(t, loaded.IsZero())
	chars.Upsert(loaded)

	chars.Mutate(42, func(c model.Character) model.Character {
		c.Position = model.Position{X: 10, Y: 11, Z: 12, RotZ: 90}
		return c
	})
	require.True(t, chars.Get(42).Dirty)

	persist.FlushDirty(ctx)

	assert.False(t, chars.Get(42).Dirty, "flush must clear the dirty flag when nothing raced it")

	pos, err := charRepo.GetCharacterPosition(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, float32(10), pos.X)
	assert.Equal(t, float32(11), pos.Y)
	assert.Equal(t, float32(12), pos.Z)
	assert.Equal(t, float32(90), pos.RotZ)
}

// TestFlushOnePersistsFinalState covers the disconnect-time flush: the
// character's last cached state lands in the row even though no periodic
// tick ran.
func TestFlushOnePersistsFinalState(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `INSERT INTO users (client_id, session_hash) VALUES (7, 'abc')`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
		INSERT INTO characters (character_id, owner_client_id, name, class, race, level)
		VALUES (42, 7, 'Testolas', 'warrior', 'human', 10)`)
	require.NoError(t, err)

	log := logging.New(slog.LevelError)
	t.Cleanup(func() { log.Close(context.Background()) })

	chars := cache.NewCharacterCache()
	charRepo := db.NewCharacterRepository(pool)
	persist := db.NewPersistenceService(pool, charRepo, chars, log)

	loaded, err := charRepo.GetCharacter(ctx, 7)
	require.NoError(t, err)
	chars.Upsert(loaded)
	chars.Mutate(42, func(c model.Character) model.Character {
		c.Exp = 999
		return c
	})

	persist.FlushOne(ctx, 42)

	stored, err := charRepo.GetCharacter(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(999), stored.Exp)
	assert.False(t, chars.Get(42).Dirty)
}
