package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// TestLoadOverlaysOnDefaults asserts the defaults-then-overlay contract: a
// config file only naming some fields overrides those and leaves the rest
// at their defaults.
func TestLoadOverlaysOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"game_server": {"host": "10.0.0.5", "port": 7777, "max_clients": 50},
		"event_dispatcher": {"normal_batch_size": 25}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.GameServer.Host)
	assert.Equal(t, 7777, cfg.GameServer.Port)
	assert.Equal(t, 50, cfg.GameServer.MaxClients)
	assert.Equal(t, 25, cfg.Dispatcher.NormalBatchSize)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Database, cfg.Database)
	assert.Equal(t, Default().ChunkServer, cfg.ChunkServer)
}

func TestLoadMalformedJSONErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDSNIncludesPoolSize(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", DBName: "game",
		SSLMode: "disable", MaxConns: 8,
	}
	assert.Equal(t, "postgres://u:p@db:5432/game?sslmode=disable&pool_max_conns=8", d.DSN())
}
