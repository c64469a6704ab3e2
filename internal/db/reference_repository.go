package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/mmogate/internal/model"
)

// ReferenceRepository loads the gateway's read-only reference tables
// (mob templates, NPCs, items, spawn zones) in full at startup.
type ReferenceRepository struct {
	pool *pgxpool.Pool
}

func NewReferenceRepository(pool *pgxpool.Pool) *ReferenceRepository {
	return &ReferenceRepository{pool: pool}
}

// LoadMobTemplates is the named query function get_mob_spawn_zone_data's
// template half: every mob_templates row.
func (r *ReferenceRepository) LoadMobTemplates(ctx context.Context) ([]model.MobTemplate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT template_id, name, race, level, hp, mp, aggressive FROM mob_templates ORDER BY template_id`)
	if err != nil {
		return nil, fmt.Errorf("loading mob templates: %w", err)
	}
	defer rows.Close()

	var out []model.MobTemplate
	for rows.Next() {
		var t model.MobTemplate
		if err := rows.Scan(&t.TemplateID, &t.Name, &t.Race, &t.Level, &t.HP, &t.MP, &t.Aggressive); err != nil {
			return nil, fmt.Errorf("scanning mob template row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// LoadNpcs loads every npc_templates row.
func (r *ReferenceRepository) LoadNpcs(ctx context.Context) ([]model.Npc, error) {
	rows, err := r.pool.Query(ctx, `SELECT npc_id, name, title, level FROM npc_templates ORDER BY npc_id`)
	if err != nil {
		return nil, fmt.Errorf("loading npc templates: %w", err)
	}
	defer rows.Close()

	var out []model.Npc
	for rows.Next() {
		var n model.Npc
		if err := rows.Scan(&n.ID, &n.Name, &n.Title, &n.Level); err != nil {
			return nil, fmt.Errorf("scanning npc row: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// LoadItems loads every item_templates row.
func (r *ReferenceRepository) LoadItems(ctx context.Context) ([]model.Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT item_id, name, weight, stacking FROM item_templates ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("loading item templates: %w", err)
	}
	defer rows.Close()

	var out []model.Item
	for rows.Next() {
		var i model.Item
		if err := rows.Scan(&i.ID, &i.Name, &i.Weight, &i.Stacking); err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// LoadSpawnZones is the named query function get_mob_spawn_zone_data:
// every spawn_zones row, shaped into model.SpawnZone.
func (r *ReferenceRepository) LoadSpawnZones(ctx context.Context) ([]model.SpawnZone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT zone_id, zone_name, center_x, center_y, center_z, size_x, size_y, size_z,
		       mob_template_id, spawn_count, respawn_seconds
		FROM spawn_zones ORDER BY zone_id`)
	if err != nil {
		return nil, fmt.Errorf("loading spawn zones: %w", err)
	}
	defer rows.Close()

	var out []model.SpawnZone
	for rows.Next() {
		var z model.SpawnZone
		var respawnSeconds int32
		if err := rows.Scan(&z.ZoneID, &z.Name, &z.Center.X, &z.Center.Y, &z.Center.Z,
			&z.Size.X, &z.Size.Y, &z.Size.Z, &z.MobTemplateID, &z.SpawnCount, &respawnSeconds); err != nil {
			return nil, fmt.Errorf("scanning spawn zone row: %w", err)
		}
		z.RespawnTime = time.Duration(respawnSeconds) * time.Second
		out = append(out, z)
	}
	return out, rows.Err()
}

// GetOrCreateUser is the named query function backing session-hash
// validation against the users table: upserts a user row on first contact
// and returns its stored session hash for comparison.
func (r *ReferenceRepository) GetOrCreateUser(ctx context.Context, clientID int64, hash string) (string, error) {
	var stored string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (client_id, session_hash) VALUES ($1, $2)
		ON CONFLICT (client_id) DO UPDATE SET session_hash = users.session_hash
		RETURNING session_hash`, clientID, hash,
	).Scan(&stored)
	if err != nil {
		return "", fmt.Errorf("upserting user %d: %w", clientID, err)
	}
	return stored, nil
}
