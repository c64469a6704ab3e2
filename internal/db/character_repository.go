package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/mmogate/internal/model"
)

// CharacterRepository handles reads and writes of the characters table and
// its two child tables (attributes, skills).
type CharacterRepository struct {
	pool *pgxpool.Pool
}

func NewCharacterRepository(pool *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{pool: pool}
}

// GetCharacter is the named query function get_character: loads the
// character's identity and stat columns by owner client id, the shape
// joinGame resolves by. Position is a separate named query
// (GetCharacterPosition) so movement-heavy paths can read it without
// dragging the full row.
func (r *CharacterRepository) GetCharacter(ctx context.Context, ownerClientID int64) (model.Character, error) {
	var c model.Character
	err := r.pool.QueryRow(ctx, `
		SELECT character_id, owner_client_id, name, class, race, level, exp,
		       current_health, current_mana, max_health, max_mana, version
		FROM characters WHERE owner_client_id = $1`, ownerClientID,
	).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Class, &c.Race, &c.Level, &c.Exp,
		&c.HP, &c.MP, &c.MaxHP, &c.MaxMP, &c.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Character{}, nil
	}
	if err != nil {
		return model.Character{}, fmt.Errorf("loading character for client %d: %w", ownerClientID, err)
	}
	return c, nil
}

// GetCharacterAttributes is the named query function
// get_character_attributes.
func (r *CharacterRepository) GetCharacterAttributes(ctx context.Context, characterID int64) ([]model.Attribute, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT name, value FROM character_attributes WHERE character_id = $1`, characterID)
	if err != nil {
		return nil, fmt.Errorf("loading attributes for character %d: %w", characterID, err)
	}
	defer rows.Close()

	var attrs []model.Attribute
	for rows.Next() {
		var a model.Attribute
		if err := rows.Scan(&a.Name, &a.Value); err != nil {
			return nil, fmt.Errorf("scanning attribute row: %w", err)
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// GetCharacterSkills loads a character's learned skills.
func (r *CharacterRepository) GetCharacterSkills(ctx context.Context, characterID int64) ([]model.Skill, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT skill_id, level FROM character_skills WHERE character_id = $1`, characterID)
	if err != nil {
		return nil, fmt.Errorf("loading skills for character %d: %w", characterID, err)
	}
	defer rows.Close()

	var skills []model.Skill
	for rows.Next() {
		var s model.Skill
		if err := rows.Scan(&s.ID, &s.Level); err != nil {
			return nil, fmt.Errorf("scanning skill row: %w", err)
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

// UpdateTx is the named query function update_character: persists the
// mutable fields of a character snapshot inside a caller-managed
// transaction. The snapshot's version is stored with the row so a crash
// between flush and flag-clear is recoverable.
func (r *CharacterRepository) UpdateTx(ctx context.Context, tx pgx.Tx, c model.Character) error {
	_, err := tx.Exec(ctx, `
		UPDATE characters SET
			level = $2, exp = $3, current_health = $4, current_mana = $5,
			pos_x = $6, pos_y = $7, pos_z = $8, rot_z = $9, version = $10
		WHERE character_id = $1`,
		c.ID, c.Level, c.Exp, c.HP, c.MP, c.Position.X, c.Position.Y, c.Position.Z, c.Position.RotZ, c.Version)
	if err != nil {
		return fmt.Errorf("updating character %d: %w", c.ID, err)
	}
	return nil
}

// GetCharacterPosition is the named query function get_character_position:
// the position half of the joinGame load, and the query for any path that
// needs only where a character stands.
func (r *CharacterRepository) GetCharacterPosition(ctx context.Context, characterID int64) (model.Position, error) {
	var p model.Position
	err := r.pool.QueryRow(ctx,
		`SELECT pos_x, pos_y, pos_z, rot_z FROM characters WHERE character_id = $1`, characterID,
	).Scan(&p.X, &p.Y, &p.Z, &p.RotZ)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Position{}, nil
	}
	if err != nil {
		return model.Position{}, fmt.Errorf("loading position for character %d: %w", characterID, err)
	}
	return p, nil
}
