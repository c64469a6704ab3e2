package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/mmogate/internal/cache"
	"github.com/udisondev/mmogate/internal/logging"
	"github.com/udisondev/mmogate/internal/model"
)

// PersistenceService coordinates the periodic character write-back, scoped
// to the characters table this gateway owns, inside one transaction per
// flushed row.
type PersistenceService struct {
	pool     *pgxpool.Pool
	charRepo *CharacterRepository
	chars    *cache.CharacterCache
	log      *logging.Logger
}

func NewPersistenceService(pool *pgxpool.Pool, charRepo *CharacterRepository, chars *cache.CharacterCache, log *logging.Logger) *PersistenceService {
	return &PersistenceService{pool: pool, charRepo: charRepo, chars: chars, log: log}
}

// FlushDirty snapshots every dirty character (under the cache's read lock,
// released before touching the database), persists each one in its own
// transaction, and clears the dirty flag only if the row hasn't been
// mutated again since the snapshot was taken, so no update is lost.
func (s *PersistenceService) FlushDirty(ctx context.Context) {
	dirty := s.chars.SnapshotDirty()
	for _, c := range dirty {
		if err := s.flushOne(ctx, c); err != nil {
			s.log.Error("character flush failed, will retry", "characterId", c.ID, "error", err)
			continue
		}
		s.chars.ClearDirtyIfUnchanged(c.ID, c.Version)
	}
}

func (s *PersistenceService) flushOne(ctx context.Context, c model.Character) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for character %d: %w", c.ID, err)
	}
	defer tx.Rollback(ctx)

	if err := s.charRepo.UpdateTx(ctx, tx, c); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction for character %d: %w", c.ID, err)
	}
	return nil
}

// FlushOne persists a single character immediately, used on disconnect
// where waiting for the next scheduler tick would lose the final state.
func (s *PersistenceService) FlushOne(ctx context.Context, characterID int64) {
	c := s.chars.Get(characterID)
	if c.IsZero() || !c.Dirty {
		return
	}
	if err := s.flushOne(ctx, c); err != nil {
		s.log.Error("final character flush failed", "characterId", characterID, "error", err)
		return
	}
	s.chars.ClearDirtyIfUnchanged(characterID, c.Version)
}
