package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/inventory"
)

// ErrProfileNotFound is returned when a profile lookup yields no results.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository stores per-profile modifier selections and inventories.
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a ProfileRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Ensure creates the profile if it does not exist yet.
//
// Precondition: id must be non-empty.
func (r *ProfileRepository) Ensure(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING`,
		id,
	)
	if err != nil {
		return fmt.Errorf("ensuring profile: %w", err)
	}
	return nil
}

// exists reports whether the profile row is present.
func (r *ProfileRepository) exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking profile: %w", err)
	}
	return ok, nil
}

// SaveModifiers replaces the modifier selection of profileID for stageID.
//
// Precondition: the profile must exist.
// Postcondition: Returns nil on success or ErrProfileNotFound.
func (r *ProfileRepository) SaveModifiers(ctx context.Context, profileID, stageID string, mods []battle.Modifier) error {
	if mods == nil {
		mods = []battle.Modifier{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO profile_modifiers (profile_id, stage_id, modifiers)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile_id, stage_id)
		DO UPDATE SET modifiers = EXCLUDED.modifiers, updated_at = NOW()`,
		profileID, stageID, mods,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("saving modifiers: %w", err)
	}
	return nil
}

// LoadModifiers returns the modifier selection of profileID for stageID.
//
// Postcondition: Returns an empty slice when nothing was saved for the stage,
// or ErrProfileNotFound when the profile does not exist.
func (r *ProfileRepository) LoadModifiers(ctx context.Context, profileID, stageID string) ([]battle.Modifier, error) {
	var mods []battle.Modifier
	err := r.db.QueryRow(ctx, `
		SELECT modifiers FROM profile_modifiers
		WHERE profile_id = $1 AND stage_id = $2`,
		profileID, stageID,
	).Scan(&mods)
	if err == nil {
		return mods, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("loading modifiers: %w", err)
	}
	ok, err := r.exists(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProfileNotFound
	}
	return []battle.Modifier{}, nil
}

// SaveInventory replaces the stored inventory of profileID with snap.
//
// Precondition: the profile must exist.
// Postcondition: The stored rows equal snap's non-zero counts, atomically.
func (r *ProfileRepository) SaveInventory(ctx context.Context, profileID string, snap inventory.Snapshot) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `UPDATE profiles SET updated_at = NOW() WHERE id = $1`, profileID)
	if err != nil {
		return fmt.Errorf("touching profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM profile_items WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("clearing inventory: %w", err)
	}

	rows := make([][]any, 0, len(snap))
	for id, n := range snap {
		if n > 0 {
			rows = append(rows, []any{profileID, id, n})
		}
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"profile_items"},
			[]string{"profile_id", "item_id", "count"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("writing inventory: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing inventory: %w", err)
	}
	return nil
}

// LoadInventory returns the stored inventory of profileID.
//
// Postcondition: Returns an empty snapshot for a profile with no items, or
// ErrProfileNotFound.
func (r *ProfileRepository) LoadInventory(ctx context.Context, profileID string) (inventory.Snapshot, error) {
	ok, err := r.exists(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProfileNotFound
	}
	rows, err := r.db.Query(ctx, `
		SELECT item_id, count FROM profile_items
		WHERE profile_id = $1 ORDER BY item_id`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading inventory: %w", err)
	}
	defer rows.Close()

	snap := make(inventory.Snapshot)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning inventory row: %w", err)
		}
		snap[id] = n
	}
	return snap, rows.Err()
}
