package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/meta"
)

// ProfileRepo stores meta profiles as jsonb, one row per player.
type ProfileRepo struct {
	db     *DB
	tables *data.Tables
}

// NewProfileRepo returns a repo that repairs profiles against tables on save.
func NewProfileRepo(db *DB, tables *data.Tables) *ProfileRepo {
	return &ProfileRepo{db: db, tables: tables}
}

// Load returns meta.ErrNotFound when the player has no stored profile.
func (r *ProfileRepo) Load(ctx context.Context, playerID string) (meta.State, error) {
	var raw []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT state FROM profiles WHERE player_id = $1`, playerID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return meta.State{}, meta.ErrNotFound
	}
	if err != nil {
		return meta.State{}, fmt.Errorf("load profile %s: %w", playerID, err)
	}
	var s meta.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return meta.State{}, fmt.Errorf("profile %s: %w: %v", playerID, meta.ErrCorrupt, err)
	}
	return s, nil
}

// Save upserts the profile. The stored row is merged with the incoming state
// in Go first so a stale client never lowers remote progress.
func (r *ProfileRepo) Save(ctx context.Context, playerID string, s meta.State) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save profile begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT state FROM profiles WHERE player_id = $1 FOR UPDATE`, playerID,
	).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		raw = nil
	case err != nil:
		return fmt.Errorf("save profile %s: %w", playerID, err)
	}

	b, err := meta.Encode(mergeStored(raw, s, r.tables))
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO profiles (player_id, state, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (player_id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		playerID, b,
	); err != nil {
		return fmt.Errorf("save profile %s: %w", playerID, err)
	}
	return tx.Commit(ctx)
}

// mergeStored repairs the incoming state and the stored row, if any, before
// merging them. A corrupt row decodes to defaults.
func mergeStored(raw []byte, s meta.State, t *data.Tables) meta.State {
	s, _ = meta.Repair(s, t)
	if raw == nil {
		return s
	}
	stored, _ := meta.Decode(raw, t)
	return meta.Merge(stored, s)
}
