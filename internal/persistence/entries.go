package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/talgya/starbase/internal/engine"
	"github.com/talgya/starbase/internal/ship"
)

// DatabaseEntry loads a player database entry.
func (db *DB) DatabaseEntry(ctx context.Context, id int64) (engine.DatabaseEntry, error) {
	var e engine.DatabaseEntry
	err := db.conn.GetContext(ctx, &e, "SELECT id, description, points FROM database_entries WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("database entry %d: %w", id, ErrNotFound)
	}
	return e, err
}

// HasDatabaseEntry reports whether the user already discovered the entry.
func (db *DB) HasDatabaseEntry(ctx context.Context, userID, entryID int64) (bool, error) {
	var n int
	err := db.conn.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM database_user WHERE user_id = ? AND entry_id = ?",
		userID, entryID,
	)
	return n > 0, err
}

// AddDatabaseEntry grants the entry to the user. Granting twice is a no-op.
func (db *DB) AddDatabaseEntry(ctx context.Context, userID, entryID int64, turn uint64) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO database_user (user_id, entry_id, turn) VALUES (?, ?, ?)",
		userID, entryID, turn,
	)
	return err
}

// InsertDatabaseEntry stores a discoverable entry.
func (db *DB) InsertDatabaseEntry(ctx context.Context, e engine.DatabaseEntry) error {
	_, err := db.conn.NamedExecContext(ctx,
		"INSERT OR REPLACE INTO database_entries (id, description, points) VALUES (:id, :description, :points)",
		e,
	)
	return err
}

// InsertStarSystem stores a star system.
func (db *DB) InsertStarSystem(ctx context.Context, sys ship.SystemLocation) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO star_systems (id, name, database_entry_id) VALUES (?, ?, ?)",
		sys.ID, sys.Name, sys.DatabaseEntryID,
	)
	return err
}

// InsertMapRegion stores a map region.
func (db *DB) InsertMapRegion(ctx context.Context, r ship.MapRegion) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO map_regions (id, description, database_entry_id) VALUES (?, ?, ?)",
		r.ID, r.Description, r.DatabaseEntryID,
	)
	return err
}
