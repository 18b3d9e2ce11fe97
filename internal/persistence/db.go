// Package persistence provides SQLite-based game state storage.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/starbase/internal/catalog"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite connection for game state persistence.
type DB struct {
	conn    *sqlx.DB
	catalog *catalog.Catalog
}

// Open opens or creates a SQLite database at the given path. Rumps and
// workbee classes are resolved through cat.
func Open(path string, cat *catalog.Catalog) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection serialises writers, including harvest transactions.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn, catalog: cat}
	if err := db.pragmas(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pragmas: %w", err)
	}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) pragmas() error {
	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.conn.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		faction_id INTEGER
	);

	CREATE TABLE IF NOT EXISTS star_systems (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		database_entry_id INTEGER
	);

	CREATE TABLE IF NOT EXISTS map_regions (
		id INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		database_entry_id INTEGER
	);

	CREATE TABLE IF NOT EXISTS ships (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		rump_id INTEGER NOT NULL,
		is_base INTEGER NOT NULL,
		state INTEGER NOT NULL,
		hull INTEGER NOT NULL,
		max_hull INTEGER NOT NULL,
		repair_rate INTEGER NOT NULL,
		crew INTEGER NOT NULL,
		min_crew INTEGER NOT NULL,
		alert_state INTEGER NOT NULL,
		cx INTEGER NOT NULL,
		cy INTEGER NOT NULL,
		system_id INTEGER,
		region_id INTEGER,
		max_storage INTEGER NOT NULL,
		docked_to INTEGER,
		tractored_by INTEGER,
		tractoring INTEGER,
		destroyed INTEGER NOT NULL DEFAULT 0,
		eps_json TEXT,
		warp_drive_json TEXT,
		reactor_json TEXT,
		astro_json TEXT,
		aggregation_json TEXT
	);

	CREATE TABLE IF NOT EXISTS ship_systems (
		ship_id INTEGER NOT NULL,
		system_type INTEGER NOT NULL,
		mode INTEGER NOT NULL,
		status INTEGER NOT NULL,
		energy_cost INTEGER NOT NULL,
		module_json TEXT,
		PRIMARY KEY (ship_id, system_type)
	);

	CREATE TABLE IF NOT EXISTS ship_storage (
		ship_id INTEGER NOT NULL,
		commodity_id INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		PRIMARY KEY (ship_id, commodity_id)
	);

	CREATE TABLE IF NOT EXISTS construction_progress (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ship_id INTEGER NOT NULL UNIQUE,
		remaining_ticks INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS location_mining (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cx INTEGER NOT NULL,
		cy INTEGER NOT NULL,
		commodity_id INTEGER NOT NULL,
		max_amount INTEGER NOT NULL,
		actual_amount INTEGER NOT NULL,
		depleted_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS mining_queue (
		ship_id INTEGER PRIMARY KEY,
		location_mining_id INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trackers (
		ship_id INTEGER PRIMARY KEY,
		target_id INTEGER,
		remaining_ticks INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS takeovers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_ship_id INTEGER NOT NULL UNIQUE,
		target_ship_id INTEGER NOT NULL,
		start_turn INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS database_entries (
		id INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		points INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS database_user (
		user_id INTEGER NOT NULL,
		entry_id INTEGER NOT NULL,
		turn INTEGER NOT NULL,
		PRIMARY KEY (user_id, entry_id)
	);

	CREATE TABLE IF NOT EXISTS private_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender INTEGER NOT NULL,
		recipient INTEGER NOT NULL,
		text TEXT NOT NULL,
		category TEXT NOT NULL,
		href TEXT,
		tick INTEGER NOT NULL,
		run_id TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ships_user ON ships(user_id);
	CREATE INDEX IF NOT EXISTS idx_ships_docked ON ships(docked_to);
	CREATE INDEX IF NOT EXISTS idx_messages_recipient ON private_messages(recipient);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// LastTick returns the last completed turn, 0 for a fresh database.
func (db *DB) LastTick() (uint64, error) {
	v, err := db.GetMeta("last_tick")
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(v, 10, 64)
}

// SaveLastTick records the last completed turn.
func (db *DB) SaveLastTick(turn uint64) error {
	return db.SaveMeta("last_tick", strconv.FormatUint(turn, 10))
}

// HasState reports whether the database already holds ships.
func (db *DB) HasState(ctx context.Context) bool {
	var n int
	if err := db.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM ships"); err != nil {
		return false
	}
	return n > 0
}

// EnsureUser creates the user if it does not exist yet.
func (db *DB) EnsureUser(ctx context.Context, id int64, name string, factionID *int) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO users (id, name, faction_id) VALUES (?, ?, ?)",
		id, name, factionID,
	)
	return err
}

// nullJSON encodes v, mapping nil pointers to SQL NULL.
func nullJSON(v any) (sql.NullString, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	if string(b) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// decodeJSON decodes a nullable column into a newly allocated T.
func decodeJSON[T any](col sql.NullString) (*T, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal([]byte(col.String), v); err != nil {
		return nil, err
	}
	return v, nil
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
