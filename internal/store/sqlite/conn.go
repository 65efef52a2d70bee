package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a SQLite database at the given path and enables
// WAL journal mode for better concurrency on read-heavy workloads.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the HomePulse tables if they do not exist.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS monitored_entities (
            entity_id TEXT PRIMARY KEY,
            friendly_name TEXT NOT NULL,
            domain TEXT NOT NULL,
            category TEXT NOT NULL,
            priority TEXT NOT NULL DEFAULT 'normal'
        );`,
		`CREATE TABLE IF NOT EXISTS snapshots (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            entity_id TEXT NOT NULL,
            timestamp TIMESTAMP NOT NULL,
            value_type TEXT NOT NULL,
            value_num REAL,
            value_str TEXT,
            attributes TEXT
        );`,
		`CREATE INDEX IF NOT EXISTS snapshots_entity_ts_idx ON snapshots(entity_id, timestamp);`,
		`CREATE INDEX IF NOT EXISTS snapshots_ts_idx ON snapshots(timestamp);`,
		`CREATE TABLE IF NOT EXISTS digests (
            id TEXT PRIMARY KEY,
            timestamp TIMESTAMP NOT NULL,
            type TEXT NOT NULL,
            content TEXT NOT NULL,
            summary TEXT NOT NULL,
            attention_count INTEGER NOT NULL DEFAULT 0,
            notification_sent INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE INDEX IF NOT EXISTS digests_type_ts_idx ON digests(type, timestamp);`,
		`CREATE TABLE IF NOT EXISTS profile (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS dismissed_warnings (
            warning_key TEXT PRIMARY KEY,
            title TEXT,
            dismissed_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS user_notes (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            warning_key TEXT NOT NULL,
            title TEXT NOT NULL,
            note TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL
        );`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
