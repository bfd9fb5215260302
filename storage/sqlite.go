package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS domains (
		id            INTEGER PRIMARY KEY,
		domain_name   TEXT NOT NULL UNIQUE,
		category      TEXT NOT NULL,
		price         REAL NOT NULL,
		keyword_score REAL NOT NULL,
		views         INTEGER NOT NULL DEFAULT 0,
		clicks        INTEGER NOT NULL DEFAULT 0,
		is_sold       BOOLEAN NOT NULL DEFAULT 0,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_domains_category ON domains(category);
	CREATE INDEX IF NOT EXISTS idx_domains_is_sold  ON domains(is_sold);
`

// NewSQLite opens (or creates) the catalog database at path and runs
// schema migrations. The driver is pure Go, so this is the default
// backend: no server, no CGO.
func NewSQLite(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}

	return &SQLStore{db: db}, nil
}
