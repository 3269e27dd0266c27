package store

import "database/sql"

const ddl = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS chunks (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    chunk_text      TEXT NOT NULL,
    source_file     TEXT NOT NULL,
    chunk_index     INTEGER NOT NULL,
    start_pos       INTEGER NOT NULL DEFAULT 0,
    end_pos         INTEGER NOT NULL DEFAULT 0,
    embedding       TEXT NOT NULL,
    heading_context TEXT NOT NULL DEFAULT '',
    created_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Init creates the schema tables if they don't exist.
func Init(db *sql.DB) error {
	_, err := db.Exec(ddl)
	return err
}
