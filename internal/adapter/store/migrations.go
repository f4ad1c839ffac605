package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS repositories (
    pk               BIGSERIAL PRIMARY KEY,
    id               TEXT NOT NULL UNIQUE,
    source_url       TEXT NOT NULL UNIQUE,
    contacts         TEXT NOT NULL DEFAULT '[]',
    summary          TEXT NOT NULL DEFAULT '',
    file_summaries   TEXT NOT NULL DEFAULT '[]',
    is_processed     BOOLEAN NOT NULL DEFAULT FALSE,
    processing_error TEXT,
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS repositories (
    pk               INTEGER PRIMARY KEY AUTOINCREMENT,
    id               TEXT NOT NULL UNIQUE,
    source_url       TEXT NOT NULL UNIQUE,
    contacts         TEXT NOT NULL DEFAULT '[]',
    summary          TEXT NOT NULL DEFAULT '',
    file_summaries   TEXT NOT NULL DEFAULT '[]',
    is_processed     BOOLEAN NOT NULL DEFAULT 0,
    processing_error TEXT,
    created_at       TIMESTAMP NOT NULL,
    updated_at       TIMESTAMP NOT NULL
);
`

// ApplyMigrations creates the schema if it does not exist.
func ApplyMigrations(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range strings.Split(d.Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema (%s): %w", d.Name, err)
		}
	}
	return nil
}
