package database

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	token_version INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS species (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS checklist (
	id               TEXT PRIMARY KEY,
	event_id         TEXT NOT NULL UNIQUE,
	latitude         REAL NOT NULL,
	longitude        REAL NOT NULL,
	date             TIMESTAMP NOT NULL,
	observer_id      TEXT NOT NULL,
	duration_minutes INTEGER,
	created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sighting (
	event_id    TEXT NOT NULL,
	common_name TEXT NOT NULL,
	count       INTEGER NOT NULL CHECK (count > 0)
);

CREATE INDEX IF NOT EXISTS idx_checklist_lat_lon ON checklist (latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_checklist_observer ON checklist (observer_id);
CREATE INDEX IF NOT EXISTS idx_sighting_event ON sighting (event_id);
CREATE INDEX IF NOT EXISTS idx_sighting_name ON sighting (common_name);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
