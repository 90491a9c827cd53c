package snapshot

import (
	"context"
	"fmt"
)

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	trigger     TEXT NOT NULL,
	root        TEXT NOT NULL,
	version     TEXT NOT NULL,
	documents   INTEGER NOT NULL,
	instances   INTEGER NOT NULL,
	errors      INTEGER NOT NULL,
	warnings    INTEGER NOT NULL,
	applied     INTEGER NOT NULL,
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	stored_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_stored_at ON runs(stored_at);

CREATE TABLE IF NOT EXISTS prototypes (
	run_id   TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	id       TEXT NOT NULL,
	type     TEXT NOT NULL,
	source   TEXT NOT NULL,
	position INTEGER NOT NULL,
	payload  TEXT NOT NULL,
	PRIMARY KEY (run_id, id)
);

CREATE INDEX IF NOT EXISTS idx_prototypes_type ON prototypes(run_id, type);

CREATE TABLE IF NOT EXISTS diagnostics (
	run_id       TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq          INTEGER NOT NULL,
	kind         TEXT NOT NULL,
	severity     TEXT NOT NULL,
	source       TEXT NOT NULL,
	prototype_id TEXT NOT NULL,
	field        TEXT NOT NULL,
	line         INTEGER NOT NULL,
	col          INTEGER NOT NULL,
	message      TEXT NOT NULL,
	suggestion   TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// initSchema creates the tables if they don't exist and refuses databases
// written by a newer schema.
func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if version < schemaVersion {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}
	return nil
}
