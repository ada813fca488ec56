package state

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
)

const currentSchemaVersion = 1

func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS rooms (
			room_id TEXT PRIMARY KEY,
			current_index INTEGER NOT NULL DEFAULT 0,
			playing INTEGER NOT NULL DEFAULT 0,
			started INTEGER NOT NULL DEFAULT 0,
			skip_votes TEXT NOT NULL DEFAULT '[]',
			previous_tracks TEXT NOT NULL DEFAULT '[]',
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS room_songs (
			room_id TEXT NOT NULL REFERENCES rooms(room_id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			video_id TEXT NOT NULL,
			title TEXT NOT NULL,
			requested_by TEXT,
			requested_at INTEGER,
			PRIMARY KEY (room_id, position)
		);
	`)
	if err != nil {
		return errors.Wrap(err, "create schema")
	}

	// Set initial version if not exists
	_, err = db.ExecContext(ctx, `
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return errors.Wrap(err, "record schema version")
}
