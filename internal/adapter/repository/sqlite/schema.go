package sqlite

import "database/sql"

// ensureSchema creates the tables. Asset order is insertion order (rowid).
func ensureSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS playlists (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		type       TEXT NOT NULL CHECK(type IN ('music', 'video')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS endpoints (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		slug           TEXT NOT NULL UNIQUE,
		status         TEXT NOT NULL DEFAULT 'pending'
		               CHECK(status IN ('operational', 'degraded', 'pending', 'disabled')),
		playlist_id    TEXT REFERENCES playlists(id) ON DELETE SET NULL,
		player_variant TEXT NOT NULL DEFAULT 'medium',
		visualizer     TEXT NOT NULL DEFAULT '{}',  -- normalized settings JSON
		last_sync      TEXT,
		latency_ms     INTEGER,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS media_assets (
		id               TEXT PRIMARY KEY,
		playlist_id      TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
		type             TEXT NOT NULL,
		title            TEXT NOT NULL,
		filename         TEXT NOT NULL,
		original_name    TEXT NOT NULL DEFAULT '',
		mime_type        TEXT NOT NULL DEFAULT '',
		size             INTEGER NOT NULL DEFAULT 0,
		status           TEXT NOT NULL DEFAULT 'processing'
		                 CHECK(status IN ('ready', 'processing', 'error')),
		duration_seconds REAL,
		artist           TEXT NOT NULL DEFAULT '',
		album            TEXT NOT NULL DEFAULT '',
		genre            TEXT NOT NULL DEFAULT '',
		year             INTEGER NOT NULL DEFAULT 0,
		artwork_filename TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_media_assets_playlist ON media_assets (playlist_id);
	`

	_, err := db.Exec(schema)
	return err
}
