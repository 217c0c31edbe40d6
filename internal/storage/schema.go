// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines tables for ingestion runs and login sessions.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		error TEXT,
		failure_kind TEXT,
		counts TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		issued_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`

	_, err := d.db.Exec(schema)
	return err
}
