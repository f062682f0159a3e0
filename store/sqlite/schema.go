package sqlite

// schema holds the DDL applied by Migrate. Statements are idempotent so
// Migrate can run at every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS stint_jobs (
		job_id      TEXT PRIMARY KEY,
		request     BLOB NOT NULL,
		config      BLOB,
		log_id      TEXT NOT NULL,
		log_file_id TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'accepted',
		error       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stint_jobs_terminal
		ON stint_jobs (updated_at)
		WHERE status IN ('done', 'error')`,

	`CREATE TABLE IF NOT EXISTS stint_checkpoints (
		job_id     TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS stint_timers (
		job_id  TEXT PRIMARY KEY,
		fire_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stint_timers_due
		ON stint_timers (fire_at)`,

	`CREATE TABLE IF NOT EXISTS stint_items (
		id            TEXT PRIMARY KEY,
		type          TEXT NOT NULL,
		collection    TEXT NOT NULL,
		properties    TEXT NOT NULL DEFAULT '{}',
		relationships TEXT,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stint_items_collection
		ON stint_items (collection, type)`,
}
