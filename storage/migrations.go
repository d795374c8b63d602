package storage

var pgMigration = []string{
	`CREATE TYPE download_status AS ENUM ('started', 'completed', 'failed', 'aborted')`,
	`CREATE TABLE download (
id uuid PRIMARY KEY,
status download_status NOT NULL,
url TEXT NOT NULL,
format_id VARCHAR(255) NOT NULL,
container VARCHAR(32) NOT NULL DEFAULT '',
title TEXT NOT NULL DEFAULT '',
bytes BIGINT NOT NULL DEFAULT 0,
error TEXT NOT NULL DEFAULT '',
started_at TIMESTAMPTZ NOT NULL,
finished_at TIMESTAMPTZ
)`,
	`CREATE INDEX download_started_at ON download (started_at DESC)`,
}

var sqliteMigration = []string{
	`CREATE TABLE download (
id TEXT PRIMARY KEY,
status TEXT NOT NULL CHECK (status IN ('started', 'completed', 'failed', 'aborted')),
url TEXT NOT NULL,
format_id TEXT NOT NULL,
container TEXT NOT NULL DEFAULT '',
title TEXT NOT NULL DEFAULT '',
bytes INTEGER NOT NULL DEFAULT 0,
error TEXT NOT NULL DEFAULT '',
started_at DATETIME NOT NULL,
finished_at DATETIME
)`,
	`CREATE INDEX download_started_at ON download (started_at DESC)`,
}
