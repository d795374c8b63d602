package storage

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// SQLite keeps the journal in a local file, for setups without a database
// server.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) (*SQLite, error) {
	// one writer at a time, and ":memory:" databases only exist per
	// connection
	db.SetMaxOpenConns(1)
	if err := migrate(db, sqliteDialect, sqliteMigration); err != nil {
		return &SQLite{}, err
	}

	return &SQLite{db: db}, nil
}

func NewSQLiteDownloadRepository(s *SQLite) *SQLDownloadRepository {
	return &SQLDownloadRepository{db: s.db, dialect: sqliteDialect}
}
