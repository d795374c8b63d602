package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) (*Postgres, error) {
	p := &Postgres{db: db}
	if err := migrate(db, postgresDialect, pgMigration); err != nil {
		return &Postgres{}, err
	}

	return p, nil
}

func NewPostgresDownloadRepository(p *Postgres) *SQLDownloadRepository {
	return &SQLDownloadRepository{db: p.db, dialect: postgresDialect}
}

type dialect struct {
	name            string
	createMigration string
}

var postgresDialect = dialect{
	name: "postgres",
	createMigration: `CREATE TABLE IF NOT EXISTS migration
("id" SERIAL PRIMARY KEY, "query" TEXT)`,
}

var sqliteDialect = dialect{
	name: "sqlite",
	createMigration: `CREATE TABLE IF NOT EXISTS migration
("id" INTEGER PRIMARY KEY AUTOINCREMENT, "query" TEXT)`,
}

// rebind turns ? placeholders into $1, $2, ... for postgres.
func (d dialect) rebind(query string) string {
	if d.name != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func migrate(db *sql.DB, d dialect, wanted []string) error {
	_, err := db.Exec(d.createMigration)
	if err != nil {
		return err
	}

	// find existing
	rows, err := db.Query(`SELECT query FROM migration ORDER BY id`)
	if err != nil {
		return err
	}

	existing := []string{}
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			rows.Close()
			return err
		}
		existing = append(existing, query)
	}
	rows.Close()

	// compare
	missing, err := compareMigrations(wanted, existing)
	if err != nil {
		return err
	}

	// execute missing
	for _, query := range missing {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("%s migration failed: %w", d.name, err)
		}

		// register
		if _, err := db.Exec(d.rebind(`
INSERT INTO migration
(query) VALUES (?)
`), query); err != nil {
			return err
		}
	}

	return nil
}

func compareMigrations(wanted, existing []string) ([]string, error) {
	needed := []string{}
	if len(wanted) < len(existing) {
		return []string{}, fmt.Errorf("not enough migrations")
	}

	for i, want := range wanted {
		switch {
		case i >= len(existing):
			needed = append(needed, want)
		case want == existing[i]:
			// do nothing
		case want != existing[i]:
			return []string{}, fmt.Errorf("incompatible migration: %v", want)
		}
	}

	return needed, nil
}
