package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/evcraddock/curbing/internal/house"
)

// migrations returns the ordered statements that create a collection table.
func migrations(d Dialect, table string) []string {
	statuses := make([]string, len(house.Statuses))
	for i, s := range house.Statuses {
		statuses[i] = "'" + string(s) + "'"
	}
	check := strings.Join(statuses, ", ")

	if d.IsSQLite() {
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT    NOT NULL UNIQUE,
		address    TEXT    NOT NULL CHECK (address <> ''),
		status     TEXT    NOT NULL CHECK (status IN (%s)),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`, table, check),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_status_idx ON %s (status)`, table, table),
		}
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		seq        BIGSERIAL PRIMARY KEY,
		id         TEXT        NOT NULL UNIQUE,
		address    TEXT        NOT NULL CHECK (address <> ''),
		status     TEXT        NOT NULL CHECK (status IN (%s)),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, table, check),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_status_idx ON %s (status)`, table, table),
	}
}

// migrate runs all migrations in order.
func migrate(db *sql.DB, d Dialect, table string) error {
	for i, m := range migrations(d, table) {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
