package db

import (
	"fmt"
	"strconv"
)

// Dialect describes the SQL flavor a database speaks.
type Dialect struct {
	Name   string
	Driver string
}

var (
	// SQLite uses the cgo driver github.com/mattn/go-sqlite3.
	SQLite = Dialect{Name: "sqlite3", Driver: "sqlite3"}
	// PureSQLite uses the pure-Go driver modernc.org/sqlite.
	PureSQLite = Dialect{Name: "sqlite", Driver: "sqlite"}
	// Postgres uses pgx through database/sql.
	Postgres = Dialect{Name: "postgres", Driver: "pgx"}
)

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	for _, d := range []Dialect{SQLite, PureSQLite, Postgres} {
		if d.Name == name {
			return d, nil
		}
	}
	return Dialect{}, fmt.Errorf("unknown SQL dialect %q", name)
}

// IsSQLite reports whether the dialect is one of the SQLite drivers.
func (d Dialect) IsSQLite() bool {
	return d.Name == SQLite.Name || d.Name == PureSQLite.Name
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d.IsSQLite() {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}
